package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncode()
	c.normalizeState()
	c.normalizeLogging()
	c.normalizeRelay()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	var err error
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Workflow.MetricsFile = strings.TrimSpace(c.Workflow.MetricsFile); c.Workflow.MetricsFile != "" {
		if c.Workflow.MetricsFile, err = expandPath(c.Workflow.MetricsFile); err != nil {
			return fmt.Errorf("workflow.metrics_file: %w", err)
		}
	}
	if c.Logging.File = strings.TrimSpace(c.Logging.File); c.Logging.File != "" {
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeEncode() {
	c.Encode.Preset = strings.ToLower(strings.TrimSpace(c.Encode.Preset))
	if c.Encode.Preset == "" {
		c.Encode.Preset = defaultPreset
	}
	if c.Encode.TimeoutSeconds <= 0 {
		c.Encode.TimeoutSeconds = defaultEncodeTimeout
	}
	c.Scan.Ignore = strings.TrimSpace(c.Scan.Ignore)
}

func (c *Config) normalizeState() {
	c.State.Backend = strings.ToLower(strings.TrimSpace(c.State.Backend))
	if c.State.Backend == "" {
		c.State.Backend = defaultStateBackend
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeRelay() {
	if value, ok := os.LookupEnv("OLLAMA_URL"); ok && strings.TrimSpace(value) != "" {
		c.Relay.OllamaURL = value
	}
	if value, ok := os.LookupEnv("OLLAMA_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.Relay.OllamaModel = value
	}
	if value, ok := os.LookupEnv("NTFY_URL"); ok && strings.TrimSpace(value) != "" {
		c.Relay.NtfyURL = value
	}
	if value, ok := os.LookupEnv("RELAY_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Relay.Bind = value
	}
	c.Relay.OllamaURL = strings.TrimRight(strings.TrimSpace(c.Relay.OllamaURL), "/")
	if c.Relay.OllamaURL == "" {
		c.Relay.OllamaURL = defaultRelayOllamaURL
	}
	c.Relay.OllamaModel = strings.TrimSpace(c.Relay.OllamaModel)
	if c.Relay.OllamaModel == "" {
		c.Relay.OllamaModel = defaultRelayOllamaModel
	}
	c.Relay.NtfyURL = strings.TrimSpace(c.Relay.NtfyURL)
	if c.Relay.NtfyURL == "" {
		c.Relay.NtfyURL = defaultRelayNtfyURL
	}
	c.Relay.Bind = strings.TrimSpace(c.Relay.Bind)
	if c.Relay.Bind == "" {
		c.Relay.Bind = defaultRelayBind
	}
	if c.Relay.TimeoutSeconds <= 0 {
		c.Relay.TimeoutSeconds = defaultRelayTimeoutSeconds
	}
}

// ApplyEnvironment applies environment overrides that must win over both the
// config file and command-line flags. Call it again after applying flags.
func (c *Config) ApplyEnvironment() error {
	value, ok := os.LookupEnv(ShardIndexEnv)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	index, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: invalid shard index %q: %w", ShardIndexEnv, value, err)
	}
	c.Workflow.ShardIndex = index
	return nil
}
