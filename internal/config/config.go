package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains filesystem locations used during a run.
type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
}

// Encode contains encoder parameters applied to every converted file.
type Encode struct {
	Quality        int    `toml:"quality"`
	Preset         string `toml:"preset"`
	GPU            bool   `toml:"gpu"`
	Cleanup        bool   `toml:"cleanup"`
	Retries        int    `toml:"retries"`
	DryRun         bool   `toml:"dry_run"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Scan contains file discovery settings.
type Scan struct {
	Ignore string `toml:"ignore"`
}

// Workflow contains sharding and concurrency settings.
type Workflow struct {
	Workers     int `toml:"workers"`
	TotalShards int `toml:"total_shards"`
	ShardIndex  int `toml:"shard_index"`
	// MetricsFile, when set, receives run metrics in the node_exporter
	// textfile format after each run.
	MetricsFile string `toml:"metrics_file"`
}

// State selects the persistence backend for per-file outcomes.
type State struct {
	Backend string `toml:"backend"`
}

// Tools names the external executables invoked by the pipeline.
type Tools struct {
	FFmpeg    string `toml:"ffmpeg"`
	FFprobe   string `toml:"ffprobe"`
	NvidiaSMI string `toml:"nvidia_smi"`
	File      string `toml:"file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunCompleted   bool   `toml:"run_completed"`
	Failures       bool   `toml:"failures"`
}

// Relay contains configuration for the alert relay service.
type Relay struct {
	Bind           string `toml:"bind"`
	OllamaURL      string `toml:"ollama_url"`
	OllamaModel    string `toml:"ollama_model"`
	NtfyURL        string `toml:"ntfy_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Config encapsulates all configuration values for vidnorm.
//
// Configuration sections by subsystem:
//   - Paths: scratch directory for in-flight outputs
//   - Encode: quality, preset, GPU, cleanup, retries, dry-run, timeout
//   - Scan: ignore pattern
//   - Workflow: worker count and shard assignment
//   - State: persistence backend (json document or sqlite)
//   - Tools: external binaries
//   - Logging: log format, level, and optional file
//   - Notifications: ntfy push notification settings
//   - Relay: alert relay endpoints
type Config struct {
	Paths         Paths         `toml:"paths"`
	Encode        Encode        `toml:"encode"`
	Scan          Scan          `toml:"scan"`
	Workflow      Workflow      `toml:"workflow"`
	State         State         `toml:"state"`
	Tools         Tools         `toml:"tools"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
	Relay         Relay         `toml:"relay"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := Parse(path)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, "", false, err
	}
	return cfg, resolvedPath, exists, nil
}

// Parse locates and decodes a configuration file over the defaults without
// validating it. Callers that layer flags on top call Finalize afterwards.
func Parse(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}
	return &cfg, resolvedPath, exists, nil
}

// Finalize normalizes values, applies environment overrides, and validates.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	if err := c.ApplyEnvironment(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vidnorm.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch directory used for in-flight outputs.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.ScratchDir, 0o755); err != nil {
		return fmt.Errorf("create scratch directory %q: %w", c.Paths.ScratchDir, err)
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for probing.
func (c *Config) FFprobeBinary() string {
	return binaryOr(c.Tools.FFprobe, "ffprobe")
}

// FFmpegBinary returns the ffmpeg executable name used for encoding.
func (c *Config) FFmpegBinary() string {
	return binaryOr(c.Tools.FFmpeg, "ffmpeg")
}

// NvidiaSMIBinary returns the GPU listing executable name.
func (c *Config) NvidiaSMIBinary() string {
	return binaryOr(c.Tools.NvidiaSMI, "nvidia-smi")
}

// FileBinary returns the MIME sniffing executable name.
func (c *Config) FileBinary() string {
	return binaryOr(c.Tools.File, "file")
}

func binaryOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
