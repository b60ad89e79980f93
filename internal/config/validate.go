package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateState(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateEncode() error {
	if c.Encode.Quality < 0 || c.Encode.Quality > 51 {
		return fmt.Errorf("encode.quality must be between 0 and 51, got %d", c.Encode.Quality)
	}
	if c.Encode.Retries < 1 {
		return errors.New("encode.retries must be at least 1")
	}
	if strings.TrimSpace(c.Encode.Preset) == "" {
		return errors.New("encode.preset must be set")
	}
	if c.Encode.TimeoutSeconds <= 0 {
		return errors.New("encode.timeout_seconds must be positive")
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Ignore == "" {
		return nil
	}
	if _, err := regexp.Compile(c.Scan.Ignore); err != nil {
		return fmt.Errorf("scan.ignore: invalid regular expression: %w", err)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers < 1 {
		return errors.New("workflow.workers must be at least 1")
	}
	if c.Workflow.TotalShards < 1 {
		return errors.New("workflow.total_shards must be at least 1")
	}
	if c.Workflow.ShardIndex < 0 || c.Workflow.ShardIndex >= c.Workflow.TotalShards {
		return fmt.Errorf("workflow.shard_index must be between 0 and %d, got %d", c.Workflow.TotalShards-1, c.Workflow.ShardIndex)
	}
	return nil
}

func (c *Config) validateState() error {
	switch c.State.Backend {
	case StateBackendJSON, StateBackendSQLite:
		return nil
	default:
		return fmt.Errorf("state.backend: unsupported value %q (want %q or %q)", c.State.Backend, StateBackendJSON, StateBackendSQLite)
	}
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
