package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidnorm/internal/config"
)

type commandContext struct {
	configFlag *string
	flags      *runFlags
}

func newCommandContext(configFlag *string, flags *runFlags) *commandContext {
	return &commandContext{configFlag: configFlag, flags: flags}
}

// loadConfig reads the config file, layers set flags on top, then applies
// environment overrides and validates the result.
func (c *commandContext) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.flags != nil && cmd.Flags().Lookup("dry-run") != nil {
		c.flags.apply(cmd, cfg)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
