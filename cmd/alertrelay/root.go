package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"vidnorm/internal/alertrelay"
	"vidnorm/internal/config"
	"vidnorm/internal/logging"
	"vidnorm/internal/preflight"
)

func newRootCommand() *cobra.Command {
	var configPath, bind string

	rootCmd := &cobra.Command{
		Use:           "alertrelay",
		Short:         "Relay Alertmanager webhooks to ntfy with generated text",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, _, err := config.Parse(configPath)
			if err != nil {
				return err
			}
			if value := strings.TrimSpace(bind); value != "" {
				cfg.Relay.Bind = value
			}
			if err := cfg.Finalize(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return serve(cmd, cfg, logger)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "Configuration file path")
	rootCmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides relay.bind; RELAY_BIND still wins)")
	return rootCmd
}

func serve(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if result := preflight.CheckEndpoint(ctx, "Ollama", cfg.Relay.OllamaURL, "/api/tags"); !result.Passed {
		logging.WarnWithContext(logger, "ollama not reachable; alerts will use fallback text until it is", "relay_preflight_failed",
			logging.String("url", cfg.Relay.OllamaURL),
			logging.String("detail", result.Detail),
		)
	}

	logger.Info("alert relay starting",
		logging.String("ollama_url", cfg.Relay.OllamaURL),
		logging.String("model", cfg.Relay.OllamaModel),
		logging.String("ntfy_url", cfg.Relay.NtfyURL),
	)
	if err := alertrelay.NewServer(cfg, logger).Run(ctx); err != nil {
		logger.Error("alert relay stopped", logging.Error(err))
		return fmt.Errorf("alert relay: %w", err)
	}
	logger.Info("alert relay shut down")
	return nil
}
