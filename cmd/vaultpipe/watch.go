package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vaultpipe/vaultpipe/ingest"
)

func watchCmd(flags *rootFlags) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault inbox and ingest dropped files",
		Long: `Watch monitors the vault's drop directory and ingests every file
that lands there, the same way the local command would. It runs until
interrupted. When a metrics address is configured, Prometheus
counters are served at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				cfg.Watch.MetricsAddr = metricsAddr
			}

			ing := buildIngester(cfg, false)
			watcher, err := ingest.NewWatcher(ingest.WatcherConfig{
				DropDir:         cfg.DropPath(),
				AttachmentsRoot: cfg.AttachmentsPath(),
				VaultRoot:       cfg.Vault.Root,
				WhisperModel:    cfg.Media.WhisperModel,
				Debounce:        cfg.Watch.Debounce,
				MetricsAddr:     cfg.Watch.MetricsAddr,
			}, ing, slog.Default())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = watcher.Run(ctx)
			if errors.Is(err, context.Canceled) {
				slog.Info("watch stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}
