// Package main provides the vaultpipe binary entry point. Vaultpipe
// ingests web pages, local files, and media into an Obsidian-style
// knowledge vault with caching, SSRF-safe fetching, and citation
// tracking.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaultpipe/vaultpipe/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "vaultpipe"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	vaultRoot  string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Knowledge vault ingestion toolkit",
		Long: `Vaultpipe turns web pages, local files, and media into notes in an
Obsidian-style vault.

It provides:
- Cached, rate-paced web fetching with an archive fallback
- SSRF-safe URL validation for every outbound request
- Media download, video transcripts, and audio transcription
- Citation tracking in note frontmatter`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(flags.logLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.vaultRoot, "vault", "", "Vault root directory (overrides config)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		fetchCmd(flags),
		ingestCmd(flags),
		localCmd(flags),
		mediaCmd(flags),
		transcriptCmd(),
		watchCmd(flags),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadConfig resolves the layered configuration, applying CLI flag
// overrides on top.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if flags.configPath != "" {
		cfg, err = config.LoadFromFile(flags.configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	} else {
		loader := config.NewLoader(slog.Default())
		if err := loader.EnsureUserConfig(); err != nil {
			slog.Warn("could not create user config", slog.String("error", err.Error()))
		}
		cfg, err = loader.Load()
		if err != nil {
			return nil, err
		}
	}

	if flags.vaultRoot != "" {
		cfg.Vault.Root = flags.vaultRoot
	}

	return cfg, nil
}
