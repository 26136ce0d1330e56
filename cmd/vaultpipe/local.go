package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func localCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "local PATTERN...",
		Short: "Ingest local files as vault notes",
		Long: `Local ingests files matching the given paths or glob patterns
(** is supported). Markdown and text become notes directly, HTML is
converted, subtitle files are stripped to plain text, and audio is
copied into the attachment area and transcribed when whisper is
installed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			ing := buildIngester(cfg, false)
			records, failures := ing.IngestLocal(cmd.Context(), args,
				cfg.AttachmentsPath(), cfg.Vault.Root, cfg.Media.WhisperModel)
			reportOutcome(records, failures)

			for _, rec := range records {
				fmt.Printf("wrote %s\n", rec.Path)
			}

			if len(records) == 0 && len(failures) > 0 {
				return fmt.Errorf("all %d ingests failed", len(failures))
			}
			return nil
		},
	}

	return cmd
}
