package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultpipe/vaultpipe/transcript"
)

func transcriptCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "transcript FILE",
		Short: "Strip a subtitle file to plain text",
		Long: `Transcript converts a WebVTT or SRT subtitle file to plain text:
timestamps, cue numbers, and formatting tags are removed and
repeated caption lines are collapsed. Output goes to stdout unless
--out is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read subtitle file: %w", err)
			}

			text := transcript.Normalize(args[0], string(raw))

			if outPath == "" {
				fmt.Println(text)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(text+"\n"), 0o644); err != nil {
				return fmt.Errorf("write transcript: %w", err)
			}
			fmt.Printf("wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write output to a file instead of stdout")

	return cmd
}
