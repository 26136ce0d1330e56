package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultpipe/vaultpipe/ingest"
)

func ingestCmd(flags *rootFlags) *cobra.Command {
	var (
		fromFile  string
		noMedia   bool
		summarize bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [URL...]",
		Short: "Fetch URLs and write them as vault notes",
		Long: `Ingest fetches each URL, downloads embedded media into the vault's
attachment area, and writes one note per page with frontmatter and
citations. URLs can also be read from a file, one per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if fromFile != "" {
				fileURLs, err := readURLFile(fromFile)
				if err != nil {
					return err
				}
				urls = append(urls, fileURLs...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given; pass them as arguments or via --from-file")
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if summarize {
				cfg.Summary.Enabled = true
			}

			ing := buildIngester(cfg, !noMedia)
			records, failures := ing.Ingest(cmd.Context(), urls)
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

	cmd.Flags().StringVar(&fromFile, "from-file", "", "Read URLs from a file, one per line")
	cmd.Flags().BoolVar(&noMedia, "no-media", false, "Skip media download and rewriting")
	cmd.Flags().BoolVar(&summarize, "summarize", false, "Add an LLM-generated summary section")

	return cmd
}

// readURLFile reads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read URL file: %w", err)
	}
	return ingest.ParseURLList(string(data)), nil
}
