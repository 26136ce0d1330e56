package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vaultpipe/vaultpipe/media"
	"github.com/vaultpipe/vaultpipe/vault"
	"github.com/vaultpipe/vaultpipe/weburl"
)

var noteDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

func mediaCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media NOTE...",
		Short: "Download embedded media for existing notes",
		Long: `Media runs the media pass over existing vault notes: embedded images
are downloaded into the attachment area, the note is rewritten to
reference the local copies, and citations are added to its
frontmatter and Sources section.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			logger := slog.Default()
			validator := &weburl.Validator{}
			downloader := media.NewDownloader(cfg.Fetch.Timeout, cfg.Media.MaxDownloadBytes, validator)

			var youtube *media.YouTubeClient
			if cfg.Media.YouTube {
				if yt, ytErr := media.NewYouTubeClient(downloader); ytErr == nil {
					youtube = yt
				} else {
					logger.Warn("yt-dlp unavailable, skipping video processing",
						slog.String("error", ytErr.Error()))
				}
			}

			pipeline := media.NewPipeline(downloader, youtube, cfg.AttachmentsPath(), cfg.Vault.Root, logger)

			var failed int
			for _, notePath := range args {
				if err := processNoteMedia(cmd, pipeline, notePath); err != nil {
					logger.Warn("media pass failed",
						slog.String("note", notePath),
						slog.String("error", err.Error()))
					failed++
					continue
				}
				fmt.Printf("updated %s\n", notePath)
			}

			if failed == len(args) {
				return fmt.Errorf("all %d notes failed", failed)
			}
			return nil
		},
	}

	return cmd
}

func processNoteMedia(cmd *cobra.Command, pipeline *media.Pipeline, notePath string) error {
	raw, err := os.ReadFile(notePath)
	if err != nil {
		return fmt.Errorf("read note: %w", err)
	}

	frontmatter, body := vault.SplitFrontmatter(string(raw))
	stem := strings.TrimSuffix(filepath.Base(notePath), ".md")
	// Note filenames are date-prefixed; the attachment namespace is not
	stem = noteDateRe.ReplaceAllString(stem, "")
	slug := vault.Slugify(stem)

	body, citations := pipeline.Process(cmd.Context(), body, slug, noteSourceURL(frontmatter))
	if len(citations) == 0 {
		return nil
	}

	frontmatter, body, err = media.Decorate(frontmatter, body, citations)
	if err != nil {
		return err
	}

	return vault.WriteRaw(notePath, frontmatter+"\n"+strings.TrimLeft(body, "\n"))
}

// noteSourceURL pulls source_url out of a note's frontmatter so
// relative media references resolve against the original page.
func noteSourceURL(frontmatter string) string {
	inner := strings.TrimSpace(frontmatter)
	inner = strings.TrimPrefix(inner, "---")
	inner = strings.TrimSuffix(inner, "---")

	var meta struct {
		SourceURL string `yaml:"source_url"`
	}
	if err := yaml.Unmarshal([]byte(inner), &meta); err != nil {
		return ""
	}
	return meta.SourceURL
}
