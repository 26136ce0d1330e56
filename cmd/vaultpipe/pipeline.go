package main

import (
	"log/slog"

	"github.com/vaultpipe/vaultpipe/config"
	"github.com/vaultpipe/vaultpipe/fetch"
	"github.com/vaultpipe/vaultpipe/ingest"
	"github.com/vaultpipe/vaultpipe/llm"
	"github.com/vaultpipe/vaultpipe/media"
	"github.com/vaultpipe/vaultpipe/weburl"
)

// buildProcessor assembles the fetch pipeline from configuration:
// validator, reader, archive fallback, cache, and pacer.
func buildProcessor(cfg *config.Config) *fetch.Processor {
	logger := slog.Default()
	validator := &weburl.Validator{}

	reader := fetch.NewReaderClient(cfg.Fetch.ReaderURL, cfg.ReaderKey(), cfg.Fetch.Timeout, validator)
	archive := fetch.NewArchiveClient(cfg.Fetch.ArchiveURL, 0)
	strategy := fetch.NewStrategy(validator, reader, archive, logger)

	cache := fetch.NewCache(cfg.Fetch.CacheDir, logger)
	pacer := fetch.NewPacer(cfg.Fetch.PaceInterval)

	return fetch.NewProcessor(cache, strategy, pacer,
		fetch.WithTTL(cfg.Fetch.CacheTTL),
		fetch.WithMaxContentChars(cfg.Fetch.MaxContentChars),
		fetch.WithMetrics(fetch.NewMetrics()),
		fetch.WithLogger(logger))
}

// buildIngester layers the note-writing pipeline on the fetch
// processor, with optional media handling and summarization.
func buildIngester(cfg *config.Config, withMedia bool) *ingest.Ingester {
	logger := slog.Default()
	validator := &weburl.Validator{}
	processor := buildProcessor(cfg)

	var pipeline *media.Pipeline
	if withMedia && cfg.Media.Enabled {
		downloader := media.NewDownloader(cfg.Fetch.Timeout, cfg.Media.MaxDownloadBytes, validator)

		var youtube *media.YouTubeClient
		if cfg.Media.YouTube {
			yt, err := media.NewYouTubeClient(downloader)
			if err != nil {
				logger.Warn("yt-dlp unavailable, skipping video processing",
					slog.String("error", err.Error()))
			} else {
				youtube = yt
			}
		}

		pipeline = media.NewPipeline(downloader, youtube, cfg.AttachmentsPath(), cfg.Vault.Root, logger)
	}

	ing := ingest.NewIngester(processor, pipeline, cfg.NotesPath(), logger)

	if cfg.Summary.Enabled {
		ing.SetSummarizer(llm.NewClient(cfg.Summary.Endpoint, cfg.SummaryKey(), cfg.Summary.Model))
	}

	return ing
}

// reportOutcome logs the batch outcome.
func reportOutcome(records []ingest.NoteRecord, failures []fetch.Failure) {
	for _, f := range failures {
		slog.Warn("ingest failed",
			slog.String("source", f.URL),
			slog.String("error", f.Err))
	}
	slog.Info("ingest complete",
		slog.Int("notes", len(records)),
		slog.Int("failures", len(failures)))
}
