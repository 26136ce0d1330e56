package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaultpipe/vaultpipe/fetch"
)

// fetchResult is the JSON shape printed per URL in machine output.
type fetchResult struct {
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Content     string    `json:"content,omitempty"`
	FetchMethod string    `json:"fetch_method,omitempty"`
	CacheHit    bool      `json:"cache_hit"`
	FetchedAt   time.Time `json:"fetched_at,omitempty"`
	WordCount   int       `json:"word_count,omitempty"`
	Error       string    `json:"error,omitempty"`
}

func fetchCmd(flags *rootFlags) *cobra.Command {
	var (
		asJSON  bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "fetch URL...",
		Short: "Fetch URLs into the content cache",
		Long: `Fetch retrieves each URL through the reader service (falling back to
an archive snapshot), caches the content, and prints the outcome. It
writes no notes; use ingest for that.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if noCache {
				cfg.Fetch.CacheTTL = 1 // Everything on disk counts as stale
			}

			processor := buildProcessor(cfg)

			requests := make([]fetch.Request, 0, len(args))
			for _, u := range args {
				requests = append(requests, fetch.Request{URL: u})
			}

			results, failures := processor.Process(cmd.Context(), requests)

			if asJSON {
				return printJSON(results, failures)
			}

			for _, res := range results {
				origin := "network"
				if res.CacheHit {
					origin = "cache"
				}
				fmt.Printf("ok    %-7s %-8s %6d words  %s\n", origin, res.FetchMethod, res.WordCount, res.URL)
			}
			for _, f := range failures {
				fmt.Printf("fail  %s  (%s)\n", f.URL, f.Err)
			}

			if len(failures) > 0 && len(results) == 0 {
				return fmt.Errorf("all %d fetches failed", len(failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass cached content and refetch")

	return cmd
}

func printJSON(results []fetch.Result, failures []fetch.Failure) error {
	out := make([]fetchResult, 0, len(results)+len(failures))
	for _, res := range results {
		out = append(out, fetchResult{
			URL:         res.URL,
			Title:       res.Title,
			Content:     res.Content,
			FetchMethod: string(res.FetchMethod),
			CacheHit:    res.CacheHit,
			FetchedAt:   res.FetchedAt,
			WordCount:   res.WordCount,
		})
	}
	for _, f := range failures {
		out = append(out, fetchResult{URL: f.URL, Error: f.Err})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
