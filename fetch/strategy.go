package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vaultpipe/vaultpipe/weburl"
)

// Method identifies how a URL's content was retrieved.
type Method string

const (
	// MethodReader is the primary retrieval path through the
	// reader/extraction service.
	MethodReader Method = "reader"

	// MethodArchive is the fallback path through an archived snapshot.
	MethodArchive Method = "archive"
)

// Resolution is the normalized output of a successful retrieval.
type Resolution struct {
	URL     string
	Title   string
	Content string
	Method  Method
}

// ExhaustedError reports that every retrieval method failed for a URL.
// Attempts records the methods tried, in order. The individual errors
// are logged by the strategy rather than wrapped here; callers only
// need the aggregate outcome.
type ExhaustedError struct {
	URL      string
	Attempts []Method
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all fetch methods failed for %s", e.URL)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// URLValidator checks an outbound fetch target for SSRF safety.
// *weburl.Validator is the production implementation.
type URLValidator interface {
	Validate(rawURL string) error
}

// ContentFetcher retrieves a markdown rendition of a URL.
type ContentFetcher interface {
	Fetch(ctx context.Context, target string) (content, title string, err error)
}

// SnapshotFinder locates an archived snapshot of a URL.
type SnapshotFinder interface {
	Lookup(ctx context.Context, target string) (string, error)
}

// Strategy resolves a URL to content through a two-state machine:
//
//	Primary:  validate, then fetch through the reader service
//	Fallback: look up an archive snapshot and fetch that instead
//
// Validation failure is terminal: a blocked destination is blocked for
// every method, so it transitions straight to Failed without touching
// the fallback. Only transient fetch failures (timeouts, non-2xx,
// connection errors) move the machine from Primary to Fallback.
type Strategy struct {
	validator URLValidator
	reader    ContentFetcher
	archive   SnapshotFinder
	logger    *slog.Logger
}

// NewStrategy creates a retrieval strategy.
func NewStrategy(validator URLValidator, reader ContentFetcher, archive SnapshotFinder, logger *slog.Logger) *Strategy {
	if validator == nil {
		validator = &weburl.Validator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Strategy{
		validator: validator,
		reader:    reader,
		archive:   archive,
		logger:    logger,
	}
}

// Resolve runs the state machine for one URL. It returns a Resolution
// on success, a typed weburl error when validation blocks the URL, or
// an *ExhaustedError when both methods fail.
func (s *Strategy) Resolve(ctx context.Context, target string) (*Resolution, error) {
	// Security gate: runs once, ahead of every method
	if err := s.validator.Validate(target); err != nil {
		return nil, err
	}

	// State: Primary
	content, title, err := s.reader.Fetch(ctx, target)
	if err == nil {
		return &Resolution{URL: target, Title: title, Content: content, Method: MethodReader}, nil
	}
	s.logger.Debug("primary fetch failed, trying archive fallback",
		slog.String("url", target),
		slog.String("error", err.Error()))

	// State: Fallback
	res, ferr := s.resolveFallback(ctx, target)
	if ferr == nil {
		return res, nil
	}
	s.logger.Warn("archive fallback failed",
		slog.String("url", target),
		slog.String("error", ferr.Error()))

	return nil, &ExhaustedError{
		URL:      target,
		Attempts: []Method{MethodReader, MethodArchive},
		Last:     ferr,
	}
}

func (s *Strategy) resolveFallback(ctx context.Context, target string) (*Resolution, error) {
	snapshotURL, err := s.archive.Lookup(ctx, target)
	if err != nil {
		return nil, err
	}

	// The snapshot URL comes from an external service; validate it so
	// the archive cannot be used as an SSRF relay.
	if err := s.validator.Validate(snapshotURL); err != nil {
		return nil, err
	}

	content, title, err := s.reader.Fetch(ctx, snapshotURL)
	if err != nil {
		return nil, err
	}

	return &Resolution{URL: target, Title: title, Content: content, Method: MethodArchive}, nil
}
