package fetch

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// DefaultMaxContentChars is the content size ceiling, in characters,
// applied to every emitted result and persisted entry.
const DefaultMaxContentChars = 50000

// Request is one URL to fetch. Meta is carried through to the result
// unchanged; the orchestrator never interprets it.
type Request struct {
	URL  string
	Meta map[string]string
}

// Result is emitted for every request that resolved, whether from the
// cache or the network.
type Result struct {
	URL         string
	Title       string
	Content     string
	FetchMethod Method
	CacheHit    bool
	FetchedAt   time.Time
	WordCount   int
	Meta        map[string]string
}

// Failure is emitted for every request that exhausted all retrieval
// methods. Attempts lists the methods tried, in order; it is empty
// when validation blocked the URL before any method ran.
type Failure struct {
	URL      string
	Err      string
	Attempts []Method
}

// Processor orchestrates batch fetching: cache consultation, rate
// limited retrieval on misses, and partitioning of outcomes. Per-item
// failures never abort a batch: every deduplicated request is
// accounted for in exactly one of the two output lists.
type Processor struct {
	cache    *Cache
	strategy *Strategy
	pacer    *Pacer
	ttl      time.Duration
	maxChars int
	metrics  *Metrics
	logger   *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithTTL overrides the cache freshness window.
func WithTTL(ttl time.Duration) ProcessorOption {
	return func(p *Processor) { p.ttl = ttl }
}

// WithMaxContentChars overrides the content size ceiling.
func WithMaxContentChars(n int) ProcessorOption {
	return func(p *Processor) { p.maxChars = n }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *Metrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logger }
}

// NewProcessor creates a batch fetch processor.
func NewProcessor(cache *Cache, strategy *Strategy, pacer *Pacer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		cache:    cache,
		strategy: strategy,
		pacer:    pacer,
		ttl:      DefaultTTL,
		maxChars: DefaultMaxContentChars,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NormalizeURL produces the identity used for request deduplication:
// lowercased, trailing slashes stripped. Cache keys deliberately do
// not use this form.
func NormalizeURL(url string) string {
	return strings.ToLower(strings.TrimRight(url, "/"))
}

// Dedupe removes duplicate requests by normalized URL. The first
// occurrence wins and input order is preserved. Deduplicating twice
// yields the same list as deduplicating once.
func Dedupe(requests []Request) []Request {
	seen := make(map[string]bool, len(requests))
	result := make([]Request, 0, len(requests))
	for _, req := range requests {
		key := NormalizeURL(req.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, req)
	}
	return result
}

// Process fetches every request, consulting the cache first and the
// retrieval strategy on misses. Requests are deduplicated up front and
// processed strictly in input order; the pacer spaces network fetches
// but never cache hits.
func (p *Processor) Process(ctx context.Context, requests []Request) ([]Result, []Failure) {
	requests = Dedupe(requests)

	results := make([]Result, 0, len(requests))
	failures := make([]Failure, 0)

	for _, req := range requests {
		key := Key(req.URL)

		entry, outcome := p.cache.Get(key)
		if outcome == ReadIntegrityFailure && p.metrics != nil {
			p.metrics.IntegrityFailTotal.Inc()
		}
		if outcome == ReadHit && !IsExpired(entry, p.ttl) {
			content := Truncate(entry.Content, p.maxChars)
			results = append(results, Result{
				URL:         req.URL,
				Title:       entry.Title,
				Content:     content,
				FetchMethod: entry.FetchMethod,
				CacheHit:    true,
				FetchedAt:   entry.FetchedAt,
				WordCount:   len(strings.Fields(content)),
				Meta:        req.Meta,
			})
			if p.metrics != nil {
				p.metrics.CacheHitsTotal.Inc()
			}
			continue
		}

		if err := p.pacer.Wait(ctx); err != nil {
			failures = append(failures, Failure{URL: req.URL, Err: err.Error()})
			continue
		}

		res, err := p.strategy.Resolve(ctx, req.URL)
		if err != nil {
			p.logger.Warn("fetch failed",
				slog.String("url", req.URL),
				slog.String("error", err.Error()))
			failures = append(failures, Failure{
				URL:      req.URL,
				Err:      err.Error(),
				Attempts: attemptsOf(err),
			})
			if p.metrics != nil {
				p.metrics.FailuresTotal.Inc()
			}
			continue
		}

		content := Truncate(res.Content, p.maxChars)
		now := time.Now().UTC()

		if err := p.cache.Put(key, Entry{
			URL:         req.URL,
			Title:       res.Title,
			Content:     content,
			FetchMethod: res.Method,
			FetchedAt:   now,
		}); err != nil {
			// A cache write failure degrades to an uncached fetch
			p.logger.Warn("cache write failed",
				slog.String("url", req.URL),
				slog.String("error", err.Error()))
		}

		results = append(results, Result{
			URL:         req.URL,
			Title:       res.Title,
			Content:     content,
			FetchMethod: res.Method,
			CacheHit:    false,
			FetchedAt:   now,
			WordCount:   len(strings.Fields(content)),
			Meta:        req.Meta,
		})
		if p.metrics != nil {
			p.metrics.FetchesTotal.WithLabelValues(string(res.Method)).Inc()
		}
	}

	return results, failures
}

// attemptsOf extracts the attempted-method trail from a resolve error.
func attemptsOf(err error) []Method {
	if ex, ok := err.(*ExhaustedError); ok {
		return ex.Attempts
	}
	return nil
}

// Truncate limits content to at most n characters (runes, not bytes,
// so multibyte text is never cut mid-character).
func Truncate(content string, n int) string {
	if n <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n])
}
