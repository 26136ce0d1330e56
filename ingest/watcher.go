package ingest

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaultpipe/vaultpipe/fetch"
	"github.com/vaultpipe/vaultpipe/vault"
)

// DefaultDebounce is how long the watcher waits for a file to settle
// before ingesting it. Editors and downloads write in bursts.
const DefaultDebounce = 500 * time.Millisecond

// WatcherConfig configures drop-folder watching.
type WatcherConfig struct {
	DropDir         string
	AttachmentsRoot string
	VaultRoot       string
	WhisperModel    string
	Debounce        time.Duration
	MetricsAddr     string
}

// Watcher ingests files dropped into a watched directory. Each settled
// file becomes a vault note; .url list files are fetched through the
// web pipeline instead. Files already ingested are skipped by content
// hash so editor double-writes do not produce duplicates.
type Watcher struct {
	config   WatcherConfig
	ingester *Ingester
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]time.Time

	hashMu sync.Mutex
	hashes map[string]string
}

var (
	watchIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultpipe_watch_ingested_total",
		Help: "Files ingested by the drop-folder watcher.",
	})
	watchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultpipe_watch_errors_total",
		Help: "Drop-folder ingest failures.",
	})
)

// NewWatcher creates a drop-folder watcher.
func NewWatcher(config WatcherConfig, ingester *Ingester, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}

	return &Watcher{
		config:   config,
		ingester: ingester,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]time.Time),
		hashes:   make(map[string]string),
	}, nil
}

// Run watches the drop directory until ctx is cancelled. When
// MetricsAddr is set, a Prometheus endpoint is served at /metrics for
// the lifetime of the watch.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.config.DropDir, 0o755); err != nil {
		return err
	}
	if err := w.watcher.Add(w.config.DropDir); err != nil {
		return err
	}
	defer w.watcher.Close()

	if w.config.MetricsAddr != "" {
		w.serveMetrics(ctx)
	}

	w.logger.Info("watching drop folder",
		slog.String("dir", w.config.DropDir),
		slog.Duration("debounce", w.config.Debounce))

	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.flushSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}
	// Judge by name only; the file may still be mid-write. Existence is
	// checked when the settled file is read.
	if !isURLList(event.Name) && !vault.IsIngestableName(event.Name) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = time.Now()
	w.pendingMu.Unlock()
}

// isURLList reports whether path names a dropped link-list file.
func isURLList(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".url", ".urls":
		return true
	}
	return false
}

// flushSettled ingests pending files that have stopped changing for a
// full debounce window.
func (w *Watcher) flushSettled(ctx context.Context) {
	cutoff := time.Now().Add(-w.config.Debounce)

	w.pendingMu.Lock()
	var settled []string
	for path, last := range w.pending {
		if last.Before(cutoff) {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, path := range settled {
		select {
		case <-ctx.Done():
			return
		default:
		}
		w.ingestOne(ctx, path)
	}
}

func (w *Watcher) ingestOne(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("drop file unreadable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return
	}

	hash := fetch.ContentDigest(string(content))
	w.hashMu.Lock()
	unchanged := w.hashes[path] == hash
	w.hashes[path] = hash
	w.hashMu.Unlock()
	if unchanged {
		return
	}

	var records []NoteRecord
	var failures []fetch.Failure
	if isURLList(path) {
		urls := ParseURLList(string(content))
		if len(urls) == 0 {
			w.logger.Warn("dropped URL list is empty", slog.String("file", path))
			return
		}
		records, failures = w.ingester.Ingest(ctx, urls)
	} else {
		records, failures = w.ingester.IngestLocal(ctx, []string{path},
			w.config.AttachmentsRoot, w.config.VaultRoot, w.config.WhisperModel)
	}

	for _, rec := range records {
		watchIngested.Inc()
		w.logger.Info("drop file ingested",
			slog.String("file", path),
			slog.String("note", rec.Path))
	}
	for _, f := range failures {
		watchErrors.Inc()
		w.logger.Warn("drop file ingest failed",
			slog.String("file", f.URL),
			slog.String("error", f.Err))
	}
}

func (w *Watcher) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: w.config.MetricsAddr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			w.logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	w.logger.Info("metrics endpoint up", slog.String("addr", w.config.MetricsAddr))
}
