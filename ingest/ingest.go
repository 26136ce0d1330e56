// Package ingest turns sources into vault notes: fetched web pages,
// local files, and transcribed audio all flow through here on their
// way into the knowledge base.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vaultpipe/vaultpipe/convert"
	"github.com/vaultpipe/vaultpipe/fetch"
	"github.com/vaultpipe/vaultpipe/media"
	"github.com/vaultpipe/vaultpipe/transcript"
	"github.com/vaultpipe/vaultpipe/vault"
)

// NoteRecord describes one note written to the vault.
type NoteRecord struct {
	Source      string
	Path        string
	Title       string
	CacheHit    bool
	FetchMethod fetch.Method
	WordCount   int
}

// Summarizer produces a short prose summary of a document.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
}

// Ingester drives the source-to-note pipeline. The media pipeline and
// summarizer are optional; without them, notes keep their remote
// references and carry no summary section.
type Ingester struct {
	processor  *fetch.Processor
	media      *media.Pipeline
	converter  *convert.Converter
	summarizer Summarizer
	notesDir   string
	logger     *slog.Logger
}

// NewIngester creates an ingester writing notes into notesDir.
func NewIngester(processor *fetch.Processor, mediaPipeline *media.Pipeline, notesDir string, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		processor: processor,
		media:     mediaPipeline,
		converter: convert.NewConverter(),
		notesDir:  notesDir,
		logger:    logger,
	}
}

// SetSummarizer enables summary generation for fetched notes.
func (ing *Ingester) SetSummarizer(s Summarizer) {
	ing.summarizer = s
}

// Ingest fetches every URL and writes one note per successful fetch.
// Fetch failures are returned alongside the written notes; a note
// write failure is reported as a failure for that URL.
func (ing *Ingester) Ingest(ctx context.Context, urls []string) ([]NoteRecord, []fetch.Failure) {
	requests := make([]fetch.Request, 0, len(urls))
	for _, u := range urls {
		requests = append(requests, fetch.Request{URL: u})
	}

	results, failures := ing.processor.Process(ctx, requests)

	var records []NoteRecord
	for _, res := range results {
		record, err := ing.writeFetched(ctx, res)
		if err != nil {
			ing.logger.Warn("note write failed",
				slog.String("url", res.URL),
				slog.String("error", err.Error()))
			failures = append(failures, fetch.Failure{URL: res.URL, Err: err.Error()})
			continue
		}
		records = append(records, record)
	}

	return records, failures
}

func (ing *Ingester) writeFetched(ctx context.Context, res fetch.Result) (NoteRecord, error) {
	title := res.Title
	if title == "" {
		title = res.URL
	}
	slug := vault.Slugify(title)

	body := res.Content
	var citations []media.Citation
	if ing.media != nil {
		body, citations = ing.media.Process(ctx, body, slug, res.URL)
	}

	if ing.summarizer != nil {
		summary, err := ing.summarizer.Summarize(ctx, title, body)
		if err != nil {
			ing.logger.Warn("summary failed",
				slog.String("url", res.URL),
				slog.String("error", err.Error()))
		} else if summary != "" {
			body = "## Summary\n\n" + summary + "\n\n" + body
		}
	}

	fm := vault.NewFrontmatter(title, res.URL)
	fm.FetchMethod = string(res.FetchMethod)
	fm.WordCount = res.WordCount

	rendered, err := fm.Render()
	if err != nil {
		return NoteRecord{}, err
	}

	if len(citations) > 0 {
		rendered, body, err = media.Decorate(rendered, body, citations)
		if err != nil {
			return NoteRecord{}, err
		}
	}

	path := vault.UniqueNotePath(ing.notesDir, vault.NoteDate(time.Now()), slug)
	if err := vault.WriteRaw(path, rendered+"\n"+strings.TrimLeft(body, "\n")); err != nil {
		return NoteRecord{}, err
	}

	ing.logger.Info("note written",
		slog.String("url", res.URL),
		slog.String("path", path),
		slog.Bool("cache_hit", res.CacheHit))

	return NoteRecord{
		Source:      res.URL,
		Path:        path,
		Title:       title,
		CacheHit:    res.CacheHit,
		FetchMethod: res.FetchMethod,
		WordCount:   res.WordCount,
	}, nil
}

// IngestLocal discovers local files matching the patterns and writes
// one note per file. Audio files are copied into the attachment area
// and transcribed when a transcriber is available; subtitle files are
// stripped to plain text; HTML is converted to markdown.
func (ing *Ingester) IngestLocal(ctx context.Context, patterns []string, attachmentsRoot, vaultRoot, whisperModel string) ([]NoteRecord, []fetch.Failure) {
	files, err := vault.Discover(patterns)
	if err != nil {
		return nil, []fetch.Failure{{URL: strings.Join(patterns, " "), Err: err.Error()}}
	}

	var records []NoteRecord
	var failures []fetch.Failure
	for _, file := range files {
		record, err := ing.ingestFile(ctx, file, attachmentsRoot, vaultRoot, whisperModel)
		if err != nil {
			ing.logger.Warn("local ingest failed",
				slog.String("file", file),
				slog.String("error", err.Error()))
			failures = append(failures, fetch.Failure{URL: file, Err: err.Error()})
			continue
		}
		records = append(records, record)
	}

	return records, failures
}

func (ing *Ingester) ingestFile(ctx context.Context, file, attachmentsRoot, vaultRoot, whisperModel string) (NoteRecord, error) {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	if vault.IsAudio(file) {
		return ing.ingestAudio(ctx, file, stem, attachmentsRoot, vaultRoot, whisperModel)
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return NoteRecord{}, fmt.Errorf("read source: %w", err)
	}

	title := stem
	var body string

	switch strings.ToLower(filepath.Ext(file)) {
	case ".html", ".htm":
		result, err := ing.converter.Convert(raw, "")
		if err != nil {
			return NoteRecord{}, err
		}
		if result.Title != "" {
			title = result.Title
		}
		body = result.Markdown
	case ".vtt", ".srt":
		body = transcript.Normalize(file, string(raw))
	default:
		// Existing frontmatter in the source is replaced with fresh
		// metadata on write
		_, body = vault.SplitFrontmatter(string(raw))
		body = strings.TrimSpace(body)
		if h := firstMarkdownHeading(body); h != "" {
			title = h
		}
	}

	return ing.writeLocal(file, title, body)
}

func (ing *Ingester) ingestAudio(ctx context.Context, file, stem, attachmentsRoot, vaultRoot, whisperModel string) (NoteRecord, error) {
	slug := vault.Slugify(stem)
	res, err := media.ProcessAudio(ctx, file, attachmentsRoot, slug, vaultRoot, whisperModel)
	if err != nil {
		return NoteRecord{}, err
	}

	body := "![[" + res.Citation.LocalPath + "]]\n"
	if res.Transcript != "" {
		body += "\n## Transcript\n\n" + strings.TrimSpace(res.Transcript) + "\n"
	}

	fm := vault.NewFrontmatter(stem, res.Citation.SourceURL)
	rendered, err := fm.Render()
	if err != nil {
		return NoteRecord{}, err
	}
	rendered, body, err = media.Decorate(rendered, body, []media.Citation{res.Citation})
	if err != nil {
		return NoteRecord{}, err
	}

	path := vault.UniqueNotePath(ing.notesDir, vault.NoteDate(time.Now()), slug)
	if err := vault.WriteRaw(path, rendered+"\n"+strings.TrimLeft(body, "\n")); err != nil {
		return NoteRecord{}, err
	}

	return NoteRecord{
		Source:    file,
		Path:      path,
		Title:     stem,
		WordCount: len(strings.Fields(res.Transcript)),
	}, nil
}

func (ing *Ingester) writeLocal(file, title, body string) (NoteRecord, error) {
	slug := vault.Slugify(title)
	fm := vault.NewFrontmatter(title, "")
	fm.WordCount = len(strings.Fields(body))

	path := vault.UniqueNotePath(ing.notesDir, vault.NoteDate(time.Now()), slug)
	if err := vault.WriteNote(path, fm, body); err != nil {
		return NoteRecord{}, err
	}

	ing.logger.Info("note written",
		slog.String("file", file),
		slog.String("path", path))

	return NoteRecord{
		Source:    file,
		Path:      path,
		Title:     title,
		WordCount: fm.WordCount,
	}, nil
}

// ParseURLList extracts URLs from link-list content: one URL per
// line, blank lines and # comments skipped.
func ParseURLList(content string) []string {
	var urls []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}

func firstMarkdownHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
