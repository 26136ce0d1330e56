package fetch

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T, reader *fakeReader, archive *fakeArchive, opts ...ProcessorOption) (*Processor, *Cache) {
	t.Helper()
	cache := NewCache(t.TempDir(), nil)
	strategy := NewStrategy(allowAll{}, reader, archive, nil)
	pacer := NewPacer(0) // no pacing delays in tests
	return NewProcessor(cache, strategy, pacer, opts...), cache
}

func TestDedupe(t *testing.T) {
	requests := []Request{
		{URL: "https://example.com/a"},
		{URL: "https://EXAMPLE.com/a/"},
		{URL: "https://example.com/b"},
		{URL: "https://example.com/a"},
	}

	deduped := Dedupe(requests)
	require.Len(t, deduped, 2)
	// First occurrence wins, input order preserved
	assert.Equal(t, "https://example.com/a", deduped[0].URL)
	assert.Equal(t, "https://example.com/b", deduped[1].URL)

	// Idempotence
	assert.Equal(t, deduped, Dedupe(deduped))
}

func TestProcessServesFreshEntriesFromCache(t *testing.T) {
	reader := &fakeReader{}
	archive := &fakeArchive{}
	p, cache := newTestProcessor(t, reader, archive)

	url := "https://example.com/a"
	require.NoError(t, cache.Put(Key(url), Entry{
		URL:         url,
		Title:       "Cached A",
		Content:     "cached words here",
		FetchMethod: MethodReader,
		FetchedAt:   time.Now().UTC(),
	}))

	results, failures := p.Process(context.Background(), []Request{{URL: url}})
	require.Len(t, results, 1)
	require.Empty(t, failures)

	assert.True(t, results[0].CacheHit)
	assert.Equal(t, "Cached A", results[0].Title)
	assert.Equal(t, 3, results[0].WordCount)
	// Zero network calls for a fresh hit
	assert.Empty(t, reader.calls)
	assert.Empty(t, archive.calls)
}

func TestProcessRefetchesExpiredEntries(t *testing.T) {
	url := "https://example.com/stale"
	reader := &fakeReader{responses: map[string]string{
		url: "# Fresh\n\nnew content",
	}}
	p, cache := newTestProcessor(t, reader, &fakeArchive{})

	require.NoError(t, cache.Put(Key(url), Entry{
		URL:       url,
		Content:   "stale content",
		FetchedAt: time.Now().UTC().Add(-8 * 24 * time.Hour),
	}))

	results, failures := p.Process(context.Background(), []Request{{URL: url}})
	require.Len(t, results, 1)
	require.Empty(t, failures)
	assert.False(t, results[0].CacheHit)
	assert.Equal(t, "Fresh", results[0].Title)

	// The cache was overwritten with the refetched content
	entry, outcome := cache.Get(Key(url))
	require.Equal(t, ReadHit, outcome)
	assert.Equal(t, "# Fresh\n\nnew content", entry.Content)
}

func TestProcessAccountsForEveryRequest(t *testing.T) {
	good := "https://example.com/good"
	bad := "https://example.com/bad"
	reader := &fakeReader{responses: map[string]string{
		good: "# Good\n\ncontent",
	}}
	archive := &fakeArchive{err: assertErr("no snapshot")}
	p, _ := newTestProcessor(t, reader, archive)

	requests := []Request{
		{URL: good},
		{URL: bad},
		{URL: good}, // duplicate, removed before processing
	}

	results, failures := p.Process(context.Background(), requests)
	assert.Len(t, results, 1)
	assert.Len(t, failures, 1)
	// Every deduplicated request lands in exactly one output list
	assert.Equal(t, len(Dedupe(requests)), len(results)+len(failures))

	assert.Equal(t, bad, failures[0].URL)
	assert.Equal(t, []Method{MethodReader, MethodArchive}, failures[0].Attempts)
	assert.Contains(t, failures[0].Err, "all fetch methods failed")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestProcessTruncatesToContentCeiling(t *testing.T) {
	url := "https://example.com/long"
	long := "# Long\n\n" + strings.Repeat("x", 200)
	reader := &fakeReader{responses: map[string]string{url: long}}
	p, cache := newTestProcessor(t, reader, &fakeArchive{}, WithMaxContentChars(100))

	results, _ := p.Process(context.Background(), []Request{{URL: url}})
	require.Len(t, results, 1)
	assert.Len(t, []rune(results[0].Content), 100)

	// Truncation happens before persisting; the cached hash covers the
	// truncated form
	entry, outcome := cache.Get(Key(url))
	require.Equal(t, ReadHit, outcome)
	assert.Len(t, []rune(entry.Content), 100)

	// Word count reflects the truncated text
	assert.Equal(t, len(strings.Fields(results[0].Content)), results[0].WordCount)
}

func TestProcessTamperedCacheEntryTriggersRefetch(t *testing.T) {
	url := "https://example.com/tamper"
	reader := &fakeReader{responses: map[string]string{url: "# Refetched\n\nclean"}}
	p, cache := newTestProcessor(t, reader, &fakeArchive{})

	require.NoError(t, cache.Put(Key(url), Entry{URL: url, Content: "good", FetchedAt: time.Now().UTC()}))

	// Corrupt the record: content mutated, hash left stale
	raw := Entry{URL: url, Content: "mutated behind the cache's back", ContentHash: "deadbeef", FetchedAt: time.Now().UTC()}
	require.NoError(t, writeRawEntry(cache, Key(url), raw))

	results, failures := p.Process(context.Background(), []Request{{URL: url}})
	require.Len(t, results, 1)
	require.Empty(t, failures)
	assert.False(t, results[0].CacheHit)
	assert.Equal(t, []string{url}, reader.calls)
}

// writeRawEntry bypasses Put's rehashing to plant a corrupted record.
func writeRawEntry(c *Cache, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), data, 0o644)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "hél", Truncate("héllo", 3))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
