package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultpipe/vaultpipe/weburl"
)

// allowAll accepts every URL; tests that need rejections use blockAll.
type allowAll struct{}

func (allowAll) Validate(string) error { return nil }

type blockAll struct{}

func (blockAll) Validate(string) error { return &weburl.HostError{Host: "blocked"} }

// fakeReader scripts reader responses per target URL.
type fakeReader struct {
	responses map[string]string
	err       error
	calls     []string
}

func (f *fakeReader) Fetch(_ context.Context, target string) (string, string, error) {
	f.calls = append(f.calls, target)
	if content, ok := f.responses[target]; ok {
		return content, ExtractTitle(content), nil
	}
	if f.err != nil {
		return "", "", f.err
	}
	return "", "", errors.New("reader HTTP 404: Not Found")
}

type fakeArchive struct {
	snapshot string
	err      error
	calls    []string
}

func (f *fakeArchive) Lookup(_ context.Context, target string) (string, error) {
	f.calls = append(f.calls, target)
	if f.err != nil {
		return "", f.err
	}
	return f.snapshot, nil
}

func TestStrategyPrimarySucceeds(t *testing.T) {
	reader := &fakeReader{responses: map[string]string{
		"https://example.com/a": "# Title A\n\nbody",
	}}
	archive := &fakeArchive{err: errors.New("should not be called")}
	s := NewStrategy(allowAll{}, reader, archive, nil)

	res, err := s.Resolve(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, MethodReader, res.Method)
	assert.Equal(t, "Title A", res.Title)
	assert.Equal(t, "https://example.com/a", res.URL)
	assert.Empty(t, archive.calls)
}

func TestStrategyFallsBackToArchive(t *testing.T) {
	snapshot := "https://web.archive.org/web/2024/https://example.com/b"
	reader := &fakeReader{responses: map[string]string{
		snapshot: "# Archived B\n\nbody",
	}}
	archive := &fakeArchive{snapshot: snapshot}
	s := NewStrategy(allowAll{}, reader, archive, nil)

	res, err := s.Resolve(context.Background(), "https://example.com/b")
	require.NoError(t, err)
	// The result reports the fallback method and keeps the original URL
	assert.Equal(t, MethodArchive, res.Method)
	assert.Equal(t, "https://example.com/b", res.URL)
	assert.Equal(t, "Archived B", res.Title)
	assert.Equal(t, []string{"https://example.com/b"}, archive.calls)
	assert.Equal(t, []string{"https://example.com/b", snapshot}, reader.calls)
}

func TestStrategyExhaustedWhenNoSnapshot(t *testing.T) {
	reader := &fakeReader{}
	archive := &fakeArchive{err: errors.New("no archive snapshot available")}
	s := NewStrategy(allowAll{}, reader, archive, nil)

	_, err := s.Resolve(context.Background(), "https://example.com/c")
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, []Method{MethodReader, MethodArchive}, exhausted.Attempts)
	assert.Contains(t, err.Error(), "all fetch methods failed")
}

func TestStrategyValidationFailureSkipsFallback(t *testing.T) {
	reader := &fakeReader{responses: map[string]string{
		"http://localhost/secret": "should never be fetched",
	}}
	archive := &fakeArchive{snapshot: "https://web.archive.org/web/x"}
	s := NewStrategy(blockAll{}, reader, archive, nil)

	_, err := s.Resolve(context.Background(), "http://localhost/secret")
	require.Error(t, err)
	assert.True(t, weburl.IsBlocked(err))

	// A blocked destination is blocked for all methods: no fetch, no fallback
	assert.Empty(t, reader.calls)
	assert.Empty(t, archive.calls)
}

func TestStrategyValidatesSnapshotURL(t *testing.T) {
	// The archive answers with a snapshot pointing at an internal
	// address; the strategy must refuse to fetch it.
	v := &weburl.Validator{}
	reader := &fakeReader{}
	archive := &fakeArchive{snapshot: "http://169.254.169.254/latest/meta-data/"}
	s := NewStrategy(v, reader, archive, nil)

	_, err := s.Resolve(context.Background(), "https://93.184.216.34/page")
	require.Error(t, err)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.True(t, weburl.IsBlocked(exhausted.Last))
	// The snapshot itself was never fetched
	assert.Equal(t, []string{"https://93.184.216.34/page"}, reader.calls)
}
