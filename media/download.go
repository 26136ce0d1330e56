package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vaultpipe/vaultpipe/fetch"
	"github.com/vaultpipe/vaultpipe/weburl"
)

const (
	// DefaultMaxDownloadBytes is the hard per-asset size ceiling.
	DefaultMaxDownloadBytes = 50 * 1024 * 1024 // 50 MB

	// DefaultDownloadTimeout bounds one asset download.
	DefaultDownloadTimeout = 30 * time.Second
)

// SizeLimitError reports an asset that exceeds the download ceiling,
// whether declared up front or discovered mid-stream.
type SizeLimitError struct {
	URL   string
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("media exceeds %d byte limit: %s", e.Limit, e.URL)
}

var unsafeFilenameRe = regexp.MustCompile(`[^\w.\-]`)

// Downloader fetches media assets with SSRF validation and a hard
// size ceiling, and copies local assets into the attachment area.
type Downloader struct {
	client    *http.Client
	validator fetch.URLValidator
	maxBytes  int64
}

// NewDownloader creates a media downloader. maxBytes <= 0 uses the
// default 50 MB ceiling.
func NewDownloader(timeout time.Duration, maxBytes int64, validator fetch.URLValidator) *Downloader {
	if timeout == 0 {
		timeout = DefaultDownloadTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDownloadBytes
	}
	if validator == nil {
		validator = &weburl.Validator{}
	}
	return &Downloader{
		client:    &http.Client{Timeout: timeout},
		validator: validator,
		maxBytes:  maxBytes,
	}
}

// Download fetches url into destDir and returns the stored path and
// byte size. The URL is validated first; a declared Content-Length
// over the ceiling aborts before any bytes transfer, and the stream is
// cut off mid-transfer if an undeclared or lying length exceeds it.
func (d *Downloader) Download(ctx context.Context, rawURL, destDir string) (string, int64, error) {
	if err := d.validator.Validate(rawURL); err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create attachment dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("download HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	// Declared size check before any bytes are read
	if resp.ContentLength > d.maxBytes {
		return "", 0, &SizeLimitError{URL: rawURL, Limit: d.maxBytes}
	}

	// Stream with a ceiling the declared length cannot lie past
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return "", 0, fmt.Errorf("read media: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return "", 0, &SizeLimitError{URL: rawURL, Limit: d.maxBytes}
	}

	destPath := filepath.Join(destDir, SafeFilename(rawURL, data))
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return "", 0, fmt.Errorf("write media: %w", err)
	}

	return destPath, int64(len(data)), nil
}

// CopyLocal copies a local media file into destDir, returning the
// stored path and byte size.
func CopyLocal(srcPath, destDir string) (string, int64, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return "", 0, fmt.Errorf("source media: %w", err)
	}
	if info.IsDir() {
		return "", 0, fmt.Errorf("source media is a directory: %s", srcPath)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create attachment dir: %w", err)
	}

	destPath := filepath.Join(destDir, filepath.Base(srcPath))
	absSrc, _ := filepath.Abs(srcPath)
	absDest, _ := filepath.Abs(destPath)
	if absSrc == absDest {
		return destPath, info.Size(), nil
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", 0, fmt.Errorf("open source media: %w", err)
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return "", 0, fmt.Errorf("create media copy: %w", err)
	}
	defer dest.Close()

	n, err := io.Copy(dest, src)
	if err != nil {
		return "", 0, fmt.Errorf("copy media: %w", err)
	}

	return destPath, n, nil
}

// SafeFilename derives a collision-resistant filename from a URL's
// path component: sanitized to a safe character set, prefixed with a
// short content hash when content is available, and given a generic
// extension when none can be inferred.
func SafeFilename(rawURL string, content []byte) string {
	basename := "media"
	if parsed, err := url.Parse(rawURL); err == nil {
		if name := path.Base(parsed.Path); name != "" && name != "." && name != "/" {
			basename = name
		}
	}

	// Strip any query-string residue and sanitize
	basename = strings.SplitN(basename, "?", 2)[0]
	basename = unsafeFilenameRe.ReplaceAllString(basename, "_")

	if len(content) > 0 {
		sum := sha256.Sum256(content)
		prefix := hex.EncodeToString(sum[:])[:12]
		basename = prefix + "-" + basename
	}

	if filepath.Ext(basename) == "" {
		basename += ".bin"
	}

	return basename
}
