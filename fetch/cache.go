package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultTTL is how long a cache entry stays fresh.
const DefaultTTL = 7 * 24 * time.Hour

// Entry is one persisted fetch record. ContentHash is a SHA-256 digest
// of Content, recomputed on every read to detect tampering.
type Entry struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	FetchMethod Method    `json:"fetch_method"`
	FetchedAt   time.Time `json:"fetched_at"`
	ContentHash string    `json:"content_hash"`
}

// ReadOutcome classifies the result of a cache read. IntegrityFailure
// is treated the same as Miss by callers, but stays distinguishable so
// tests can tell "never cached" from "cache invalidated".
type ReadOutcome int

const (
	ReadMiss ReadOutcome = iota
	ReadHit
	ReadIntegrityFailure
)

func (o ReadOutcome) String() string {
	switch o {
	case ReadHit:
		return "hit"
	case ReadIntegrityFailure:
		return "integrity_failure"
	default:
		return "miss"
	}
}

// Cache is a persistent store of fetch results, one JSON file per key
// under a root directory. The cache exclusively owns its files; writes
// go through a temp file and rename so a concurrent reader never sees
// a half-written record.
type Cache struct {
	dir    string
	logger *slog.Logger
}

// NewCache creates a cache rooted at dir. The directory is created
// lazily on the first Put.
func NewCache(dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{dir: dir, logger: logger}
}

// Key derives the cache key for a URL: the hex SHA-256 digest of the
// original, un-normalized URL string. Keys are independent of the
// dedup layer's normalization policy and stable across runs.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// ContentDigest returns the hex SHA-256 digest of content.
func ContentDigest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get reads the entry for key. Corruption and tampering are never
// surfaced as errors: a missing file is a Miss, and an unparsable
// record or content-hash mismatch is an IntegrityFailure that callers
// treat as absent.
func (c *Cache) Get(key string) (Entry, ReadOutcome) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("cache read failed, treating as miss",
				slog.String("key", key),
				slog.String("error", err.Error()))
			return Entry{}, ReadIntegrityFailure
		}
		return Entry{}, ReadMiss
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("cache entry unparsable, treating as miss",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return Entry{}, ReadIntegrityFailure
	}

	if ContentDigest(entry.Content) != entry.ContentHash {
		c.logger.Warn("cache entry failed integrity check, treating as miss",
			slog.String("key", key),
			slog.String("url", entry.URL))
		return Entry{}, ReadIntegrityFailure
	}

	return entry, ReadHit
}

// Put stores entry under key, computing the integrity hash and fully
// overwriting any previous record. The write is atomic: temp file in
// the same directory, then rename.
func (c *Cache) Put(key string, entry Entry) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	entry.ContentHash = ContentDigest(entry.Content)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache entry: %w", err)
	}

	if err := os.Rename(tmpName, c.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename cache entry: %w", err)
	}

	return nil
}

// IsExpired reports whether entry is older than ttl. Entries with a
// zero timestamp are always expired (fail-safe for records written
// before the timestamp format settled).
func IsExpired(entry Entry, ttl time.Duration) bool {
	if entry.FetchedAt.IsZero() {
		return true
	}
	return time.Since(entry.FetchedAt) > ttl
}
