package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// localExtensions are the file types local ingestion accepts. Audio
// formats route through transcription; the rest are treated as text.
var localExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".html": true,
	".htm":  true,
	".vtt":  true,
	".srt":  true,
	".mp3":  true,
	".m4a":  true,
	".wav":  true,
	".ogg":  true,
}

// Discover expands glob patterns to ingestable files. Patterns support
// recursive ** wildcards; plain paths match themselves when they point
// at an ingestable file. Results are de-duplicated and sorted.
func Discover(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		matches, err := expandPattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				continue
			}
			if !seen[abs] && IsIngestable(abs) {
				seen[abs] = true
				files = append(files, abs)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func expandPattern(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		info, err := os.Stat(pattern)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			// A bare directory means everything ingestable under it
			return doublestar.FilepathGlob(filepath.Join(pattern, "**", "*"))
		}
		if ext := strings.ToLower(filepath.Ext(pattern)); !localExtensions[ext] {
			return nil, fmt.Errorf("unsupported file type %q", ext)
		}
		return []string{pattern}, nil
	}
	return doublestar.FilepathGlob(pattern)
}

// IsIngestableName reports whether path has a file type the toolkit
// can ingest, judged by name alone.
func IsIngestableName(path string) bool {
	return localExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsIngestable reports whether path names a regular file of a type the
// toolkit can ingest.
func IsIngestable(path string) bool {
	if !IsIngestableName(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsAudio reports whether path names an audio file.
func IsAudio(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".m4a", ".wav", ".ogg":
		return true
	}
	return false
}
