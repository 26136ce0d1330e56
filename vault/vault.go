// Package vault writes ingested documents into an Obsidian-style
// vault: slugged filenames, YAML frontmatter, and a flat notes
// directory with a parallel attachments area.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const maxSlugLen = 60

var (
	nonSlugRe      = regexp.MustCompile(`[^a-z0-9]+`)
	repeatedDashRe = regexp.MustCompile(`-{2,}`)
)

// Frontmatter is the metadata block written at the top of every note.
type Frontmatter struct {
	Title       string   `yaml:"title"`
	SourceURL   string   `yaml:"source_url,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	FetchMethod string   `yaml:"fetch_method,omitempty"`
	CreatedAt   string   `yaml:"created_at"`
	WordCount   int      `yaml:"word_count,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// NewFrontmatter builds a frontmatter block with the creation time set
// to now.
func NewFrontmatter(title, sourceURL string) Frontmatter {
	return Frontmatter{
		Title:     title,
		SourceURL: sourceURL,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// Render serializes the frontmatter to a delimited YAML block.
func (f Frontmatter) Render() (string, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("close frontmatter encoder: %w", err)
	}
	return "---\n" + sb.String() + "---\n", nil
}

// Slugify derives a filesystem-safe slug from a note title: lowercase,
// non-alphanumeric runs collapsed to single dashes, bounded length.
// An empty or fully symbolic title yields "untitled".
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = nonSlugRe.ReplaceAllString(slug, "-")
	slug = repeatedDashRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
		slug = strings.TrimRight(slug, "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}

// NoteDate formats t as the date prefix used in note filenames.
func NoteDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// UniqueNotePath returns a path for a date-prefixed slug under dir
// that does not collide with an existing note, suffixing -2, -3, and
// so on until a free name is found. An empty date omits the prefix.
func UniqueNotePath(dir, date, slug string) string {
	name := slug
	if date != "" {
		name = date + "-" + slug
	}

	candidate := filepath.Join(dir, name+".md")
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate
	}

	for i := 2; ; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d.md", name, i))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// WriteNote writes a complete note (frontmatter plus body) to path,
// creating parent directories as needed.
func WriteNote(path string, fm Frontmatter, body string) error {
	rendered, err := fm.Render()
	if err != nil {
		return err
	}
	return WriteRaw(path, rendered+"\n"+strings.TrimLeft(body, "\n"))
}

// WriteRaw writes pre-assembled note content to path.
func WriteRaw(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create notes dir: %w", err)
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	return nil
}

// SplitFrontmatter separates a note's delimited frontmatter block from
// its body. Notes without a frontmatter block return an empty first
// value.
func SplitFrontmatter(content string) (frontmatter, body string) {
	if !strings.HasPrefix(content, "---\n") {
		return "", content
	}
	rest := content[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", content
	}
	fmEnd := 4 + end + len("\n---")
	frontmatter = content[:fmEnd]
	body = content[fmEnd:]
	// The closing delimiter's newline, then the blank line WriteNote
	// puts between frontmatter and body
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")
	if !strings.HasSuffix(frontmatter, "\n") {
		frontmatter += "\n"
	}
	return frontmatter, body
}
