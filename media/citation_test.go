package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestInjectCitationsFreshKey(t *testing.T) {
	fm := `---
title: My Note
created: 2026-08-30
tags:
  - web
---
`
	citations := []Citation{
		{SourceURL: "https://example.com/a.png", Title: "a", AccessedAt: "2026-08-30T10:00:00Z", MediaType: TypeImage, LocalPath: "attachments/note/a.png"},
	}

	out, err := InjectCitations(fm, citations)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.True(t, strings.HasSuffix(out, "---\n"))

	// Key order is preserved: title stays first, media_assets lands last
	inner := strings.TrimSuffix(strings.TrimPrefix(out, "---\n"), "---\n")
	assert.Less(t, strings.Index(inner, "title:"), strings.Index(inner, "media_assets:"))

	var parsed struct {
		Title  string     `yaml:"title"`
		Tags   []string   `yaml:"tags"`
		Assets []Citation `yaml:"media_assets"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(inner), &parsed))
	assert.Equal(t, "My Note", parsed.Title)
	assert.Equal(t, []string{"web"}, parsed.Tags)
	require.Len(t, parsed.Assets, 1)
	assert.Equal(t, "https://example.com/a.png", parsed.Assets[0].SourceURL)
	assert.Equal(t, TypeImage, parsed.Assets[0].MediaType)
}

func TestInjectCitationsMergesWithoutDuplicates(t *testing.T) {
	fm := `---
title: Existing
media_assets:
  - source_url: https://example.com/old.png
    accessed_at: "2026-08-01T00:00:00Z"
    media_type: image
---
`
	citations := []Citation{
		{SourceURL: "https://example.com/old.png", AccessedAt: "2026-08-30T00:00:00Z", MediaType: TypeImage},
		{SourceURL: "https://example.com/new.png", AccessedAt: "2026-08-30T00:00:00Z", MediaType: TypeImage},
	}

	out, err := InjectCitations(fm, citations)
	require.NoError(t, err)

	var parsed struct {
		Assets []Citation `yaml:"media_assets"`
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(out, "---\n"), "---\n")
	require.NoError(t, yaml.Unmarshal([]byte(inner), &parsed))
	require.Len(t, parsed.Assets, 2)
	assert.Equal(t, "https://example.com/old.png", parsed.Assets[0].SourceURL)
	// The existing record wins over the incoming duplicate
	assert.Equal(t, "2026-08-01T00:00:00Z", parsed.Assets[0].AccessedAt)
	assert.Equal(t, "https://example.com/new.png", parsed.Assets[1].SourceURL)
}

func TestInjectCitationsEmptyFrontmatter(t *testing.T) {
	out, err := InjectCitations("", []Citation{
		{SourceURL: "https://example.com/x.png", AccessedAt: "2026-08-30T00:00:00Z", MediaType: TypeImage},
	})
	require.NoError(t, err)

	var parsed struct {
		Assets []Citation `yaml:"media_assets"`
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(out, "---\n"), "---\n")
	require.NoError(t, yaml.Unmarshal([]byte(inner), &parsed))
	require.Len(t, parsed.Assets, 1)
}

func TestInjectCitationsNoCitations(t *testing.T) {
	fm := "---\ntitle: Untouched\n---\n"
	out, err := InjectCitations(fm, nil)
	require.NoError(t, err)
	assert.Equal(t, fm, out)
}

func TestAppendSourcesSectionNew(t *testing.T) {
	body := "# Note\n\nContent.\n"
	citations := []Citation{
		{SourceURL: "https://example.com/a.png", Title: "Diagram", AccessedAt: "2026-08-30T10:00:00Z", MediaType: TypeImage},
		{SourceURL: "https://www.youtube.com/watch?v=abc", AccessedAt: "2026-08-30T10:00:00Z", MediaType: TypeVideo},
	}

	out := AppendSourcesSection(body, citations)
	assert.Contains(t, out, "## Sources")
	assert.Contains(t, out, "- [Diagram](https://example.com/a.png) (accessed 2026-08-30)")
	// Untitled entries fall back to the media type as the link label
	assert.Contains(t, out, "- [video](https://www.youtube.com/watch?v=abc) (accessed 2026-08-30)")
}

func TestAppendSourcesSectionExistingHeader(t *testing.T) {
	body := "# Note\n\n## Sources\n\n- [Old](https://example.com/old)\n"
	out := AppendSourcesSection(body, []Citation{
		{SourceURL: "https://example.com/new", Title: "New", AccessedAt: "2026-08-30T10:00:00Z", MediaType: TypeImage},
	})

	assert.Equal(t, 1, strings.Count(out, "## Sources"))
	assert.Contains(t, out, "- [New](https://example.com/new)")
	assert.Contains(t, out, "- [Old](https://example.com/old)")
}

func TestAppendSourcesSectionEmpty(t *testing.T) {
	body := "# Note\n"
	assert.Equal(t, body, AppendSourcesSection(body, nil))
}
