package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractImagesMarkdown(t *testing.T) {
	doc := `# Post

![diagram](https://example.com/diagram.png)

Some text.

![](https://example.com/plain.jpg "hover title")
`

	images := ExtractImages(doc)
	require.Len(t, images, 2)

	assert.Equal(t, "https://example.com/diagram.png", images[0].URL)
	assert.Equal(t, "diagram", images[0].AltText)
	assert.Equal(t, `![diagram](https://example.com/diagram.png)`, images[0].OriginalSyntax)

	assert.Equal(t, "https://example.com/plain.jpg", images[1].URL)
	assert.Equal(t, "", images[1].AltText)
}

func TestExtractImagesHTMLTags(t *testing.T) {
	doc := `<img src="https://example.com/a.png" alt="a"> and <img class="x" src='https://example.com/b.gif'/>`

	images := ExtractImages(doc)
	require.Len(t, images, 2)
	assert.Equal(t, "https://example.com/a.png", images[0].URL)
	assert.Equal(t, "https://example.com/b.gif", images[1].URL)
}

func TestExtractImagesDedupByExactURL(t *testing.T) {
	doc := `![one](https://example.com/x.png)
![two](https://example.com/x.png)
<img src="https://example.com/x.png">
![cased](https://example.com/X.png)`

	images := ExtractImages(doc)
	require.Len(t, images, 2)
	assert.Equal(t, "https://example.com/x.png", images[0].URL)
	assert.Equal(t, "https://example.com/X.png", images[1].URL)
}

func TestExtractImagesSkipsInlineAndAnchors(t *testing.T) {
	doc := `![inline](data:image/png;base64,AAAA)
![anchor](#section)
![rel](/images/local.png)
![ftp](ftp://example.com/f.png)
![real](https://example.com/ok.png)`

	images := ExtractImages(doc)
	require.Len(t, images, 2)
	// Relative references survive extraction; they resolve against the
	// document source later
	assert.Equal(t, "/images/local.png", images[0].URL)
	assert.Equal(t, "https://example.com/ok.png", images[1].URL)
}

func TestExtractVideos(t *testing.T) {
	doc := `Watch https://www.youtube.com/watch?v=dQw4w9WgXcQ
or the short form https://youtu.be/dQw4w9WgXcQ
and an embed <iframe src="https://www.youtube.com/embed/abc123_-XYZ"></iframe>`

	videos := ExtractVideos(doc)
	require.Len(t, videos, 2)

	assert.Equal(t, "dQw4w9WgXcQ", videos[0].ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", videos[0].URL)
	assert.Equal(t, "abc123_-XYZ", videos[1].ID)
}

func TestExtractVideosNone(t *testing.T) {
	assert.Empty(t, ExtractVideos("no videos here, just https://example.com"))
}

func TestIsDownloadableURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/a.png", true},
		{"http://example.com/a.png", true},
		{"data:image/png;base64,AAAA", false},
		{"#anchor", false},
		{"/relative/path.png", false},
		{"ftp://example.com/a.png", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDownloadableURL(tt.url), tt.url)
	}
}

func TestResolveAgainst(t *testing.T) {
	tests := []struct {
		name   string
		source string
		ref    string
		want   string
	}{
		{"absolute passes through", "https://example.com/post", "https://cdn.example.com/x.png", "https://cdn.example.com/x.png"},
		{"root relative", "https://example.com/blog/post", "/images/x.png", "https://example.com/images/x.png"},
		{"path relative", "https://example.com/blog/post", "x.png", "https://example.com/blog/x.png"},
		{"no source URL", "", "/images/x.png", "/images/x.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveAgainst(tt.source, tt.ref))
		})
	}
}
