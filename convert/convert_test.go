package convert

import (
	"strings"
	"testing"
)

func TestExtractHTMLTitle(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "simple title",
			html:     "<html><head><title>My Page</title></head><body></body></html>",
			expected: "My Page",
		},
		{
			name:     "title with whitespace",
			html:     "<html><head><title>  Spaced Title  </title></head></html>",
			expected: "Spaced Title",
		},
		{
			name:     "no title",
			html:     "<html><head></head><body>Content</body></html>",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractHTMLTitle([]byte(tt.html))
			if got != tt.expected {
				t.Errorf("extractHTMLTitle() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFirstHeading(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		expected string
	}{
		{
			name:     "H1 at start",
			markdown: "# Hello World\n\nContent here",
			expected: "Hello World",
		},
		{
			name:     "H1 after text",
			markdown: "Some text\n\n# Title Here\n\nMore content",
			expected: "Title Here",
		},
		{
			name:     "no H1",
			markdown: "## Section\n\nContent",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := firstHeading(tt.markdown)
			if got != tt.expected {
				t.Errorf("firstHeading() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConvertArticle(t *testing.T) {
	page := `<html>
<head><title>Understanding Caches</title></head>
<body>
<nav><a href="/">Home</a><a href="/about">About</a></nav>
<article>
<h1>Understanding Caches</h1>
<p>Caches trade freshness for speed. This paragraph needs to be long
enough that content extraction treats the article as real prose rather
than boilerplate, so it keeps going for a few more clauses about
eviction policies, hit rates, and the cost of a miss.</p>
<p>A second paragraph discusses time-to-live values and why seven days
is a common default for content that changes rarely but matters often.</p>
</article>
<footer>Copyright 2026</footer>
</body>
</html>`

	result, err := NewConverter().Convert([]byte(page), "https://example.com/caches")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if result.Title != "Understanding Caches" {
		t.Errorf("Title = %q, want %q", result.Title, "Understanding Caches")
	}
	if !strings.Contains(result.Markdown, "Caches trade freshness for speed") {
		t.Errorf("Markdown missing article body:\n%s", result.Markdown)
	}
	if strings.Contains(result.Markdown, "Copyright 2026") {
		t.Errorf("Markdown kept footer chrome:\n%s", result.Markdown)
	}
}

func TestConvertFallbackPruning(t *testing.T) {
	// Too little text for readability, so the manual pruning path runs
	page := `<html>
<head><title>Tiny</title></head>
<body>
<nav>menu</nav>
<div class="sidebar">links</div>
<p>Just one line.</p>
<script>alert(1)</script>
</body>
</html>`

	result, err := NewConverter().Convert([]byte(page), "")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if result.Title != "Tiny" {
		t.Errorf("Title = %q, want %q", result.Title, "Tiny")
	}
	if strings.Contains(result.Markdown, "alert(1)") {
		t.Errorf("Markdown kept script content:\n%s", result.Markdown)
	}
}

func TestTidyMarkdown(t *testing.T) {
	input := "# Title\n\n\n\n\n\nBody   \n\ttrailing\t\n"
	got := tidyMarkdown(input)

	if strings.Contains(got, "\n\n\n\n") {
		t.Errorf("excessive blank lines survived: %q", got)
	}
	if strings.Contains(got, "   \n") || strings.HasSuffix(got, "\t") {
		t.Errorf("trailing whitespace survived: %q", got)
	}
}
