// Package convert turns raw HTML into markdown suitable for vault
// notes. Extraction runs readability first to isolate the article
// body, falling back to manual DOM pruning when readability finds
// nothing usable.
package convert

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var (
	scriptRe         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	excessiveLinesRe = regexp.MustCompile(`\n{4,}`)
)

// Result holds the converted document.
type Result struct {
	Title    string
	Author   string
	Markdown string
}

// Converter produces markdown from fetched HTML pages.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates an HTML to markdown converter with GitHub
// flavored output.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// Convert extracts the main article from htmlContent and renders it as
// markdown. sourceURL, when non-empty, resolves relative links during
// readability extraction.
func (c *Converter) Convert(htmlContent []byte, sourceURL string) (*Result, error) {
	var pageURL *url.URL
	if sourceURL != "" {
		pageURL, _ = url.Parse(sourceURL)
	}

	title := ""
	author := ""
	body := ""

	article, err := readability.FromReader(strings.NewReader(string(htmlContent)), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		title = strings.TrimSpace(article.Title)
		author = strings.TrimSpace(article.Byline)
		body = article.Content
	} else {
		title = extractHTMLTitle(htmlContent)
		body = pruneChrome(htmlContent)
	}

	markdown, err := c.converter.ConvertString(body)
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}
	markdown = tidyMarkdown(markdown)

	if title == "" {
		title = firstHeading(markdown)
	}

	return &Result{Title: title, Author: author, Markdown: markdown}, nil
}

// extractHTMLTitle returns the first <title> element's text.
func extractHTMLTitle(content []byte) string {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if title != "" {
				return
			}
			walk(c)
		}
	}
	walk(doc)

	return title
}

// pruneChrome strips navigation, scripts, and other page chrome and
// returns the body HTML. Used when readability extraction fails.
func pruneChrome(content []byte) string {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		cleaned := scriptRe.ReplaceAllString(string(content), "")
		return styleRe.ReplaceAllString(cleaned, "")
	}

	for _, selector := range []string{"main", "article"} {
		if node := findElement(doc, selector); node != nil {
			return renderNode(node)
		}
	}

	removeElements(doc, []string{
		"nav", "header", "footer", "aside", "script", "style", "noscript",
		"iframe", "object", "embed", "form", "input", "button",
	})
	removeByClass(doc, []string{
		"nav", "navbar", "navigation", "sidebar", "menu", "toc",
		"footer", "header", "ad", "advertisement",
		"social", "share", "comments", "related", "breadcrumb",
	})

	if body := findElement(doc, "body"); body != nil {
		return renderNode(body)
	}

	return string(content)
}

func findElement(n *html.Node, tag string) *html.Node {
	var result *html.Node
	var find func(*html.Node)
	find = func(node *html.Node) {
		if result != nil {
			return
		}
		if node.Type == html.ElementNode && node.Data == tag {
			result = node
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(n)
	return result
}

func removeElements(n *html.Node, tags []string) {
	tagSet := make(map[string]bool)
	for _, tag := range tags {
		tagSet[tag] = true
	}

	var toRemove []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && tagSet[node.Data] {
			toRemove = append(toRemove, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func removeByClass(n *html.Node, classes []string) {
	classSet := make(map[string]bool)
	for _, class := range classes {
		classSet[strings.ToLower(class)] = true
	}

	var toRemove []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode {
			for _, a := range node.Attr {
				if a.Key != "class" {
					continue
				}
				for _, c := range strings.Fields(strings.ToLower(a.Val)) {
					if classSet[c] {
						toRemove = append(toRemove, node)
						return
					}
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func renderNode(n *html.Node) string {
	var sb strings.Builder
	html.Render(&sb, n)
	return sb.String()
}

// tidyMarkdown collapses excessive blank lines and trims trailing
// whitespace from every line.
func tidyMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// firstHeading returns the first H1 heading text in markdown.
func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
