// Package media discovers embedded media in fetched markdown,
// downloads it into a vault attachments area, and tracks citation
// provenance for every stored asset.
package media

import (
	"net/url"
	"regexp"
	"strings"
)

// Pre-compiled patterns for embedded media discovery. Runtime
// compilation is avoided both for speed and to keep patterns reviewed
// in one place.
var (
	// ![alt](url) or ![alt](url "title"); the quoted title is ignored
	mdImageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

	// <img src="url"> tags, common in reader-service markdown output
	htmlImgRe = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["'][^>]*/?>`)

	// YouTube URL shapes: watch page, short link, embed path
	youtubePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([\w-]+)`),
		regexp.MustCompile(`(?:https?://)?youtu\.be/([\w-]+)`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/([\w-]+)`),
	}
)

// ImageRef is one discovered image reference. OriginalSyntax is the
// exact markup span, used later to rewrite the document in place.
type ImageRef struct {
	URL            string
	AltText        string
	OriginalSyntax string
}

// VideoRef is one discovered video embed, normalized to its video ID.
type VideoRef struct {
	ID  string
	URL string
}

// ExtractImages scans markdown for image references in both markdown
// and inline img-tag syntax. The two scans run independently over the
// same text; results are merged and de-duplicated by exact URL string.
// Case differences are preserved here; case-insensitive dedup belongs
// to the request layer, not media discovery.
func ExtractImages(markdown string) []ImageRef {
	var images []ImageRef
	seen := make(map[string]bool)

	for _, m := range mdImageRe.FindAllStringSubmatch(markdown, -1) {
		alt, u := m[1], m[2]
		if !seen[u] && isCandidateRef(u) {
			seen[u] = true
			images = append(images, ImageRef{URL: u, AltText: alt, OriginalSyntax: m[0]})
		}
	}

	for _, m := range htmlImgRe.FindAllStringSubmatch(markdown, -1) {
		u := m[1]
		if !seen[u] && isCandidateRef(u) {
			seen[u] = true
			images = append(images, ImageRef{URL: u, OriginalSyntax: m[0]})
		}
	}

	return images
}

// ExtractVideos scans markdown for video embeds, de-duplicating by
// video ID so two URL forms of the same video yield one reference.
// Each reference carries the canonical watch-page URL.
func ExtractVideos(markdown string) []VideoRef {
	var videos []VideoRef
	seen := make(map[string]bool)

	for _, pattern := range youtubePatterns {
		for _, m := range pattern.FindAllStringSubmatch(markdown, -1) {
			id := m[1]
			if seen[id] {
				continue
			}
			seen[id] = true
			videos = append(videos, VideoRef{
				ID:  id,
				URL: "https://www.youtube.com/watch?v=" + id,
			})
		}
	}

	return videos
}

// isCandidateRef reports whether a discovered reference can become a
// download once resolved. Inline data URIs and in-document anchors are
// dropped here; relative references stay in and are resolved against
// the document source before the downloadability check.
func isCandidateRef(raw string) bool {
	if raw == "" || strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "#") {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return !parsed.IsAbs() || parsed.Scheme == "http" || parsed.Scheme == "https"
}

// IsDownloadableURL reports whether a resolved reference is a web
// resource worth downloading. Only absolute http and https URLs
// qualify; a reference still relative after resolution has no source
// to resolve against and is skipped.
func IsDownloadableURL(raw string) bool {
	if raw == "" || strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "#") {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

// ResolveAgainst resolves a possibly relative reference against the
// document's source URL. Absolute references pass through unchanged.
func ResolveAgainst(sourceURL, ref string) string {
	if sourceURL == "" {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil || parsed.IsAbs() {
		return ref
	}
	base, err := url.Parse(sourceURL)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
