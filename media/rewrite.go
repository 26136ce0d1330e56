package media

import (
	"path/filepath"
	"regexp"
	"strings"
)

// RewriteImages replaces each downloaded image's original markup with
// a vault-local embed pointing at its relative path. References absent
// from downloaded (failed or skipped) are left untouched.
func RewriteImages(markdown string, downloaded map[string]string) string {
	result := markdown
	for originalURL, relPath := range downloaded {
		embed := "![[" + relPath + "]]"

		quoted := regexp.QuoteMeta(originalURL)
		mdRe := regexp.MustCompile(`!\[[^\]]*\]\(` + quoted + `(?:\s+"[^"]*")?\)`)
		imgRe := regexp.MustCompile(`<img[^>]+src=["']` + quoted + `["'][^>]*/?>`)

		result = mdRe.ReplaceAllString(result, embed)
		result = imgRe.ReplaceAllString(result, embed)
	}
	return result
}

// RelAttachmentPath computes the embed path for a stored asset
// relative to the vault root, falling back to the bare filename when
// the asset is outside the vault.
func RelAttachmentPath(vaultRoot, assetPath string) string {
	rel, err := filepath.Rel(vaultRoot, assetPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(assetPath)
	}
	return filepath.ToSlash(rel)
}
