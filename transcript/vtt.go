// Package transcript normalizes subtitle and caption files into plain
// text suitable for knowledge-base notes.
package transcript

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	timestampRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[.,]\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}[.,]\d{3}`)
	cueNumberRe = regexp.MustCompile(`^\d+$`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
)

// StripVTT removes WebVTT/SRT structure from raw subtitle text: the
// WEBVTT header, NOTE and STYLE blocks, cue numbers, timestamp lines,
// and inline formatting tags. Consecutive duplicate lines collapse to
// one, which deals with the rolling repetition in auto-generated
// captions.
func StripVTT(raw string) string {
	var out []string
	prev := ""
	skipBlock := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		if skipBlock {
			if trimmed == "" {
				skipBlock = false
			}
			continue
		}

		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "WEBVTT"):
			continue
		case strings.HasPrefix(trimmed, "NOTE"), strings.HasPrefix(trimmed, "STYLE"), strings.HasPrefix(trimmed, "REGION"):
			skipBlock = true
			continue
		case strings.HasPrefix(trimmed, "Kind:"), strings.HasPrefix(trimmed, "Language:"):
			continue
		case timestampRe.MatchString(trimmed):
			continue
		case cueNumberRe.MatchString(trimmed):
			continue
		}

		text := strings.TrimSpace(tagRe.ReplaceAllString(trimmed, ""))
		if text == "" || text == prev {
			continue
		}
		out = append(out, text)
		prev = text
	}

	return strings.Join(out, "\n")
}

// DetectFormat reports the transcript format implied by a filename.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt":
		return "vtt"
	case ".srt":
		return "srt"
	default:
		return "txt"
	}
}

// Normalize converts a transcript file's content to plain text based
// on its detected format.
func Normalize(path, content string) string {
	switch DetectFormat(path) {
	case "vtt", "srt":
		return StripVTT(content)
	default:
		return strings.TrimSpace(content)
	}
}
