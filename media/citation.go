package media

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MediaType classifies a cited asset.
type MediaType string

const (
	TypeImage MediaType = "image"
	TypeVideo MediaType = "video"
	TypeAudio MediaType = "audio"
	TypeFile  MediaType = "file"
)

// Citation is the provenance record for one stored asset. Citations
// are immutable after creation: one per successful download or copy.
type Citation struct {
	SourceURL  string    `yaml:"source_url" json:"source_url"`
	Title      string    `yaml:"title,omitempty" json:"title,omitempty"`
	Author     string    `yaml:"author,omitempty" json:"author,omitempty"`
	AccessedAt string    `yaml:"accessed_at" json:"accessed_at"`
	MediaType  MediaType `yaml:"media_type" json:"media_type"`
	LocalPath  string    `yaml:"local_path,omitempty" json:"local_path,omitempty"`
}

// NewCitation builds a citation with the access time set to now.
func NewCitation(sourceURL, title, author string, mediaType MediaType, localPath string) Citation {
	return Citation{
		SourceURL:  sourceURL,
		Title:      title,
		Author:     author,
		AccessedAt: time.Now().UTC().Format(time.RFC3339),
		MediaType:  mediaType,
		LocalPath:  localPath,
	}
}

// frontmatterKey is where citations live in a note's metadata block.
const frontmatterKey = "media_assets"

var sourcesHeaderRe = regexp.MustCompile(`(?m)^## Sources\s*$`)

// InjectCitations merges citations into a YAML frontmatter block
// (including the --- delimiters). An existing media_assets list gains
// only entries whose source URL it does not already hold; frontmatter
// key order is preserved. Content without a frontmatter block gets a
// fresh one.
func InjectCitations(frontmatter string, citations []Citation) (string, error) {
	if len(citations) == 0 {
		return frontmatter, nil
	}

	inner := strings.TrimSpace(frontmatter)
	inner = strings.TrimPrefix(inner, "---")
	inner = strings.TrimSuffix(inner, "---")

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(inner), &doc); err != nil {
		return "", fmt.Errorf("parse frontmatter: %w", err)
	}

	var mapping *yaml.Node
	if len(doc.Content) > 0 && doc.Content[0].Kind == yaml.MappingNode {
		mapping = doc.Content[0]
	} else {
		mapping = &yaml.Node{Kind: yaml.MappingNode}
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}}
	}

	seq := findMappingValue(mapping, frontmatterKey)
	if seq == nil {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: frontmatterKey}
		seq = &yaml.Node{Kind: yaml.SequenceNode}
		mapping.Content = append(mapping.Content, keyNode, seq)
	}

	existing := existingSourceURLs(seq)
	for _, c := range citations {
		if existing[c.SourceURL] {
			continue
		}
		node := &yaml.Node{}
		if err := node.Encode(c); err != nil {
			return "", fmt.Errorf("encode citation: %w", err)
		}
		seq.Content = append(seq.Content, node)
	}

	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("close frontmatter encoder: %w", err)
	}

	return "---\n" + sb.String() + "---\n", nil
}

func findMappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func existingSourceURLs(seq *yaml.Node) map[string]bool {
	urls := make(map[string]bool)
	for _, item := range seq.Content {
		var c Citation
		if err := item.Decode(&c); err == nil && c.SourceURL != "" {
			urls[c.SourceURL] = true
		}
	}
	return urls
}

// AppendSourcesSection adds a human-readable attribution section to
// markdown. When a "## Sources" section already exists the entries are
// inserted under it rather than a second header being created.
func AppendSourcesSection(markdown string, citations []Citation) string {
	if len(citations) == 0 {
		return markdown
	}

	var lines []string
	for _, c := range citations {
		if c.SourceURL == "" {
			continue
		}
		label := c.Title
		if label == "" {
			label = string(c.MediaType)
		}
		accessed := c.AccessedAt
		if len(accessed) > 10 {
			accessed = accessed[:10]
		}
		lines = append(lines, fmt.Sprintf("- [%s](%s) (accessed %s)", label, c.SourceURL, accessed))
	}
	if len(lines) == 0 {
		return markdown
	}
	block := strings.Join(lines, "\n")

	if loc := sourcesHeaderRe.FindStringIndex(markdown); loc != nil {
		insertAt := loc[1]
		return markdown[:insertAt] + "\n" + block + markdown[insertAt:]
	}

	return strings.TrimRight(markdown, "\n") + "\n\n## Sources\n\n" + block + "\n"
}
