package media

import (
	"context"
	"log/slog"
	"path/filepath"
)

// Pipeline runs the full media pass for one document: discover
// embedded references, download them into the document's attachment
// namespace, rewrite the markdown to reference local copies, and
// collect citations. Per-asset failures are logged and skipped; one
// bad asset never aborts the rest of the document.
type Pipeline struct {
	downloader      *Downloader
	youtube         *YouTubeClient
	attachmentsRoot string
	vaultRoot       string
	logger          *slog.Logger
}

// NewPipeline creates a media pipeline. youtube may be nil to skip
// video processing (for example when yt-dlp is not installed).
func NewPipeline(downloader *Downloader, youtube *YouTubeClient, attachmentsRoot, vaultRoot string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		downloader:      downloader,
		youtube:         youtube,
		attachmentsRoot: attachmentsRoot,
		vaultRoot:       vaultRoot,
		logger:          logger,
	}
}

// Process extracts and downloads media for one document. slug
// namespaces the document's assets under the attachments root;
// sourceURL resolves relative image references. It returns the
// rewritten markdown and the citations for every stored asset.
func (p *Pipeline) Process(ctx context.Context, markdown, slug, sourceURL string) (string, []Citation) {
	destDir := filepath.Join(p.attachmentsRoot, slug)

	images := ExtractImages(markdown)
	videos := ExtractVideos(markdown)

	downloaded := make(map[string]string)
	var citations []Citation

	for _, img := range images {
		target := ResolveAgainst(sourceURL, img.URL)
		if !IsDownloadableURL(target) {
			p.logger.Warn("media reference not downloadable",
				slog.String("ref", img.URL))
			continue
		}

		localPath, _, err := p.downloader.Download(ctx, target, destDir)
		if err != nil {
			p.logger.Warn("media download failed",
				slog.String("url", target),
				slog.String("error", err.Error()))
			continue
		}

		relPath := RelAttachmentPath(p.vaultRoot, localPath)
		downloaded[img.URL] = relPath

		title := img.AltText
		if title == "" {
			title = filepath.Base(localPath)
		}
		citations = append(citations, NewCitation(target, title, "", TypeImage, relPath))
	}

	for _, video := range videos {
		if p.youtube == nil {
			continue
		}
		citation, err := p.youtube.Process(ctx, video, destDir, p.vaultRoot)
		if err != nil {
			p.logger.Warn("video processing failed",
				slog.String("url", video.URL),
				slog.String("error", err.Error()))
			continue
		}
		citations = append(citations, citation)
	}

	return RewriteImages(markdown, downloaded), citations
}

// Decorate applies the citation bookkeeping to a complete note:
// citations merged into the frontmatter block and an attribution
// section appended to the body.
func Decorate(frontmatter, body string, citations []Citation) (string, string, error) {
	fm, err := InjectCitations(frontmatter, citations)
	if err != nil {
		return "", "", err
	}
	return fm, AppendSourcesSection(body, citations), nil
}
