package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/vaultpipe/vaultpipe/transcript"
)

// VideoMetadata is the subset of yt-dlp's JSON dump the pipeline uses.
type VideoMetadata struct {
	VideoID      string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	ThumbnailURL string  `json:"thumbnail"`
	Duration     float64 `json:"duration"`
	Uploader     string  `json:"uploader"`
	UploadDate   string  `json:"upload_date"`
}

// YouTubeClient wraps the yt-dlp external process for video metadata,
// thumbnails, and auto-generated transcripts.
type YouTubeClient struct {
	downloader *Downloader

	// binary is the yt-dlp executable name, swappable in tests.
	binary string

	metadataTimeout   time.Duration
	transcriptTimeout time.Duration
}

// NewYouTubeClient creates a YouTube client. It returns an error when
// yt-dlp is not on PATH, so callers can degrade to skipping video
// processing rather than failing every document.
func NewYouTubeClient(downloader *Downloader) (*YouTubeClient, error) {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return nil, fmt.Errorf("yt-dlp not found on PATH: %w", err)
	}
	return &YouTubeClient{
		downloader:        downloader,
		binary:            "yt-dlp",
		metadataTimeout:   60 * time.Second,
		transcriptTimeout: 120 * time.Second,
	}, nil
}

// Metadata fetches video metadata without downloading the video.
func (y *YouTubeClient) Metadata(ctx context.Context, url string) (*VideoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, y.metadataTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, y.binary,
		"--dump-json", "--no-download", "--no-warnings", url).Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata for %s: %w", url, err)
	}

	var meta VideoMetadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	return &meta, nil
}

// Transcript fetches the auto-generated subtitles for a video and
// strips them to plain dialogue. It returns "" without error when no
// transcript is available.
func (y *YouTubeClient) Transcript(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, y.transcriptTimeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "vaultpipe-subs-*")
	if err != nil {
		return "", fmt.Errorf("create transcript temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	cmd := exec.CommandContext(ctx, y.binary,
		"--write-auto-sub",
		"--sub-lang", "en",
		"--sub-format", "vtt",
		"--skip-download",
		"--no-warnings",
		"-o", filepath.Join(tmpDir, "%(id)s.%(ext)s"),
		url)
	if err := cmd.Run(); err != nil {
		return "", nil
	}

	matches, err := filepath.Glob(filepath.Join(tmpDir, "*.vtt"))
	if err != nil || len(matches) == 0 {
		return "", nil
	}

	raw, err := os.ReadFile(matches[0])
	if err != nil {
		return "", fmt.Errorf("read subtitle file: %w", err)
	}

	return transcript.StripVTT(string(raw)), nil
}

// Process handles one discovered video: metadata, thumbnail download,
// and a video citation crediting the uploader.
func (y *YouTubeClient) Process(ctx context.Context, video VideoRef, destDir, vaultRoot string) (Citation, error) {
	meta, err := y.Metadata(ctx, video.URL)
	if err != nil {
		return Citation{}, err
	}

	localPath := ""
	if meta.ThumbnailURL != "" {
		thumbPath, _, err := y.downloader.Download(ctx, meta.ThumbnailURL, destDir)
		if err == nil {
			// Thumbnails get a predictable name keyed by video ID
			named := filepath.Join(destDir, meta.VideoID+"-thumbnail.jpg")
			if renameErr := os.Rename(thumbPath, named); renameErr == nil {
				thumbPath = named
			}
			localPath = RelAttachmentPath(vaultRoot, thumbPath)
		}
	}

	return NewCitation(video.URL, meta.Title, meta.Uploader, TypeVideo, localPath), nil
}
