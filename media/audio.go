package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// whisperTimeout bounds one transcription run; large models on long
// recordings are slow.
const whisperTimeout = 10 * time.Minute

// AudioResult is the outcome of ingesting one audio file.
type AudioResult struct {
	LocalPath  string
	ByteSize   int64
	Transcript string
	Citation   Citation
}

// ProcessAudio copies an audio file into the document's attachment
// namespace and, when the whisper CLI is available, transcribes it.
// Transcription failure degrades to an untranscribed copy.
func ProcessAudio(ctx context.Context, srcPath, attachmentsRoot, slug, vaultRoot, model string) (*AudioResult, error) {
	destDir := filepath.Join(attachmentsRoot, slug)

	localPath, size, err := CopyLocal(srcPath, destDir)
	if err != nil {
		return nil, err
	}

	transcriptText := ""
	if _, lookErr := exec.LookPath("whisper"); lookErr == nil {
		transcriptText, err = runWhisper(ctx, srcPath, model)
		if err != nil {
			// Keep the copied asset; transcription is best-effort
			transcriptText = ""
		}
	}

	stem := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	abs, _ := filepath.Abs(srcPath)

	return &AudioResult{
		LocalPath:  localPath,
		ByteSize:   size,
		Transcript: transcriptText,
		Citation: NewCitation(
			"file://"+abs,
			stem,
			"",
			TypeAudio,
			RelAttachmentPath(vaultRoot, localPath),
		),
	}, nil
}

func runWhisper(ctx context.Context, srcPath, model string) (string, error) {
	if model == "" {
		model = "base"
	}

	ctx, cancel := context.WithTimeout(ctx, whisperTimeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "vaultpipe-whisper-*")
	if err != nil {
		return "", fmt.Errorf("create whisper temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	cmd := exec.CommandContext(ctx, "whisper", srcPath,
		"--model", model,
		"--output_dir", tmpDir,
		"--output_format", "txt")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(tmpDir, "*.txt"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("whisper produced no transcript")
	}

	text, err := os.ReadFile(matches[0])
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(text), nil
}
