// Package models downloads the whisper.cpp speech models.
package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/chaz8081/mock-interviewer/internal/config"
)

// DefaultBaseURL hosts the ggml whisper models.
const DefaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// WhisperVariants are the model sizes published upstream.
var WhisperVariants = []string{
	"tiny", "tiny.en",
	"base", "base.en",
	"small", "small.en",
	"medium", "medium.en",
	"large-v3", "large-v3-turbo",
}

// Downloader fetches model files over HTTP.
type Downloader struct {
	BaseURL string
	Client  *http.Client
	// Out receives progress output.
	Out io.Writer
}

// NewDownloader returns a Downloader for the upstream model host.
func NewDownloader(out io.Writer) *Downloader {
	return &Downloader{
		BaseURL: DefaultBaseURL,
		Client:  http.DefaultClient,
		Out:     out,
	}
}

// DownloadWhisper fetches the ggml model for variant into destDir and
// returns its path. An existing non-empty file is kept.
func (d *Downloader) DownloadWhisper(ctx context.Context, variant, destDir string) (string, error) {
	if !slices.Contains(WhisperVariants, variant) {
		return "", fmt.Errorf("models: unknown whisper variant %q (expected one of %s)", variant, strings.Join(WhisperVariants, ", "))
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("models: creating models dir: %w", err)
	}

	name := config.WhisperModelFile(variant)
	destPath := filepath.Join(destDir, name)

	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		fmt.Fprintf(d.Out, "  Whisper model already exists: %s (%.0f MB)\n", destPath, float64(info.Size())/(1024*1024))
		return destPath, nil
	}

	url := strings.TrimSuffix(d.BaseURL, "/") + "/" + name
	fmt.Fprintf(d.Out, "  Downloading %s\n", url)
	fmt.Fprintf(d.Out, "  Destination: %s\n", destPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("models: building request: %w", err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("models: downloading whisper model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("models: download failed: HTTP %d", resp.StatusCode)
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("models: creating temp file: %w", err)
	}

	bar := progressbar.NewOptions64(
		resp.ContentLength,
		progressbar.OptionSetWriter(d.Out),
		progressbar.OptionSetDescription("  "+name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(d.Out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	written, err := io.Copy(io.MultiWriter(f, bar), resp.Body)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("models: writing model file: %w", err)
	}
	_ = bar.Finish()

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("models: moving model file: %w", err)
	}

	fmt.Fprintf(d.Out, "  Downloaded %.1f MB\n", float64(written)/(1024*1024))
	return destPath, nil
}
