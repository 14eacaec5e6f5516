package gemini

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/pitch-scorer/internal/metrics"
)

// Upload implements Files. It streams the local file to the Files API and
// waits until processing finishes. The caller deletes the file after use.
func (c *Client) Upload(ctx context.Context, path, mimeType string) (*genai.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	log.Debug().
		Str("path", path).
		Int64("size_bytes", info.Size()).
		Str("mime_type", mimeType).
		Msg("Starting Gemini Files API upload")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	uploadStart := time.Now()
	file, err := c.files.Upload(ctx, f, &genai.UploadFileConfig{MIMEType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	file, polls, err := c.waitActive(ctx, file)
	if err != nil {
		if delErr := c.Delete(context.WithoutCancel(ctx), file.Name); delErr != nil {
			log.Warn().Err(delErr).Str("name", file.Name).Msg("Failed to delete abandoned upload")
		}
		return nil, err
	}

	total := time.Since(uploadStart)
	log.Info().
		Str("name", file.Name).
		Str("state", string(file.State)).
		Dur("total_time", total).
		Int("poll_iterations", polls).
		Msg("File ready for inference")
	metrics.New().
		Dimension("Operation", "filesApiUpload").
		Duration("GeminiFilesApiUploadMs", total).
		Metric("GeminiFilesApiUploadBytes", float64(info.Size()), metrics.UnitBytes).
		Flush()
	return file, nil
}

// waitActive polls until file leaves the processing state. On error the
// returned file still names the upload so the caller can delete it.
func (c *Client) waitActive(ctx context.Context, file *genai.File) (*genai.File, int, error) {
	deadline := time.Now().Add(c.uploadTimeout)
	polls := 0
	for file.State == genai.FileStateProcessing {
		if time.Now().After(deadline) {
			return file, polls, fmt.Errorf("timeout waiting for file processing after %v", c.uploadTimeout)
		}
		polls++
		select {
		case <-ctx.Done():
			return file, polls, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		next, err := c.files.Get(ctx, file.Name, nil)
		if err != nil {
			return file, polls, fmt.Errorf("get file state: %w", err)
		}
		file = next
	}
	if file.State == genai.FileStateFailed {
		return file, polls, fmt.Errorf("file processing failed for %s", file.Name)
	}
	return file, polls, nil
}

// Delete implements Files.
func (c *Client) Delete(ctx context.Context, name string) error {
	if _, err := c.files.Delete(ctx, name, nil); err != nil {
		return fmt.Errorf("delete file %s: %w", name, err)
	}
	log.Debug().Str("name", name).Msg("Gemini file deleted")
	return nil
}
