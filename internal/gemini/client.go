// Package gemini wraps the Gemini API client for the transcription and
// scoring steps: model selection, rate limiting, Files API uploads and
// error classification.
package gemini

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Gemini model IDs.
const (
	ModelGemini31ProPreview  = "gemini-3.1-pro-preview"
	ModelGemini3FlashPreview = "gemini-3-flash-preview"
	ModelGemini25Pro         = "gemini-2.5-pro"
	ModelGemini25Flash       = "gemini-2.5-flash"
)

// DefaultModelName is used when nothing is configured.
const DefaultModelName = ModelGemini3FlashPreview

// ResolveModel returns the model to use: GEMINI_MODEL if set, then
// configured, then DefaultModelName.
func ResolveModel(configured string) string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	if configured != "" {
		return configured
	}
	return DefaultModelName
}

// Generator produces text from a model.
type Generator interface {
	Generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error)
}

// Files manages uploads to the Gemini Files API.
type Files interface {
	Upload(ctx context.Context, path, mimeType string) (*genai.File, error)
	Delete(ctx context.Context, name string) error
}

// filesAPI is the subset of genai.Files used by Client.
type filesAPI interface {
	Upload(ctx context.Context, r io.Reader, config *genai.UploadFileConfig) (*genai.File, error)
	Get(ctx context.Context, name string, config *genai.GetFileConfig) (*genai.File, error)
	Delete(ctx context.Context, name string, config *genai.DeleteFileConfig) (*genai.DeleteFileResponse, error)
}

// Client is a rate-limited Gemini client implementing Generator and Files.
// One Client should be shared by every caller in the process so the limit
// applies globally.
type Client struct {
	api           *genai.Client
	files         filesAPI
	limiter       *rate.Limiter
	uploadTimeout time.Duration
	pollInterval  time.Duration
}

// NewClient creates a client for the Gemini Developer API.
// requestsPerMinute <= 0 disables rate limiting.
func NewClient(ctx context.Context, apiKey string, requestsPerMinute int, uploadTimeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is empty")
	}
	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	if uploadTimeout <= 0 {
		uploadTimeout = 5 * time.Minute
	}
	log.Debug().Int("requestsPerMinute", requestsPerMinute).Msg("Gemini client initialized")
	return &Client{
		api:           api,
		files:         api.Files,
		limiter:       limiter,
		uploadTimeout: uploadTimeout,
		pollInterval:  5 * time.Second,
	}, nil
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	start := time.Now()
	resp, err := c.api.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content (%s): %w", model, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("generate content (%s): empty response", model)
	}
	text := resp.Text()
	log.Debug().
		Str("model", model).
		Int("responseLength", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Gemini response received")
	return text, nil
}
