// Package transcribe turns an audio artifact into text and caches the
// result per application so the transcription service is called at most
// once per id.
package transcribe

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/assets"
	"github.com/fpang/pitch-scorer/internal/gemini"
	"github.com/fpang/pitch-scorer/internal/metrics"
	"github.com/fpang/pitch-scorer/internal/objcache"
)

// Transcriber converts a local audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// GeminiTranscriber uploads audio to the Files API and asks the model for
// a verbatim transcript.
type GeminiTranscriber struct {
	gen   gemini.Generator
	files gemini.Files
	model string
}

// NewGeminiTranscriber creates a transcriber. A *gemini.Client satisfies
// both collaborators.
func NewGeminiTranscriber(gen gemini.Generator, files gemini.Files, model string) *GeminiTranscriber {
	return &GeminiTranscriber{gen: gen, files: files, model: model}
}

// Transcribe implements Transcriber. Failures are marked apperr.ErrTranscription.
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	start := time.Now()
	file, err := t.files.Upload(ctx, audioPath, "audio/mpeg")
	if err != nil {
		return "", apperr.Markf(err, apperr.ErrTranscription, "upload %s", audioPath)
	}
	defer func() {
		if err := t.files.Delete(context.WithoutCancel(ctx), file.Name); err != nil {
			log.Warn().Err(err).Str("name", file.Name).Msg("Failed to delete uploaded audio")
		}
	}()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromURI(file.URI, file.MIMEType),
			genai.NewPartFromText(assets.TranscriptionPrompt),
		}, genai.RoleUser),
	}
	text, err := t.gen.Generate(ctx, t.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", apperr.Markf(err, apperr.ErrTranscription, "transcribe %s (%s)", audioPath, gemini.Classify(err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Mark(apperr.Newf("empty transcript for %s", audioPath), apperr.ErrTranscription)
	}

	elapsed := time.Since(start)
	metrics.PipelineDuration.WithLabelValues("transcribe").Observe(elapsed.Seconds())
	metrics.New().
		Dimension("Operation", "transcribe").
		Duration("TranscriptionMs", elapsed).
		Metric("TranscriptChars", float64(len(text)), metrics.UnitCount).
		Flush()
	log.Info().
		Str("audioPath", audioPath).
		Int("chars", len(text)).
		Dur("elapsed", elapsed).
		Msg("Audio transcribed")
	return text, nil
}

// Transcript is the cached transcription document.
type Transcript struct {
	ID   int    `json:"id"`
	Text string `json:"transcript"`
}

// Cache stores transcripts in the object cache under transcriptions/{id}.json.
type Cache struct {
	store objcache.Store
}

// NewCache creates a transcript cache.
func NewCache(store objcache.Store) *Cache {
	return &Cache{store: store}
}

// Get returns the cached transcript for id. A corrupt document is a miss.
func (c *Cache) Get(ctx context.Context, id int) (string, bool) {
	data, ok := c.store.Get(ctx, objcache.TranscriptKey(id))
	if !ok {
		metrics.CacheLookup("transcript", false)
		return "", false
	}
	var doc Transcript
	if err := json.Unmarshal(data, &doc); err != nil || strings.TrimSpace(doc.Text) == "" {
		log.Warn().Err(err).Int("applicationId", id).Msg("Ignoring unreadable cached transcript")
		metrics.CacheLookup("transcript", false)
		return "", false
	}
	metrics.CacheLookup("transcript", true)
	return doc.Text, true
}

// Put stores the transcript for id.
func (c *Cache) Put(ctx context.Context, id int, text string) error {
	data, err := json.Marshal(Transcript{ID: id, Text: text})
	if err != nil {
		return apperr.Markf(err, apperr.ErrCacheWrite, "marshal transcript %d", id)
	}
	return c.store.Put(ctx, objcache.TranscriptKey(id), data)
}
