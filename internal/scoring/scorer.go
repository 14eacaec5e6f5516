package scoring

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/assets"
	"github.com/fpang/pitch-scorer/internal/gemini"
	"github.com/fpang/pitch-scorer/internal/metrics"
)

// Scorer rates a transcript against the rubric for a result type.
type Scorer interface {
	Score(ctx context.Context, t ResultType, transcript, profile string) (Result, error)
}

// GeminiScorer asks a Gemini model for a JSON rating at temperature 0.
// Quota and transient failures are retried with exponential backoff;
// malformed output is not.
type GeminiScorer struct {
	gen         gemini.Generator
	model       string
	maxAttempts int
	backoff     time.Duration
}

// NewGeminiScorer creates a scorer using model.
func NewGeminiScorer(gen gemini.Generator, model string) *GeminiScorer {
	return &GeminiScorer{gen: gen, model: model, maxAttempts: 3, backoff: 2 * time.Second}
}

// Score implements Scorer. Every failure is marked apperr.ErrScoring.
func (s *GeminiScorer) Score(ctx context.Context, t ResultType, transcript, profile string) (Result, error) {
	system, err := assets.RenderScoringSystemPrompt(assets.ScoringSystemData{Kind: t.plural(), Criteria: Rubric(t)})
	if err != nil {
		return nil, apperr.Markf(err, apperr.ErrScoring, "render %s system prompt", t)
	}
	user, err := assets.RenderScoringUserPrompt(assets.ScoringUserData{Transcript: transcript, Profile: profile})
	if err != nil {
		return nil, apperr.Markf(err, apperr.ErrScoring, "render %s user prompt", t)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
	}
	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	start := time.Now()
	var raw string
	for attempt := 1; ; attempt++ {
		raw, err = s.gen.Generate(ctx, s.model, contents, cfg)
		if err == nil {
			break
		}
		class := gemini.Classify(err)
		if !class.Retryable() || attempt >= s.maxAttempts {
			return nil, apperr.Markf(err, apperr.ErrScoring, "score %s (%s, attempt %d)", t, class, attempt)
		}
		wait := s.backoff * time.Duration(1<<(attempt-1))
		log.Warn().Err(err).
			Str("resultType", string(t)).
			Str("errorClass", class.String()).
			Int("attempt", attempt).
			Dur("retryIn", wait).
			Msg("Scoring call failed, retrying")
		select {
		case <-ctx.Done():
			return nil, apperr.Markf(ctx.Err(), apperr.ErrScoring, "score %s", t)
		case <-time.After(wait):
		}
	}

	result, err := Parse(t, raw)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.PipelineDuration.WithLabelValues("score_" + string(t)).Observe(elapsed.Seconds())
	metrics.New().
		Dimension("Operation", "score").
		Dimension("ResultType", string(t)).
		Duration("ScoringMs", elapsed).
		Metric("AverageRating", result.Average(), metrics.UnitNone).
		Flush()
	log.Info().
		Str("resultType", string(t)).
		Int("criteria", len(result)).
		Float64("average", result.Average()).
		Dur("elapsed", elapsed).
		Msg("Scoring complete")
	return result, nil
}
