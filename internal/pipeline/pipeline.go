// Package pipeline runs the per-application flow: locate the record, turn
// its pitch video into a transcript, and produce the behavior and skill
// Score Results. Every stage is cached, so re-running a completed id makes
// no transcription or scoring calls.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/metrics"
	"github.com/fpang/pitch-scorer/internal/profile"
	"github.com/fpang/pitch-scorer/internal/scoring"
	"github.com/fpang/pitch-scorer/internal/sheets"
	"github.com/fpang/pitch-scorer/internal/transcribe"
)

// MediaSource produces a local audio artifact for a record.
type MediaSource interface {
	Acquire(ctx context.Context, rec sheets.Record) (string, error)
	Release(id int)
}

// TranscriptCache stores transcripts by application id.
type TranscriptCache interface {
	Get(ctx context.Context, id int) (string, bool)
	Put(ctx context.Context, id int, text string) error
}

// ResultStore stores Score Results by application id and result type.
type ResultStore interface {
	Get(ctx context.Context, id int, t scoring.ResultType) (scoring.Result, bool)
	Put(ctx context.Context, id int, t scoring.ResultType, r scoring.Result) error
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Source      sheets.Reader
	Media       MediaSource
	Transcriber transcribe.Transcriber
	Transcripts TranscriptCache
	Scorer      scoring.Scorer
	Results     ResultStore
	// Excluded columns are left out of the company profile.
	Excluded []string
}

// Runner executes the pipeline for one application id at a time. It is
// safe for concurrent use when its collaborators are.
type Runner struct {
	d Deps
}

// NewRunner creates a Runner.
func NewRunner(d Deps) *Runner {
	return &Runner{d: d}
}

// Run produces the behavior and skill results for id. Any failure aborts
// the id; results persisted before the failure stay cached.
func (r *Runner) Run(ctx context.Context, id int) (behavior, skill scoring.Result, err error) {
	start := time.Now()
	logger := log.With().Int("applicationId", id).Logger()

	records, err := r.d.Source.Read(ctx)
	if err != nil {
		return nil, nil, err
	}
	rec, ok := sheets.Find(records, id)
	if !ok {
		return nil, nil, apperr.Markf(apperr.New("no such application"), apperr.ErrRecordNotFound, "application %d", id)
	}

	transcript, err := r.transcript(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	companyProfile := profile.Format(rec, r.d.Excluded)

	out := make(map[scoring.ResultType]scoring.Result, len(scoring.ResultTypes))
	for _, t := range scoring.ResultTypes {
		res, err := r.score(ctx, id, t, transcript, companyProfile)
		if err != nil {
			return nil, nil, err
		}
		out[t] = res
	}

	elapsed := time.Since(start)
	metrics.PipelineDuration.WithLabelValues("total").Observe(elapsed.Seconds())
	logger.Info().Dur("duration", elapsed).Msg("Application scored")
	return out[scoring.Behavior], out[scoring.Skill], nil
}

func (r *Runner) transcript(ctx context.Context, rec sheets.Record) (string, error) {
	if text, ok := r.d.Transcripts.Get(ctx, rec.ID); ok {
		log.Debug().Int("applicationId", rec.ID).Msg("Using cached transcript")
		return text, nil
	}

	audioPath, err := r.d.Media.Acquire(ctx, rec)
	if err != nil {
		return "", err
	}

	text, err := r.d.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		// the audio artifact is kept so a retry skips the download
		return "", err
	}

	if err := r.d.Transcripts.Put(ctx, rec.ID, text); err != nil {
		log.Warn().Err(err).Int("applicationId", rec.ID).Msg("Failed to cache transcript")
		return text, nil
	}
	r.d.Media.Release(rec.ID)
	return text, nil
}

func (r *Runner) score(ctx context.Context, id int, t scoring.ResultType, transcript, companyProfile string) (scoring.Result, error) {
	if res, ok := r.d.Results.Get(ctx, id, t); ok {
		log.Debug().Int("applicationId", id).Str("resultType", string(t)).Msg("Using cached result")
		return res, nil
	}

	res, err := r.d.Scorer.Score(ctx, t, transcript, companyProfile)
	if err != nil {
		return nil, err
	}

	if err := r.d.Results.Put(ctx, id, t, res); err != nil {
		log.Warn().Err(err).Int("applicationId", id).Str("resultType", string(t)).Msg("Failed to cache result")
	}
	return res, nil
}
