// Package batch implements the incremental batch pass over the application
// sheet. Each pass resumes at the checkpoint, attempts every id from there
// to the end of the sheet in sheet order, and advances the checkpoint to the
// last id that succeeded.
//
// The id at the checkpoint is attempted again on every pass. Its results
// are cached, so the repeat costs one sheet read and a few cache lookups.
package batch

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/events"
	"github.com/fpang/pitch-scorer/internal/metrics"
	"github.com/fpang/pitch-scorer/internal/scoring"
	"github.com/fpang/pitch-scorer/internal/sheets"
)

// Pipeline scores a single application.
type Pipeline interface {
	Run(ctx context.Context, id int) (behavior, skill scoring.Result, err error)
}

// Tracker persists the checkpoint.
type Tracker interface {
	Load(ctx context.Context) (int, error)
	SetLastProcessed(ctx context.Context, id int) error
}

// Publisher receives the completion report. Optional.
type Publisher interface {
	Publish(ctx context.Context, detailType string, detail interface{}) error
}

// Report describes one pass.
type Report struct {
	RunID            string         `json:"runId"`
	StartedAt        time.Time      `json:"startedAt"`
	FinishedAt       time.Time      `json:"finishedAt"`
	CheckpointBefore int            `json:"checkpointBefore"`
	CheckpointAfter  int            `json:"checkpointAfter"`
	Attempted        int            `json:"attempted"`
	Processed        int            `json:"processed"`
	Failed           int            `json:"failed"`
	FailuresByKind   map[string]int `json:"failuresByKind,omitempty"`
	FailedIDs        []int          `json:"failedIds,omitempty"`
	SourceError      string         `json:"sourceError,omitempty"`
}

// Processor runs batch passes.
type Processor struct {
	source    sheets.Reader
	tracker   Tracker
	pipeline  Pipeline
	publisher Publisher
	now       func() time.Time
}

// NewProcessor creates a Processor. publisher may be nil.
func NewProcessor(source sheets.Reader, tracker Tracker, pipeline Pipeline, publisher Publisher) *Processor {
	return &Processor{
		source:    source,
		tracker:   tracker,
		pipeline:  pipeline,
		publisher: publisher,
		now:       time.Now,
	}
}

// ProcessNewApplications runs one pass and returns how many ids succeeded.
func (p *Processor) ProcessNewApplications(ctx context.Context) int {
	return p.Run(ctx).Processed
}

// Run runs one pass. Per-id failures are logged and skipped; a sheet read
// failure ends the pass with nothing processed and the checkpoint untouched.
// When the checkpoint cannot be read only the newest id is attempted.
// Cancelling ctx stops the pass between ids.
func (p *Processor) Run(ctx context.Context) Report {
	rep := Report{
		RunID:          uuid.NewString(),
		StartedAt:      p.now(),
		FailuresByKind: map[string]int{},
	}
	logger := log.With().Str("runId", rep.RunID).Logger()

	metrics.BatchRunning.Set(1)
	defer metrics.BatchRunning.Set(0)

	last, err := p.tracker.Load(ctx)
	checkpointLost := err != nil
	if checkpointLost {
		logger.Error().Err(err).Msg("Checkpoint read failed, attempting only the newest application")
	}
	rep.CheckpointBefore, rep.CheckpointAfter = last, last

	records, err := p.source.Read(ctx)
	if err != nil {
		logger.Error().Err(err).Str("errorKind", apperr.Kind(err)).Msg("Application source unavailable, skipping batch")
		rep.SourceError = err.Error()
		rep.FinishedAt = p.now()
		p.finish(ctx, rep, "source_unavailable")
		return rep
	}
	ids := sheets.IDs(records)

	start := startIndex(ids, last)
	if checkpointLost {
		start = len(ids) - 1
	}
	logger.Info().
		Int("lastProcessedId", last).
		Int("total", len(ids)).
		Int("startIndex", start).
		Msg("Batch started")

	newLast := last
	for i := start; i >= 0 && i < len(ids); i++ {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Int("remaining", len(ids)-i).Msg("Batch interrupted")
			break
		}
		id := ids[i]
		rep.Attempted++
		if _, _, err := p.pipeline.Run(ctx, id); err != nil {
			kind := apperr.Kind(err)
			rep.Failed++
			rep.FailuresByKind[kind]++
			rep.FailedIDs = append(rep.FailedIDs, id)
			metrics.ApplicationsProcessed.WithLabelValues(kind).Inc()
			logger.Error().Err(err).Int("applicationId", id).Str("errorKind", kind).Msg("Application failed")
			continue
		}
		rep.Processed++
		newLast = id
		metrics.ApplicationsProcessed.WithLabelValues("success").Inc()
	}

	if newLast != last {
		// Progress is saved even when the pass was interrupted.
		if err := p.tracker.SetLastProcessed(context.WithoutCancel(ctx), newLast); err != nil {
			logger.Error().Err(err).Int("lastProcessedId", newLast).Msg("Failed to advance checkpoint")
		} else {
			rep.CheckpointAfter = newLast
		}
	}
	rep.FinishedAt = p.now()
	p.finish(ctx, rep, "completed")
	return rep
}

// startIndex is the index of last in ids. A fresh checkpoint (0) that is
// not in the sheet starts at the first row; any other unknown checkpoint,
// such as an id deleted from the sheet, only attempts the newest row.
func startIndex(ids []int, last int) int {
	for i, id := range ids {
		if id == last {
			return i
		}
	}
	if last == 0 {
		return 0
	}
	return len(ids) - 1
}

func (p *Processor) finish(ctx context.Context, rep Report, outcome string) {
	elapsed := rep.FinishedAt.Sub(rep.StartedAt)

	metrics.BatchRuns.WithLabelValues(outcome).Inc()
	metrics.Checkpoint.Set(float64(rep.CheckpointAfter))

	m := metrics.New().
		Dimension("Operation", "batch").
		Metric("ApplicationsAttempted", float64(rep.Attempted), "Count").
		Metric("ApplicationsProcessed", float64(rep.Processed), "Count").
		Metric("ApplicationsFailed", float64(rep.Failed), "Count").
		Duration("BatchDurationMs", elapsed).
		Property("runId", rep.RunID).
		Property("outcome", outcome)
	kinds := make([]string, 0, len(rep.FailuresByKind))
	for k := range rep.FailuresByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		m.Property("failed_"+k, rep.FailuresByKind[k])
	}
	m.Flush()

	log.Info().
		Str("runId", rep.RunID).
		Str("outcome", outcome).
		Int("attempted", rep.Attempted).
		Int("processed", rep.Processed).
		Int("failed", rep.Failed).
		Int("checkpointBefore", rep.CheckpointBefore).
		Int("checkpointAfter", rep.CheckpointAfter).
		Dur("duration", elapsed).
		Msg("Batch finished")

	if p.publisher != nil {
		if err := p.publisher.Publish(context.WithoutCancel(ctx), events.DetailTypeBatchCompleted, rep); err != nil {
			log.Warn().Err(err).Str("runId", rep.RunID).Msg("Failed to publish batch report")
		}
	}
}
