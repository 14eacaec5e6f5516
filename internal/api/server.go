// Package api is the HTTP front-end: list applications, read cached
// results, score a single application, inspect the checkpoint and start a
// batch run.
//
// Endpoints:
//
//	GET  /api/health
//	GET  /api/applications
//	GET  /api/applications/{id}/results
//	POST /api/applications/{id}/score
//	GET  /api/checkpoint
//	GET  /api/batch
//	POST /api/batch/run
//	GET  /metrics
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fpang/pitch-scorer/internal/checkpoint"
	"github.com/fpang/pitch-scorer/internal/scoring"
	"github.com/fpang/pitch-scorer/internal/sheets"
)

// Pipeline scores one application.
type Pipeline interface {
	Run(ctx context.Context, id int) (behavior, skill scoring.Result, err error)
}

// ResultReader reads cached Score Results.
type ResultReader interface {
	Get(ctx context.Context, id int, t scoring.ResultType) (scoring.Result, bool)
}

// CheckpointReader reads the checkpoint without side effects.
type CheckpointReader interface {
	Get(ctx context.Context) (checkpoint.Record, bool)
}

// Scheduler is the batch trigger. TriggerNow must refuse to start a run
// while one is in progress.
type Scheduler interface {
	TriggerNow() bool
	Running() bool
	Armed() bool
	LastRunDate() string
	NextRun() time.Time
}

// Options configures a Server. Scheduler may be nil, in which case batch
// runs cannot be started over HTTP.
type Options struct {
	Source     sheets.Reader
	Pipeline   Pipeline
	Results    ResultReader
	Checkpoint CheckpointReader
	Scheduler  Scheduler

	Version    string
	CORSOrigin string
	Gzip       bool
}

// Server serves the API.
type Server struct {
	opts Options
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	return &Server{opts: opts}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/applications", s.handleApplications)
	mux.HandleFunc("GET /api/applications/{id}/results", s.handleResults)
	mux.HandleFunc("POST /api/applications/{id}/score", s.handleScore)
	mux.HandleFunc("GET /api/checkpoint", s.handleCheckpoint)
	mux.HandleFunc("GET /api/batch", s.handleBatchStatus)
	mux.HandleFunc("POST /api/batch/run", s.handleBatchRun)
	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = withMetrics(mux)
	h = withCORS(s.opts.CORSOrigin, h)
	h = withLogging(h)
	if s.opts.Gzip {
		h = gzhttp.GzipHandler(h)
	}
	return h
}
