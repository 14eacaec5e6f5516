// Package apperr is the error toolkit for the scoring service.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping,
// marks) and defines the failure taxonomy used across the pipeline. Every
// component marks its failures with one of the sentinels below so callers
// can branch with Is without caring which layer produced the error:
//
//	if apperr.Is(err, apperr.ErrScoring) {
//	    // malformed LLM output, nothing was persisted
//	}
package apperr

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New         = crdb.New
	Newf        = crdb.Newf
	Wrap        = crdb.Wrap
	Wrapf       = crdb.Wrapf
	Is          = crdb.Is
	IsAny       = crdb.IsAny
	As          = crdb.As
	Mark        = crdb.Mark
	WithHint    = crdb.WithHint
	GetAllHints = crdb.GetAllHints
	UnwrapAll   = crdb.UnwrapAll
)

// Failure taxonomy.
var (
	// ErrSourceUnavailable means the application sheet could not be read or parsed.
	// A batch that hits it processes nothing.
	ErrSourceUnavailable = New("application source unavailable")

	// ErrRecordNotFound means an id is no longer present in the sheet.
	ErrRecordNotFound = New("application record not found")

	// ErrMediaAcquisition covers missing or malformed video links and download
	// or audio extraction failures.
	ErrMediaAcquisition = New("media acquisition failed")

	// ErrTranscription means the transcription service failed for an audio artifact.
	ErrTranscription = New("transcription failed")

	// ErrScoring covers LLM transport errors and output that does not match the rubric.
	ErrScoring = New("scoring failed")

	// ErrCacheWrite means the remote object cache rejected a put.
	ErrCacheWrite = New("cache write failed")
)

// Kind returns a stable label for err, used as a log field and a metric dimension.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case Is(err, ErrRecordNotFound):
		return "record_not_found"
	case Is(err, ErrMediaAcquisition):
		return "media_acquisition"
	case Is(err, ErrTranscription):
		return "transcription"
	case Is(err, ErrScoring):
		return "scoring"
	case Is(err, ErrCacheWrite):
		return "cache_write"
	default:
		return "unknown"
	}
}

// Markf wraps err with a formatted message and marks it with kind.
func Markf(err error, kind error, format string, args ...interface{}) error {
	return Mark(Wrapf(err, format, args...), kind)
}
