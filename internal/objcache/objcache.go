// Package objcache is the Remote Object Cache: a flat key/value blob store
// holding Score Results, transcripts and the checkpoint record.
//
// Key existence is the only hit signal. There is no TTL, no invalidation and
// no multi-key atomicity; every Put fully replaces the previous value.
package objcache

import (
	"context"
	"fmt"

	"github.com/fpang/pitch-scorer/internal/apperr"
)

// ErrNotFound is returned by Lookup when key does not exist.
var ErrNotFound = apperr.New("cache key not found")

// Store is implemented by every cache backend.
type Store interface {
	// Get returns the blob stored under key. Any lookup or transport failure
	// is logged by the backend and reported as a miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Lookup is Get for callers that must tell a missing key (ErrNotFound)
	// apart from a failed read.
	Lookup(ctx context.Context, key string) ([]byte, error)

	// Put uploads data under key, overwriting any previous value. Failures are
	// marked apperr.ErrCacheWrite.
	Put(ctx context.Context, key string, data []byte) error

	// Name identifies the backend in logs.
	Name() string
}

// Cache key layout.
const (
	responsesPrefix      = "responses/"
	trackingPrefix       = "tracking/"
	transcriptionsPrefix = "transcriptions/"

	// CheckpointKey holds the last processed application id.
	CheckpointKey = trackingPrefix + "last_processed_id.json"
)

// ResponseKey is the key of the Score Result for an application and result
// type ("skill" or "behavior").
func ResponseKey(id int, resultType string) string {
	return fmt.Sprintf("%s%d_responses_%s.json", responsesPrefix, id, resultType)
}

// TranscriptKey is the key of the cached transcript for an application.
func TranscriptKey(id int) string {
	return fmt.Sprintf("%s%d.json", transcriptionsPrefix, id)
}
