// Package checkpoint tracks the last application id processed by a batch
// run. The checkpoint is a single JSON document in the object cache; every
// write fully replaces it and there is no compare-and-swap.
package checkpoint

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/objcache"
)

// Record is the stored checkpoint document.
type Record struct {
	LastProcessedID int    `json:"last_processed_id"`
	Timestamp       string `json:"timestamp"` // RFC3339
}

// Tracker reads and writes the checkpoint.
type Tracker struct {
	store objcache.Store
	now   func() time.Time
}

// New creates a Tracker over store.
func New(store objcache.Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Get returns the stored record without side effects.
func (t *Tracker) Get(ctx context.Context) (Record, bool) {
	data, ok := t.store.Get(ctx, objcache.CheckpointKey)
	if !ok {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Warn().Err(err).Str("key", objcache.CheckpointKey).Msg("Checkpoint document is unreadable")
		return Record{}, false
	}
	return rec, true
}

// Load returns the last processed id. When no checkpoint exists it
// initializes one at 0 and returns 0. An unreadable document also yields 0
// but is left in place. A failed read returns an error and writes nothing,
// so a transient outage never resets a valid remote checkpoint.
func (t *Tracker) Load(ctx context.Context) (int, error) {
	data, err := t.store.Lookup(ctx, objcache.CheckpointKey)
	if apperr.Is(err, objcache.ErrNotFound) {
		if err := t.SetLastProcessed(ctx, 0); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize checkpoint")
		} else {
			log.Info().Msg("Checkpoint initialized at 0")
		}
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Wrap(err, "read checkpoint")
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Warn().Err(err).Str("key", objcache.CheckpointKey).Msg("Checkpoint document is unreadable, starting from 0")
		return 0, nil
	}
	return rec.LastProcessedID, nil
}

// LastProcessed is Load with read failures reported as 0.
func (t *Tracker) LastProcessed(ctx context.Context) int {
	id, err := t.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Checkpoint read failed, reporting 0")
		return 0
	}
	return id
}

// SetLastProcessed overwrites the checkpoint with id and the current time.
func (t *Tracker) SetLastProcessed(ctx context.Context, id int) error {
	data, err := json.Marshal(Record{
		LastProcessedID: id,
		Timestamp:       t.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return apperr.Markf(err, apperr.ErrCacheWrite, "marshal checkpoint")
	}
	if err := t.store.Put(ctx, objcache.CheckpointKey, data); err != nil {
		return err
	}
	log.Info().Int("lastProcessedId", id).Msg("Checkpoint updated")
	return nil
}
