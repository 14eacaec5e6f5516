// Package results persists Score Results in the object cache, one document
// per application and result type. Writes are last-write-wins.
package results

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/metrics"
	"github.com/fpang/pitch-scorer/internal/objcache"
	"github.com/fpang/pitch-scorer/internal/scoring"
)

// Store reads and writes Score Results.
type Store struct {
	cache objcache.Store
}

// New creates a result store over cache.
func New(cache objcache.Store) *Store {
	return &Store{cache: cache}
}

// Get returns the cached result for (id, t). Unreadable documents are
// reported as a miss.
func (s *Store) Get(ctx context.Context, id int, t scoring.ResultType) (scoring.Result, bool) {
	data, ok := s.cache.Get(ctx, objcache.ResponseKey(id, string(t)))
	if !ok {
		metrics.CacheLookup(string(t), false)
		return nil, false
	}
	var r scoring.Result
	if err := json.Unmarshal(data, &r); err != nil || len(r) == 0 {
		log.Warn().Err(err).Int("applicationId", id).Str("resultType", string(t)).Msg("Ignoring unreadable cached result")
		metrics.CacheLookup(string(t), false)
		return nil, false
	}
	metrics.CacheLookup(string(t), true)
	return r, true
}

// Put stores r for (id, t), replacing any previous result.
func (s *Store) Put(ctx context.Context, id int, t scoring.ResultType, r scoring.Result) error {
	data, err := r.Marshal()
	if err != nil {
		return apperr.Markf(err, apperr.ErrCacheWrite, "marshal %s result %d", t, id)
	}
	return s.cache.Put(ctx, objcache.ResponseKey(id, string(t)), data)
}
