package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
)

// acquireLock takes the host-wide batch lock so a CLI batch and a serving
// scheduler never run passes at the same time. The returned func releases it.
func acquireLock(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another pitch-scorer process is running batches (%s)", path)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to release lock")
		}
	}, nil
}
