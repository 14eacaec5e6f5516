package objcache

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/fpang/pitch-scorer/internal/apperr"
)

// FileStore keeps cache entries as files under a root directory. Keys map to
// relative paths, so "responses/12_responses_skill.json" lands in
// {root}/responses/12_responses_skill.json.
type FileStore struct {
	fs   afero.Fs
	root string
}

// NewFileStore creates a store rooted at root on fs. Pass afero.NewOsFs()
// for the real filesystem.
func NewFileStore(fs afero.Fs, root string) *FileStore {
	return &FileStore{fs: fs, root: root}
}

// Name implements Store.
func (s *FileStore) Name() string { return "file://" + s.root }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.Lookup(ctx, key)
	if err != nil {
		if !apperr.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("path", s.path(key)).Msg("Failed to read cache file, treating as cache miss")
		}
		return nil, false
	}
	return data, true
}

// Lookup implements Store.
func (s *FileStore) Lookup(_ context.Context, key string) ([]byte, error) {
	p := s.path(key)
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Markf(err, ErrNotFound, "read %s", p)
		}
		return nil, apperr.Wrapf(err, "read %s", p)
	}
	return data, nil
}

// Put implements Store. Data is written to a temp file and renamed into
// place so readers never observe a partial document.
func (s *FileStore) Put(_ context.Context, key string, data []byte) error {
	p := s.path(key)
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return apperr.Markf(err, apperr.ErrCacheWrite, "create cache dir for %s", key)
	}
	tmp := p + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return apperr.Markf(err, apperr.ErrCacheWrite, "write %s", tmp)
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		_ = s.fs.Remove(tmp)
		return apperr.Markf(err, apperr.ErrCacheWrite, "rename %s", tmp)
	}
	log.Debug().Str("path", p).Int("bytes", len(data)).Msg("Cache entry written")
	return nil
}
