package checkpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/objcache"
)

func newTracker(fs afero.Fs) *Tracker {
	tr := New(objcache.NewFileStore(fs, "/c"))
	tr.now = func() time.Time { return time.Date(2026, 3, 1, 2, 0, 5, 0, time.UTC) }
	return tr
}

func TestLastProcessed_InitializesWhenMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr := newTracker(fs)

	assert.Equal(t, 0, tr.LastProcessed(context.Background()))

	raw, err := afero.ReadFile(fs, "/c/tracking/last_processed_id.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_processed_id":0,"timestamp":"2026-03-01T02:00:05Z"}`, string(raw))
}

func TestSetLastProcessed_Overwrites(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(afero.NewMemMapFs())

	require.NoError(t, tr.SetLastProcessed(ctx, 103))
	assert.Equal(t, 103, tr.LastProcessed(ctx))

	require.NoError(t, tr.SetLastProcessed(ctx, 99))
	assert.Equal(t, 99, tr.LastProcessed(ctx), "no monotonicity check on write")

	rec, ok := tr.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, Record{LastProcessedID: 99, Timestamp: "2026-03-01T02:00:05Z"}, rec)
}

func TestLastProcessed_UnreadableIsZeroAndKept(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c/tracking/last_processed_id.json", []byte("garbage"), 0o644))
	tr := newTracker(fs)

	assert.Equal(t, 0, tr.LastProcessed(ctx))
	raw, _ := afero.ReadFile(fs, "/c/tracking/last_processed_id.json")
	assert.Equal(t, "garbage", string(raw))

	_, ok := tr.Get(ctx)
	assert.False(t, ok)
}

func TestSetLastProcessed_WriteFailure(t *testing.T) {
	tr := New(objcache.NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/c"))

	err := tr.SetLastProcessed(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrCacheWrite))

	// read path still degrades to 0
	assert.Equal(t, 0, tr.LastProcessed(context.Background()))
}

// flakyStore fails every read and records writes.
type flakyStore struct {
	puts int
}

func (f *flakyStore) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (f *flakyStore) Lookup(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection reset by peer")
}

func (f *flakyStore) Put(context.Context, string, []byte) error {
	f.puts++
	return nil
}

func (f *flakyStore) Name() string { return "flaky" }

func TestLoad_ReadFailureKeepsRemoteCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{}
	tr := New(store)

	id, err := tr.Load(ctx)
	require.Error(t, err)
	assert.Zero(t, id)

	assert.Equal(t, 0, tr.LastProcessed(ctx))
	assert.Zero(t, store.puts, "a failed read must not overwrite the checkpoint")
}
