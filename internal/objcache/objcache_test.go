package objcache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/pitch-scorer/internal/apperr"
)

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
	putErr  error
	version int
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	f.version++
	return &s3.PutObjectOutput{VersionId: aws.String("v" + string(rune('0'+f.version)))}, nil
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "responses/104_responses_skill.json", ResponseKey(104, "skill"))
	assert.Equal(t, "responses/7_responses_behavior.json", ResponseKey(7, "behavior"))
	assert.Equal(t, "transcriptions/104.json", TranscriptKey(104))
	assert.Equal(t, "tracking/last_processed_id.json", CheckpointKey)
}

func TestS3Store_RoundTripWithPrefix(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", "pitch")

	_, ok := store.Get(ctx, CheckpointKey)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, CheckpointKey, []byte(`{"last_processed_id":3}`)))
	assert.Contains(t, fake.objects, "bucket/pitch/tracking/last_processed_id.json")

	data, ok := store.Get(ctx, CheckpointKey)
	require.True(t, ok)
	assert.JSONEq(t, `{"last_processed_id":3}`, string(data))

	require.NoError(t, store.Put(ctx, CheckpointKey, []byte(`{"last_processed_id":4}`)))
	data, _ = store.Get(ctx, CheckpointKey)
	assert.JSONEq(t, `{"last_processed_id":4}`, string(data))
}

func TestS3Store_GetFailureIsMiss(t *testing.T) {
	fake := newFakeS3()
	fake.objects["bucket/k"] = []byte("x")
	fake.getErr = errors.New("connection reset by peer")

	data, ok := NewS3Store(fake, "bucket", "").Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestS3Store_LookupSeparatesMissFromFailure(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", "")

	_, err := store.Lookup(ctx, "absent")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, ErrNotFound))

	fake.getErr = errors.New("connection reset by peer")
	_, err = store.Lookup(ctx, "absent")
	require.Error(t, err)
	assert.False(t, apperr.Is(err, ErrNotFound))
}

func TestS3Store_PutFailureIsCacheWrite(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("AccessDenied")

	err := NewS3Store(fake, "bucket", "").Put(context.Background(), "k", []byte("x"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrCacheWrite))
	assert.Equal(t, "cache_write", apperr.Kind(err))
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "/cache")

	_, ok := store.Get(ctx, TranscriptKey(9))
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, TranscriptKey(9), []byte(`{"id":9}`)))
	exists, err := afero.Exists(fs, "/cache/transcriptions/9.json")
	require.NoError(t, err)
	assert.True(t, exists)

	tmpExists, _ := afero.Exists(fs, "/cache/transcriptions/9.json.tmp")
	assert.False(t, tmpExists)

	data, ok := store.Get(ctx, TranscriptKey(9))
	require.True(t, ok)
	assert.Equal(t, `{"id":9}`, string(data))
}

func TestFileStore_LookupMissing(t *testing.T) {
	_, err := NewFileStore(afero.NewMemMapFs(), "/cache").Lookup(context.Background(), CheckpointKey)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, ErrNotFound))
}

func TestFileStore_PutFailureIsCacheWrite(t *testing.T) {
	store := NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/cache")

	err := store.Put(context.Background(), "responses/1_responses_skill.json", []byte("{}"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrCacheWrite))
}

func TestStoresImplementInterface(t *testing.T) {
	var _ Store = (*S3Store)(nil)
	var _ Store = (*FileStore)(nil)
}
