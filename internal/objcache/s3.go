package objcache

import (
	"bytes"
	"context"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/apperr"
)

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps cache entries in an S3 bucket. Enable bucket versioning to
// retain the history of overwritten checkpoints and results.
type S3Store struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Store creates an S3-backed store. prefix may be empty.
func NewS3Store(client s3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Name implements Store.
func (s *S3Store) Name() string { return "s3://" + path.Join(s.bucket, s.prefix) }

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Get implements Store. A missing object is a silent miss; every other
// failure is logged at warn level and also treated as a miss.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.Lookup(ctx, key)
	if err != nil {
		if !apperr.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("bucket", s.bucket).Str("key", s.objectKey(key)).Msg("S3 GetObject failed, treating as cache miss")
		}
		return nil, false
	}
	return data, true
}

// Lookup implements Store.
func (s *S3Store) Lookup(ctx context.Context, key string) ([]byte, error) {
	objKey := s.objectKey(key)
	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if apperr.As(err, &nsk) {
			log.Debug().Str("bucket", s.bucket).Str("key", objKey).Msg("Cache miss")
			return nil, apperr.Markf(err, ErrNotFound, "S3 GetObject %s", objKey)
		}
		return nil, apperr.Wrapf(err, "S3 GetObject %s", objKey)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperr.Wrapf(err, "read S3 object %s", objKey)
	}
	log.Debug().
		Str("key", objKey).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("Cache hit")
	return data, nil
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	objKey := s.objectKey(key)
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return apperr.Markf(err, apperr.ErrCacheWrite, "S3 PutObject %s", objKey)
	}
	evt := log.Debug().Str("bucket", s.bucket).Str("key", objKey).Int("bytes", len(data))
	if out != nil && out.VersionId != nil {
		evt = evt.Str("versionId", *out.VersionId)
	}
	evt.Msg("Cache entry written")
	return nil
}
