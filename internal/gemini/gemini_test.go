package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

func TestResolveModel(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "")
	assert.Equal(t, DefaultModelName, ResolveModel(""))
	assert.Equal(t, ModelGemini25Pro, ResolveModel(ModelGemini25Pro))

	t.Setenv("GEMINI_MODEL", ModelGemini25Flash)
	assert.Equal(t, ModelGemini25Flash, ResolveModel(ModelGemini25Pro))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      ErrorClass
		retryable bool
	}{
		{"nil", nil, ClassNone, false},
		{"api 429", fmt.Errorf("generate: %w", genai.APIError{Code: 429}), ClassQuota, true},
		{"api 403", genai.APIError{Code: 403}, ClassAuth, false},
		{"api 503", genai.APIError{Code: 503}, ClassTransient, true},
		{"api 400", genai.APIError{Code: 400}, ClassBadRequest, false},
		{"msg key", errors.New("API key not valid. Please pass a valid API key."), ClassAuth, false},
		{"msg quota", errors.New("RESOURCE EXHAUSTED: quota"), ClassQuota, true},
		{"msg network", errors.New("dial tcp: lookup generativelanguage.googleapis.com: no such host"), ClassTransient, true},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ClassTransient, true},
		{"canceled", context.Canceled, ClassUnknown, false},
		{"other", errors.New("something odd"), ClassUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.retryable, got.Retryable())
		})
	}
}

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "quota", ClassQuota.String())
	assert.Equal(t, "bad_request", ClassBadRequest.String())
	assert.Equal(t, "unknown", ErrorClass(99).String())
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", 10, 0)
	assert.Error(t, err)
}

type fakeFiles struct {
	polled    *genai.File
	getErr    error
	deleted   []string
	deleteErr []error
	onUpload  func()
}

func (f *fakeFiles) Upload(_ context.Context, r io.Reader, _ *genai.UploadFileConfig) (*genai.File, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	if f.onUpload != nil {
		f.onUpload()
	}
	return &genai.File{Name: "files/abc", State: genai.FileStateProcessing}, nil
}

func (f *fakeFiles) Get(ctx context.Context, _ string, _ *genai.GetFileConfig) (*genai.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.polled, nil
}

func (f *fakeFiles) Delete(ctx context.Context, name string, _ *genai.DeleteFileConfig) (*genai.DeleteFileResponse, error) {
	f.deleted = append(f.deleted, name)
	f.deleteErr = append(f.deleteErr, ctx.Err())
	return &genai.DeleteFileResponse{}, nil
}

func newFilesClient(t *testing.T, files *fakeFiles) (*Client, string) {
	t.Helper()
	audio := filepath.Join(t.TempDir(), "1.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("ID3"), 0o644))
	return &Client{
		files:         files,
		limiter:       rate.NewLimiter(rate.Inf, 0),
		uploadTimeout: time.Minute,
		pollInterval:  time.Millisecond,
	}, audio
}

func TestUpload_ReadyFileIsKept(t *testing.T) {
	files := &fakeFiles{polled: &genai.File{Name: "files/abc", URI: "https://x/files/abc", State: genai.FileStateActive}}
	c, audio := newFilesClient(t, files)

	file, err := c.Upload(context.Background(), audio, "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "files/abc", file.Name)
	assert.Empty(t, files.deleted)
}

func TestUpload_DeletesAbandonedFile(t *testing.T) {
	tests := []struct {
		name   string
		files  *fakeFiles
		cancel bool
	}{
		{"processing failed", &fakeFiles{polled: &genai.File{Name: "files/abc", State: genai.FileStateFailed}}, false},
		{"state poll error", &fakeFiles{getErr: errors.New("503 unavailable")}, false},
		{"cancelled", &fakeFiles{polled: &genai.File{Name: "files/abc", State: genai.FileStateProcessing}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, audio := newFilesClient(t, tt.files)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				c.pollInterval = time.Hour
				tt.files.onUpload = cancel
			}

			_, err := c.Upload(ctx, audio, "audio/mpeg")
			require.Error(t, err)
			assert.Equal(t, []string{"files/abc"}, tt.files.deleted)
			assert.NoError(t, tt.files.deleteErr[0])
		})
	}
}

func TestUpload_DeletesOnTimeout(t *testing.T) {
	files := &fakeFiles{polled: &genai.File{Name: "files/abc", State: genai.FileStateProcessing}}
	c, audio := newFilesClient(t, files)
	c.uploadTimeout = 5 * time.Millisecond

	_, err := c.Upload(context.Background(), audio, "audio/mpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, []string{"files/abc"}, files.deleted)
}
