package pipeline

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/objcache"
	"github.com/fpang/pitch-scorer/internal/results"
	"github.com/fpang/pitch-scorer/internal/scoring"
	"github.com/fpang/pitch-scorer/internal/sheets"
	"github.com/fpang/pitch-scorer/internal/transcribe"
)

type fakeSource struct {
	records []sheets.Record
	err     error
}

func (f *fakeSource) Read(context.Context) ([]sheets.Record, error) { return f.records, f.err }

type fakeMedia struct {
	acquired []int
	released []int
	err      error
}

func (f *fakeMedia) Acquire(_ context.Context, rec sheets.Record) (string, error) {
	f.acquired = append(f.acquired, rec.ID)
	if f.err != nil {
		return "", f.err
	}
	return "/work/audio.mp3", nil
}

func (f *fakeMedia) Release(id int) { f.released = append(f.released, id) }

type fakeTranscriber struct {
	calls int
	err   error
}

func (f *fakeTranscriber) Transcribe(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "We sell solar lanterns to rural schools.", nil
}

type fakeScorer struct {
	calls  map[scoring.ResultType]int
	failOn scoring.ResultType
}

func (f *fakeScorer) Score(_ context.Context, t scoring.ResultType, transcript, _ string) (scoring.Result, error) {
	if f.calls == nil {
		f.calls = map[scoring.ResultType]int{}
	}
	f.calls[t]++
	if t == f.failOn {
		return nil, apperr.Mark(apperr.New("model returned prose"), apperr.ErrScoring)
	}
	res := scoring.Result{}
	for i, name := range scoring.CriterionNames(t) {
		res[name] = scoring.Assessment{Rating: float64(i%10 + 1), Reasoning: "based on " + transcript}
	}
	return res, nil
}

type harness struct {
	fs          afero.Fs
	source      *fakeSource
	media       *fakeMedia
	transcriber *fakeTranscriber
	scorer      *fakeScorer
	runner      *Runner
}

func newHarness(store objcache.Store) *harness {
	h := &harness{
		source: &fakeSource{records: []sheets.Record{
			{ID: 101, Row: 2, Fields: map[string]string{"Company name": "Lumen"}, Columns: []string{"Company name"}},
			{ID: 102, Row: 3, Fields: map[string]string{"Company name": "Krishi"}, Columns: []string{"Company name"}},
		}},
		media:       &fakeMedia{},
		transcriber: &fakeTranscriber{},
		scorer:      &fakeScorer{},
	}
	h.runner = NewRunner(Deps{
		Source:      h.source,
		Media:       h.media,
		Transcriber: h.transcriber,
		Transcripts: transcribe.NewCache(store),
		Scorer:      h.scorer,
		Results:     results.New(store),
	})
	return h
}

func newMemHarness() *harness {
	fs := afero.NewMemMapFs()
	h := newHarness(objcache.NewFileStore(fs, "/cache"))
	h.fs = fs
	return h
}

func TestRun_ColdThenWarmIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newMemHarness()

	behavior, skill, err := h.runner.Run(ctx, 101)
	require.NoError(t, err)
	assert.ElementsMatch(t, scoring.CriterionNames(scoring.Behavior), behavior.Criteria())
	assert.ElementsMatch(t, scoring.CriterionNames(scoring.Skill), skill.Criteria())
	assert.Equal(t, []int{101}, h.media.acquired)
	assert.Equal(t, []int{101}, h.media.released)
	assert.Equal(t, 1, h.transcriber.calls)

	skillPath := "/cache/responses/101_responses_skill.json"
	first, err := afero.ReadFile(h.fs, skillPath)
	require.NoError(t, err)

	behavior2, skill2, err := h.runner.Run(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, behavior, behavior2)
	assert.Equal(t, skill, skill2)

	assert.Equal(t, 1, h.transcriber.calls, "warm run must not transcribe")
	assert.Equal(t, 1, h.scorer.calls[scoring.Behavior])
	assert.Equal(t, 1, h.scorer.calls[scoring.Skill])
	assert.Len(t, h.media.acquired, 1, "warm run must not touch media")

	second, err := afero.ReadFile(h.fs, skillPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_RecordNotFound(t *testing.T) {
	h := newMemHarness()

	_, _, err := h.runner.Run(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrRecordNotFound))
	assert.Empty(t, h.media.acquired)
}

func TestRun_SourceUnavailable(t *testing.T) {
	h := newMemHarness()
	h.source.err = apperr.Mark(apperr.New("403"), apperr.ErrSourceUnavailable)

	_, _, err := h.runner.Run(context.Background(), 101)
	assert.True(t, apperr.Is(err, apperr.ErrSourceUnavailable))
}

func TestRun_MediaFailureAborts(t *testing.T) {
	h := newMemHarness()
	h.media.err = apperr.Mark(apperr.New("not a drive link"), apperr.ErrMediaAcquisition)

	_, _, err := h.runner.Run(context.Background(), 101)
	assert.True(t, apperr.Is(err, apperr.ErrMediaAcquisition))
	assert.Zero(t, h.transcriber.calls)
	assert.Empty(t, h.scorer.calls)
}

func TestRun_TranscriptionFailureKeepsAudio(t *testing.T) {
	h := newMemHarness()
	h.transcriber.err = apperr.Mark(apperr.New("upload failed"), apperr.ErrTranscription)

	_, _, err := h.runner.Run(context.Background(), 101)
	assert.True(t, apperr.Is(err, apperr.ErrTranscription))
	assert.Empty(t, h.media.released)
}

func TestRun_ScoringFailureNotPersisted(t *testing.T) {
	ctx := context.Background()
	h := newMemHarness()
	h.scorer.failOn = scoring.Skill

	_, _, err := h.runner.Run(ctx, 102)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrScoring))

	ok, _ := afero.Exists(h.fs, "/cache/responses/102_responses_skill.json")
	assert.False(t, ok)
	ok, _ = afero.Exists(h.fs, "/cache/responses/102_responses_behavior.json")
	assert.True(t, ok, "behavior result is kept")

	// a retry only scores what is missing
	h.scorer.failOn = ""
	_, _, err = h.runner.Run(ctx, 102)
	require.NoError(t, err)
	assert.Equal(t, 1, h.scorer.calls[scoring.Behavior])
	assert.Equal(t, 2, h.scorer.calls[scoring.Skill])
	assert.Equal(t, 1, h.transcriber.calls)
}

func TestRun_CacheWriteFailureStillReturns(t *testing.T) {
	h := newHarness(objcache.NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/cache"))

	behavior, skill, err := h.runner.Run(context.Background(), 101)
	require.NoError(t, err)
	assert.NotEmpty(t, behavior)
	assert.NotEmpty(t, skill)
	assert.Empty(t, h.media.released, "audio is kept while the transcript is uncached")
}

func TestRun_CachedTranscriptSkipsMedia(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := objcache.NewFileStore(fs, "/cache")
	require.NoError(t, transcribe.NewCache(store).Put(ctx, 102, "cached pitch"))
	h := newHarness(store)

	_, skill, err := h.runner.Run(ctx, 102)
	require.NoError(t, err)
	assert.Empty(t, h.media.acquired)
	assert.Zero(t, h.transcriber.calls)
	for _, a := range skill {
		assert.Equal(t, "based on cached pitch", a.Reasoning)
	}
}
