package media

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/fpang/pitch-scorer/internal/apperr"
	"github.com/fpang/pitch-scorer/internal/metrics"
	"github.com/fpang/pitch-scorer/internal/sheets"
)

// Acquirer produces the audio artifact for an application. Artifacts are
// named by application id, so an interrupted run picks up where it left off.
type Acquirer struct {
	fs          afero.Fs
	workDir     string
	videoColumn string
	downloader  Downloader
	extractor   Extractor
}

// NewAcquirer creates an Acquirer working under workDir. fs must be the
// filesystem ffmpeg sees (afero.NewOsFs() outside tests).
func NewAcquirer(fs afero.Fs, workDir, videoColumn string, d Downloader, e Extractor) *Acquirer {
	return &Acquirer{fs: fs, workDir: workDir, videoColumn: videoColumn, downloader: d, extractor: e}
}

// AudioPath is the deterministic audio artifact location for id.
func (a *Acquirer) AudioPath(id int) string {
	return filepath.Join(a.workDir, fmt.Sprintf("%d.mp3", id))
}

func (a *Acquirer) videoPath(id int) string {
	return filepath.Join(a.workDir, fmt.Sprintf("%d.video", id))
}

// Acquire returns the path of the audio artifact for rec, downloading and
// converting the linked video only when no artifact exists yet. The source
// video is removed after a successful conversion. All failures are marked
// apperr.ErrMediaAcquisition.
func (a *Acquirer) Acquire(ctx context.Context, rec sheets.Record) (string, error) {
	audioPath := a.AudioPath(rec.ID)
	if ok, _ := afero.Exists(a.fs, audioPath); ok {
		log.Info().Int("applicationId", rec.ID).Str("path", audioPath).Msg("Reusing existing audio artifact")
		return audioPath, nil
	}

	fileID, err := DriveFileID(rec.Field(a.videoColumn))
	if err != nil {
		return "", err
	}
	if err := a.fs.MkdirAll(a.workDir, 0o755); err != nil {
		return "", apperr.Markf(err, apperr.ErrMediaAcquisition, "create work dir")
	}

	start := time.Now()
	videoPath := a.videoPath(rec.ID)
	if err := a.download(ctx, fileID, videoPath); err != nil {
		_ = a.fs.Remove(videoPath)
		return "", apperr.Markf(err, apperr.ErrMediaAcquisition, "download video for application %d", rec.ID)
	}
	downloadElapsed := time.Since(start)

	extractStart := time.Now()
	if err := a.extractor.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		_ = a.fs.Remove(audioPath)
		return "", apperr.Markf(err, apperr.ErrMediaAcquisition, "extract audio for application %d", rec.ID)
	}
	extractElapsed := time.Since(extractStart)

	if err := a.fs.Remove(videoPath); err != nil {
		log.Warn().Err(err).Str("path", videoPath).Msg("Failed to remove source video")
	}

	metrics.PipelineDuration.WithLabelValues("download").Observe(downloadElapsed.Seconds())
	metrics.PipelineDuration.WithLabelValues("extract_audio").Observe(extractElapsed.Seconds())
	metrics.New().
		Dimension("Operation", "acquireMedia").
		Duration("VideoDownloadMs", downloadElapsed).
		Duration("AudioExtractMs", extractElapsed).
		Property("applicationId", rec.ID).
		Flush()

	log.Info().
		Int("applicationId", rec.ID).
		Str("audioPath", audioPath).
		Dur("download", downloadElapsed).
		Dur("extract", extractElapsed).
		Msg("Media acquired")
	return audioPath, nil
}

func (a *Acquirer) download(ctx context.Context, fileID, dest string) error {
	f, err := a.fs.Create(dest)
	if err != nil {
		return err
	}
	if _, err := a.downloader.Download(ctx, fileID, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Release removes the audio artifact for id once its transcript is cached.
func (a *Acquirer) Release(id int) {
	p := a.AudioPath(id)
	if err := a.fs.Remove(p); err != nil {
		if ok, _ := afero.Exists(a.fs, p); ok {
			log.Warn().Err(err).Str("path", p).Msg("Failed to remove audio artifact")
		}
		return
	}
	log.Debug().Str("path", p).Msg("Audio artifact removed")
}
