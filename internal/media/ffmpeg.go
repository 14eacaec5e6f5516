package media

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// Audio extraction settings.
const (
	AudioCodec      = "libmp3lame"
	AudioBitrate    = "192k"
	AudioSampleRate = "44100"
)

// Extractor converts a video file to an audio file.
type Extractor interface {
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error
}

// FFmpegExtractor shells out to ffmpeg.
type FFmpegExtractor struct {
	Path string // binary name or absolute path, default "ffmpeg"
}

func (e FFmpegExtractor) binary() string {
	if e.Path == "" {
		return "ffmpeg"
	}
	return e.Path
}

// CheckAvailable reports whether the ffmpeg binary can be found.
func (e FFmpegExtractor) CheckAvailable() error {
	path, err := exec.LookPath(e.binary())
	if err != nil {
		return fmt.Errorf("ffmpeg not found (%s): audio extraction unavailable. Install FFmpeg with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)", e.binary())
	}
	log.Debug().Str("path", path).Msg("ffmpeg found")
	return nil
}

// ExtractAudio implements Extractor.
func (e FFmpegExtractor) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	ffmpegPath, err := exec.LookPath(e.binary())
	if err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	args := buildAudioArgs(videoPath, audioPath)
	log.Debug().Strs("args", args).Msg("Running ffmpeg audio extraction")

	start := time.Now()
	output, err := exec.CommandContext(ctx, ffmpegPath, args...).CombinedOutput()
	elapsed := time.Since(start)
	if err != nil {
		log.Warn().
			Err(err).
			Str("input", videoPath).
			Str("ffmpeg_output", tail(string(output), 2000)).
			Dur("duration", elapsed).
			Msg("ffmpeg audio extraction failed")
		return fmt.Errorf("ffmpeg audio extraction failed: %w", err)
	}
	log.Info().
		Str("input", videoPath).
		Str("output", audioPath).
		Dur("duration", elapsed).
		Msg("Audio extracted")
	return nil
}

// buildAudioArgs drops the video stream and encodes MP3 at 192 kbps, 44.1 kHz,
// overwriting any existing output.
func buildAudioArgs(videoPath, audioPath string) []string {
	return []string{
		"-i", videoPath,
		"-vn",
		"-acodec", AudioCodec,
		"-ab", AudioBitrate,
		"-ar", AudioSampleRate,
		"-y",
		audioPath,
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
