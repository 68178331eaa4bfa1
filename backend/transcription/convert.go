package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Converter normalizes arbitrary recorded audio to mono 16 kHz PCM WAV.
type Converter interface {
	ToWAV(ctx context.Context, audio []byte) ([]byte, error)
}

// FFmpegConverter shells out to ffmpeg. Input and output live in temporary
// files owned by a single call and removed on every return path.
type FFmpegConverter struct {
	Path    string
	TempDir string
	Timeout time.Duration
}

func NewFFmpegConverter(path string) *FFmpegConverter {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegConverter{Path: path, Timeout: 20 * time.Second}
}

func (f *FFmpegConverter) ToWAV(ctx context.Context, audio []byte) ([]byte, error) {
	if len(audio) == 0 {
		return nil, errors.New("ffmpeg: empty input")
	}

	in, err := os.CreateTemp(f.TempDir, "kotoba-attempt-*")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: create temp input: %w", err)
	}
	inPath := in.Name()
	defer os.Remove(inPath)

	if _, err := in.Write(audio); err != nil {
		in.Close()
		return nil, fmt.Errorf("ffmpeg: write temp input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("ffmpeg: close temp input: %w", err)
	}

	outPath := inPath + ".wav"
	defer os.Remove(outPath)

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", inPath,
		"-vn",
		"-ac", strconv.Itoa(targetChannels),
		"-ar", strconv.Itoa(targetSampleRate),
		"-sample_fmt", "s16",
		"-f", "wav", outPath,
	}
	cmd := exec.CommandContext(ctx, f.Path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w; out=%s", err, truncate(out, 500))
	}

	wav, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: output missing: %w", err)
	}
	if !IsPCM16kMonoWAV(wav) {
		return nil, errors.New("ffmpeg: output is not 16 kHz mono PCM WAV")
	}
	return wav, nil
}
