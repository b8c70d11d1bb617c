package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// PreprocessOptions selects the optional ffmpeg cleanup filters applied
// before resampling.
type PreprocessOptions struct {
	Loudnorm bool `yaml:"loudnorm"`
	Denoise  bool `yaml:"denoise"`
}

// filterChain builds the ffmpeg -af argument: optional loudness
// normalization and denoising, then a fixed band-pass that strips rumble
// and hiss outside the speech range, then a high quality soxr resample.
func (o PreprocessOptions) filterChain() string {
	var filters []string
	if o.Loudnorm {
		filters = append(filters, "loudnorm=I=-23:TP=-2:LRA=7")
	}
	if o.Denoise {
		filters = append(filters, "afftdn=nr=12")
	}
	filters = append(filters,
		"highpass=f=80",
		"lowpass=f=12000",
		"aresample=resampler=soxr:precision=33",
	)
	return strings.Join(filters, ",")
}

// EnsureWAV16kMono returns the path of a 16KHz mono PCM WAV for the given
// input, converting through ffmpeg into workDir when needed. Inputs that
// are already conformant and need no preprocessing are returned untouched.
func EnsureWAV16kMono(ctx context.Context, inputPath, workDir string, opts PreprocessOptions) (string, error) {
	if !opts.Loudnorm && !opts.Denoise && ProbeWAV16kMono(inputPath) {
		return inputPath, nil
	}

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	outPath := filepath.Join(workDir, "audio_16k_mono.wav")
	args := []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-af", opts.filterChain(),
		"-ac", "1",
		"-ar", "16000",
		outPath,
	}

	if err := runFFmpeg(ctx, args); err != nil {
		return "", err
	}

	return outPath, nil
}

func runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg failed: %w\nstderr: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	return nil
}
