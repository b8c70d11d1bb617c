package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/ogg"
)

const (
	// Opus streams carry their granule positions at 48KHz regardless of the
	// decoding rate.
	oggInAudioRate         = 48000
	oggAudioFrameSizeMs    = 20
	oggInFrameSize         = oggAudioFrameSizeMs * oggInAudioRate / 1000
	oggOutFrameSize        = oggAudioFrameSizeMs * SampleRate / 1000
	oggInAudioSamplesPerMs = oggInAudioRate / 1000
	oggOutSamplesPerMs     = SampleRate / 1000
)

// DecodeOggOpus reads an OGG file and decodes its Opus audio into raw PCM
// samples at SampleRate, mono. Gaps in the granule positions (e.g. paused
// recorders that don't emit silence) are filled with zero samples so that
// sample offsets keep mapping to wall-clock time.
//
// Pages are expected to carry a single Opus packet each, which is what
// WebRTC-style recorders produce.
func DecodeOggOpus(path string) ([]float32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ogg file: %w", err)
	}
	defer file.Close()

	oggReader, _, err := ogg.NewReaderWith(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create new ogg reader: %w", err)
	}

	opusDec, err := newOpusDecoder(SampleRate, audioChannels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	defer func() {
		if err := opusDec.destroy(); err != nil {
			slog.Error("failed to destroy opus decoder", slog.String("err", err.Error()))
		}
	}()

	pcmBuf := make([]float32, oggOutFrameSize)
	var samples []float32

	var prevGP uint64
	for {
		data, hdr, err := oggReader.ParseNextPage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			slog.Warn("failed to parse ogg page", slog.String("err", err.Error()))
			continue
		}

		// Ignoring metadata pages (OpusHead, OpusTags).
		if hdr.GranulePosition == 0 {
			continue
		}

		if hdr.GranulePosition > prevGP+uint64(oggInFrameSize) {
			gapMs := (hdr.GranulePosition - prevGP - uint64(oggInFrameSize)) / oggInAudioSamplesPerMs
			slog.Debug("gap in audio samples", slog.Duration("gap", time.Duration(gapMs)*time.Millisecond))
			samples = append(samples, make([]float32, gapMs*oggOutSamplesPerMs)...)
		}
		prevGP = hdr.GranulePosition

		n, err := opusDec.decode(data, pcmBuf)
		if err != nil {
			slog.Warn("failed to decode audio data", slog.String("err", err.Error()))
			continue
		}

		samples = append(samples, pcmBuf[:n]...)
	}

	return samples, nil
}
