package audio

import (
	"fmt"
	"log/slog"

	"github.com/streamer45/silero-vad-go/speech"
)

const (
	// set WindowSize to 512 to get as fine-grained detection as possible (for when
	// the number of samples don't cleanly divide into the WindowSize)
	vadWindowSizeInSamples  = 512
	vadThreshold            = 0.5
	vadMinSilenceDurationMs = 200
	vadMinSpeechDurationMs  = 200
	vadSilencePadMs         = 32
)

// Region is a contiguous run of detected speech. Start and End are offsets in
// seconds from the beginning of the source audio.
type Region struct {
	Start   float64
	End     float64
	Samples []float32
}

// SplitSpeech runs voice activity detection over the given samples and returns
// the speech regions found. Feeding the regions to a transcription backend
// individually avoids hallucinations over long stretches of silence.
func SplitSpeech(samples []float32, modelPath string) ([]Region, error) {
	sd, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           SampleRate,
		WindowSize:           vadWindowSizeInSamples,
		Threshold:            vadThreshold,
		MinSilenceDurationMs: vadMinSilenceDurationMs,
		MinSpeechDurationMs:  vadMinSpeechDurationMs,
		SilencePadMs:         vadSilencePadMs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create speech detector: %w", err)
	}
	defer func() {
		if err := sd.Destroy(); err != nil {
			slog.Error("failed to destroy speech detector", slog.String("err", err.Error()))
		}
	}()

	segments, err := sd.Detect(samples)
	if err != nil {
		return nil, fmt.Errorf("failed to detect speech: %w", err)
	}

	regions := make([]Region, 0, len(segments))
	for _, seg := range segments {
		startIdx := int(seg.SpeechStartAt * SampleRate)
		endIdx := int(seg.SpeechEndAt * SampleRate)
		if startIdx < 0 {
			startIdx = 0
		}
		if endIdx <= 0 || endIdx > len(samples) {
			endIdx = len(samples)
		}
		if startIdx >= endIdx {
			continue
		}

		regions = append(regions, Region{
			Start:   seg.SpeechStartAt,
			End:     seg.SpeechEndAt,
			Samples: samples[startIdx:endIdx],
		})
	}

	return regions, nil
}
