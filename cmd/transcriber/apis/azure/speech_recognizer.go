package azure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/audio"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/transcribe"

	azaudio "github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
)

type SpeechRecognizerConfig struct {
	SpeechKey    string
	SpeechRegion string
	Language     string
}

func (c SpeechRecognizerConfig) IsValid() error {
	if c.SpeechKey == "" {
		return fmt.Errorf("invalid SpeechKey: should not be empty")
	}

	if c.SpeechRegion == "" {
		return fmt.Errorf("invalid SpeechRegion: should not be empty")
	}

	return nil
}

type SpeechRecognizer struct {
	cfg SpeechRecognizerConfig
}

func NewSpeechRecognizer(cfg SpeechRecognizerConfig) (*SpeechRecognizer, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &SpeechRecognizer{
		cfg: cfg,
	}, nil
}

// Transcribe runs continuous recognition over the given samples and returns
// one segment per recognized phrase. The service doesn't expose per-word
// timestamps through this API so segments come back wordless.
func (s *SpeechRecognizer) Transcribe(ctx context.Context, samples []float32) ([]transcribe.Segment, string, error) {
	cfg, err := speech.NewSpeechConfigFromSubscription(s.cfg.SpeechKey, s.cfg.SpeechRegion)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create speech config: %w", err)
	}
	defer cfg.Close()

	if s.cfg.Language != "" {
		if err := cfg.SetSpeechRecognitionLanguage(s.cfg.Language); err != nil {
			return nil, "", fmt.Errorf("failed to set speech recognition language: %w", err)
		}
	}

	stream, err := azaudio.CreatePushAudioInputStream()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create audio stream: %w", err)
	}
	defer stream.Close()

	audioConfig, err := azaudio.NewAudioConfigFromStreamInput(stream)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create audio config: %w", err)
	}

	speechRecognizer, err := speech.NewSpeechRecognizerFromConfig(cfg, audioConfig)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create speech recognizer: %w", err)
	}
	defer speechRecognizer.Close()

	var mut sync.Mutex
	var segments []transcribe.Segment
	doneCh := make(chan struct{}, 2)

	speechRecognizer.SessionStarted(func(event speech.SessionEventArgs) {
		defer event.Close()
		slog.Debug("session started", slog.String("sessionID", event.SessionID))
	})
	speechRecognizer.SessionStopped(func(event speech.SessionEventArgs) {
		defer event.Close()
		slog.Debug("session stopped", slog.String("sessionID", event.SessionID))
		doneCh <- struct{}{}
	})

	speechRecognizer.Canceled(func(event speech.SpeechRecognitionCanceledEventArgs) {
		defer event.Close()
		slog.Info("transcription canceled", slog.String("details", event.ErrorDetails))
		doneCh <- struct{}{}
	})

	speechRecognizer.Recognized(func(event speech.SpeechRecognitionEventArgs) {
		defer event.Close()

		if event.Result.Reason == common.NoMatch {
			slog.Debug("no match for audio chunk")
			return
		}

		mut.Lock()
		defer mut.Unlock()
		segments = append(segments, transcribe.Segment{
			Text:  event.Result.Text,
			Start: event.Result.Offset.Seconds(),
			End:   event.Result.Offset.Seconds() + event.Result.Duration.Seconds(),
		})
	})

	if err := stream.Write(audio.EncodeWAV(samples)); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	err = <-speechRecognizer.StartContinuousRecognitionAsync()
	if err != nil {
		return nil, "", fmt.Errorf("failed to start recognizer: %w", err)
	}
	defer func() {
		err := <-speechRecognizer.StopContinuousRecognitionAsync()
		if err != nil {
			slog.Error("failed to stop recognizer", slog.String("err", err.Error()))
		}
	}()

	// This is important as it flushes out any remaining audio data.
	stream.CloseStream()

	// The session stops once the service has consumed the full stream so the
	// timeout only guards against the service going silent. Scale it with the
	// audio length plus a generous floor.
	audioDur := time.Duration(float64(len(samples))/float64(audio.SampleRate)) * time.Second
	timeout := 30*time.Second + audioDur

	select {
	case <-doneCh:
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case <-time.After(timeout):
		return nil, "", fmt.Errorf("timed out waiting for transcription")
	}

	mut.Lock()
	defer mut.Unlock()
	return segments, s.cfg.Language, nil
}

func (s *SpeechRecognizer) Destroy() error {
	return nil
}
