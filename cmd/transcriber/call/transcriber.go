// Package call orchestrates the transcription pipeline for a recorded call:
// audio ingestion, transcription, speaker attribution and output rendering.
package call

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/apis/azure"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/apis/openai"
	whisper "github.com/mr-cool08/sttq-transcriber/cmd/transcriber/apis/whisper.cpp"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/audio"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/config"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/diarize"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/summarize"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/transcribe"
)

type Transcriber struct {
	cfg config.TranscriberConfig
}

func NewTranscriber(cfg config.TranscriberConfig) (*Transcriber, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &Transcriber{
		cfg: cfg,
	}, nil
}

// ProcessFile runs the full pipeline over a single recording and writes the
// configured output formats next to each other in the output directory.
func (t *Transcriber) ProcessFile(ctx context.Context, path string) error {
	start := time.Now()
	slog.Info("processing file", slog.String("path", path))

	workDir, err := os.MkdirTemp("", "sttq_")
	if err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	samples, wavPath, err := t.loadAudio(ctx, path, workDir)
	if err != nil {
		return fmt.Errorf("failed to load audio: %w", err)
	}
	if len(samples) == 0 {
		return fmt.Errorf("no audio samples in %q", path)
	}

	transcriber, err := t.newTranscriber()
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}
	defer func() {
		if err := transcriber.Destroy(); err != nil {
			slog.Error("failed to destroy transcriber", slog.String("err", err.Error()))
		}
	}()

	segments, lang, err := t.transcribeSamples(ctx, transcriber, samples)
	if err != nil {
		return fmt.Errorf("failed to transcribe audio: %w", err)
	}

	turns := t.diarizeAudio(ctx, wavPath)

	labeled, err := diarize.Attribute(segments, turns, t.cfg.Speakers)
	if err != nil {
		return fmt.Errorf("failed to attribute speakers: %w", err)
	}

	tr := transcribe.Transcription{
		Language: lang,
		Duration: float64(len(samples)) / float64(audio.SampleRate),
		Segments: labeled,
	}

	if err := t.writeOutputs(path, tr); err != nil {
		return fmt.Errorf("failed to write outputs: %w", err)
	}

	if t.cfg.Summary.Enabled {
		if err := t.writeSummary(ctx, path, tr); err != nil {
			slog.Error("failed to write summary", slog.String("err", err.Error()))
		}
	}

	slog.Info("processing done",
		slog.String("path", path),
		slog.Int("segments", len(tr.Segments)),
		slog.Duration("dur", time.Since(start)))

	return nil
}

// loadAudio decodes the input file into 16KHz mono samples and returns,
// alongside them, a path to a WAV rendition of the same audio that can be
// shipped to the diarization service. OGG files are decoded directly since
// WebRTC-style recorders produce Opus streams with granule gaps ffmpeg would
// collapse; everything else goes through ffmpeg.
func (t *Transcriber) loadAudio(ctx context.Context, path, workDir string) ([]float32, string, error) {
	if strings.ToLower(filepath.Ext(path)) == ".ogg" {
		samples, err := audio.DecodeOggOpus(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode ogg file: %w", err)
		}

		wavPath := filepath.Join(workDir, "audio.wav")
		if err := os.WriteFile(wavPath, audio.EncodeWAV(samples), 0600); err != nil {
			return nil, "", fmt.Errorf("failed to write wav file: %w", err)
		}

		return samples, wavPath, nil
	}

	wavPath, err := audio.EnsureWAV16kMono(ctx, path, workDir, t.cfg.Audio.PreprocessOptions)
	if err != nil {
		return nil, "", fmt.Errorf("failed to convert audio: %w", err)
	}

	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read wav file: %w", err)
	}

	samples, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode wav file: %w", err)
	}

	return samples, wavPath, nil
}

func (t *Transcriber) transcribeSamples(ctx context.Context, transcriber transcribe.Transcriber, samples []float32) ([]transcribe.Segment, string, error) {
	if !t.cfg.Audio.VAD.Enabled {
		return transcriber.Transcribe(ctx, samples)
	}

	regions, err := audio.SplitSpeech(samples, t.cfg.Audio.VAD.ModelPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to detect speech: %w", err)
	}

	var lang string
	var segments []transcribe.Segment
	for _, region := range regions {
		regionSegments, regionLang, err := transcriber.Transcribe(ctx, region.Samples)
		if err != nil {
			slog.Error("failed to transcribe speech region",
				slog.String("err", err.Error()), slog.Float64("start", region.Start))
			continue
		}
		if lang == "" {
			lang = regionLang
		}

		segments = append(segments, shiftSegments(regionSegments, region.Start)...)
	}

	return segments, lang, nil
}

// shiftSegments offsets segment and word timestamps by offset seconds,
// mapping region-relative times back onto the full recording's timeline.
func shiftSegments(segments []transcribe.Segment, offset float64) []transcribe.Segment {
	for i := range segments {
		segments[i].Start += offset
		segments[i].End += offset
		for j := range segments[i].Words {
			segments[i].Words[j].Start += offset
			segments[i].Words[j].End += offset
		}
	}
	return segments
}

func (t *Transcriber) newTranscriber() (transcribe.Transcriber, error) {
	switch t.cfg.TranscribeAPI {
	case config.TranscribeAPIWhisperCPP:
		return whisper.NewContext(whisper.Config{
			ModelFile:      t.cfg.Whisper.ModelFile,
			NumThreads:     t.cfg.Whisper.NumThreads,
			Language:       t.cfg.Language,
			BeamSize:       t.cfg.Whisper.BeamSize,
			WordTimestamps: t.cfg.Whisper.WordTimestamps,
		})
	case config.TranscribeAPIAzure:
		return azure.NewSpeechRecognizer(azure.SpeechRecognizerConfig{
			SpeechKey:    t.cfg.Azure.SpeechKey,
			SpeechRegion: t.cfg.Azure.SpeechRegion,
			Language:     t.cfg.Language,
		})
	case config.TranscribeAPIOpenAIWhisper:
		return openai.NewClient(openai.Config{
			APIKey:   t.cfg.OpenAI.APIKey,
			Model:    t.cfg.OpenAI.Model,
			Language: t.cfg.Language,
		})
	default:
		return nil, fmt.Errorf("transcribe API %q not implemented", t.cfg.TranscribeAPI)
	}
}

// diarizeAudio returns the speaker turns for the given audio, or nil when
// diarization is disabled or fails. A failure is logged rather than returned:
// a transcript labeled with the default speaker beats no transcript.
func (t *Transcriber) diarizeAudio(ctx context.Context, wavPath string) []diarize.SpeakerTurn {
	if !t.cfg.Diarization.Enabled {
		return nil
	}

	client, err := diarize.NewClient(t.cfg.Diarization.ClientConfig())
	if err != nil {
		slog.Warn("failed to create diarization client, continuing without speaker labels",
			slog.String("err", err.Error()))
		return nil
	}

	turns, err := client.Diarize(ctx, wavPath)
	if err != nil {
		slog.Warn("diarization failed, continuing without speaker labels",
			slog.String("err", err.Error()))
		return nil
	}

	return turns
}

func (t *Transcriber) writeSummary(ctx context.Context, inputPath string, tr transcribe.Transcription) error {
	summarizer, err := summarize.NewSummarizer(summarize.Config{
		APIKey: t.cfg.Summary.APIKey,
		Model:  t.cfg.Summary.Model,
	})
	if err != nil {
		return fmt.Errorf("failed to create summarizer: %w", err)
	}

	var sb strings.Builder
	if err := tr.Text(&sb); err != nil {
		return fmt.Errorf("failed to render transcript: %w", err)
	}

	summary, err := summarizer.Summarize(ctx, sb.String())
	if err != nil {
		return fmt.Errorf("failed to summarize transcript: %w", err)
	}

	path := filepath.Join(t.cfg.OutputDir, outputBaseName(inputPath)+".summary.md")
	if err := os.WriteFile(path, []byte(summary), 0600); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}

	return nil
}
