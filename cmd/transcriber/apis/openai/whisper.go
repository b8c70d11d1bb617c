// Package openai provides a transcription backend backed by the OpenAI
// audio transcriptions API.
package openai

import (
	"bytes"
	"context"
	"fmt"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/audio"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/transcribe"
)

const DefaultModel = "whisper-1"

type Config struct {
	APIKey   string
	Model    string
	Language string
	Prompt   string
}

func (c Config) IsValid() error {
	if c.APIKey == "" {
		return fmt.Errorf("invalid APIKey: should not be empty")
	}

	if c.Model == "" {
		return fmt.Errorf("invalid Model: should not be empty")
	}

	return nil
}

type Client struct {
	cfg    Config
	client oai.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &Client{
		cfg:    cfg,
		client: oai.NewClient(option.WithAPIKey(cfg.APIKey)),
	}, nil
}

// verboseTranscription mirrors the verbose_json response format, which is the
// only one carrying both segment and word level timestamps.
type verboseTranscription struct {
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

func (c *Client) Transcribe(ctx context.Context, samples []float32) ([]transcribe.Segment, string, error) {
	if len(samples) == 0 {
		return nil, "", fmt.Errorf("samples should not be empty")
	}

	params := oai.AudioTranscriptionNewParams{
		File:                   oai.File(bytes.NewReader(audio.EncodeWAV(samples)), "audio.wav", "audio/wav"),
		Model:                  oai.AudioModel(c.cfg.Model),
		ResponseFormat:         oai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word", "segment"},
	}
	if c.cfg.Language != "" {
		params.Language = oai.String(c.cfg.Language)
	}
	if c.cfg.Prompt != "" {
		params.Prompt = oai.String(c.cfg.Prompt)
	}

	var res verboseTranscription
	_, err := c.client.Audio.Transcriptions.New(ctx, params, option.WithResponseBodyInto(&res))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create transcription: %w", err)
	}

	segments := make([]transcribe.Segment, len(res.Segments))
	for i, s := range res.Segments {
		segments[i] = transcribe.Segment{
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		}
	}

	// The response returns a single flat list of words. Assign each word to
	// the segment containing its midpoint, falling back to the last segment
	// started before it.
	for _, w := range res.Words {
		idx := -1
		mid := w.Start + (w.End-w.Start)/2
		for i := range segments {
			if segments[i].Start <= mid {
				idx = i
			} else {
				break
			}
		}
		if idx < 0 {
			continue
		}
		segments[idx].Words = append(segments[idx].Words, transcribe.Word{
			Start: w.Start,
			End:   w.End,
			Text:  " " + w.Word,
		})
	}

	return segments, res.Language, nil
}

func (c *Client) Destroy() error {
	return nil
}
