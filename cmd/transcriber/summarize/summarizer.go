// Package summarize generates meeting summaries from finished transcripts
// using the Gemini API.
package summarize

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

const summaryPrompt = `Summarize the following meeting transcript. Structure the summary as:

## Overview
A short paragraph describing what the conversation was about.

## Key Points
Bullet points of the main topics discussed, attributed to speakers where relevant.

## Action Items
Bullet points of any tasks, decisions or follow-ups mentioned. Write "None" if there are none.

Transcript:

%s`

type Config struct {
	APIKey string
	Model  string
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

type Summarizer struct {
	cfg Config
}

func NewSummarizer(cfg Config) (*Summarizer, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &Summarizer{
		cfg: cfg,
	}, nil
}

func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if transcript == "" {
		return "", fmt.Errorf("transcript should not be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, s.cfg.Model, genai.Text(fmt.Sprintf(summaryPrompt, transcript)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response")
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("empty response")
	}

	return text, nil
}
