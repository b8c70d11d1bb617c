package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	diarizeRequestTimeout = 10 * time.Minute
	maxErrorBodySize      = 4096
)

// ClientConfig configures the HTTP client for the diarization sidecar.
type ClientConfig struct {
	// Base URL of the diarization service, e.g. http://127.0.0.1:8090.
	URL string
	// Optional hints forwarded to the service. Zero means unset.
	MinSpeakers int
	MaxSpeakers int
}

func (c ClientConfig) IsValid() error {
	if c.URL == "" {
		return fmt.Errorf("invalid URL: should not be empty")
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL: unsupported scheme %q", u.Scheme)
	}

	if c.MinSpeakers < 0 || c.MaxSpeakers < 0 {
		return fmt.Errorf("speaker hints should not be negative")
	}

	if c.MinSpeakers > 0 && c.MaxSpeakers > 0 && c.MaxSpeakers < c.MinSpeakers {
		return fmt.Errorf("MaxSpeakers should not be lower than MinSpeakers")
	}

	return nil
}

// Client talks to an external diarization service that accepts a WAV upload
// and returns speaker turns.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: diarizeRequestTimeout,
		},
	}, nil
}

type diarizeResponse struct {
	Segments []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"`
	} `json:"segments"`
	NumSpeakers int `json:"num_speakers"`
}

// Diarize uploads the audio file at audioPath to the service's /diarize
// endpoint and returns the resulting turns, normalized to the SPEAKER_NN
// label namespace and sorted by start time.
func (c *Client) Diarize(ctx context.Context, audioPath string) ([]SpeakerTurn, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("failed to copy audio data: %w", err)
	}

	if c.cfg.MinSpeakers > 0 {
		if err := mw.WriteField("min_speakers", strconv.Itoa(c.cfg.MinSpeakers)); err != nil {
			return nil, fmt.Errorf("failed to write field: %w", err)
		}
	}
	if c.cfg.MaxSpeakers > 0 {
		if err := mw.WriteField("max_speakers", strconv.Itoa(c.cfg.MaxSpeakers)); err != nil {
			return nil, fmt.Errorf("failed to write field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/diarize", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(data))
	}

	var dr diarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	turns := make([]SpeakerTurn, 0, len(dr.Segments))
	for _, s := range dr.Segments {
		turns = append(turns, SpeakerTurn{
			Start:   s.Start,
			End:     s.End,
			Speaker: s.Speaker,
		})
	}

	return NormalizeTurns(turns), nil
}
