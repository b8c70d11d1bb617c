package transcribe

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// tsMillis converts a timestamp in seconds to whole milliseconds.
func tsMillis(secs float64) int64 {
	return int64(math.Round(secs * 1000))
}

// vttTS converts ts milliseconds in the 00:00:00.000 format.
func vttTS(ts int64) string {
	sMs := int64(1000)
	mMs := 60 * sMs
	hMs := 60 * mMs

	h := ts / hMs
	m := (ts - (h * hMs)) / mMs
	s := ((ts - (h * hMs)) - m*mMs) / sMs
	ms := ((ts - (h * hMs)) - m*mMs) - s*sMs

	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// srtTS converts ts milliseconds in the 00:00:00,000 format used by SRT.
func srtTS(ts int64) string {
	sMs := int64(1000)
	mMs := 60 * sMs
	hMs := 60 * mMs

	h := ts / hMs
	m := (ts - (h * hMs)) / mMs
	s := ((ts - (h * hMs)) - m*mMs) / sMs
	ms := ((ts - (h * hMs)) - m*mMs) - s*sMs

	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// Text writes the transcript as plain text, one segment per line.
func (t Transcription) Text(w io.Writer) error {
	for _, s := range t.Segments {
		if _, err := fmt.Fprintf(w, "[%s] %s\n", s.Speaker, s.Text); err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}
	return nil
}

// SRT writes the transcript as a SubRip subtitle file.
func (t Transcription) SRT(w io.Writer) error {
	for i, s := range t.Segments {
		if _, err := fmt.Fprintf(w, "%d\n", i+1); err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s --> %s\n", srtTS(tsMillis(s.Start)), srtTS(tsMillis(s.End))); err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n\n", s.Speaker, s.Text); err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}
	return nil
}

// WebVTT writes the transcript as a WebVTT file with voice tags.
func (t Transcription) WebVTT(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "WEBVTT\n"); err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}
	for _, s := range t.Segments {
		if _, err := fmt.Fprintf(w, "\n%s --> %s\n", vttTS(tsMillis(s.Start)), vttTS(tsMillis(s.End))); err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
		if _, err := fmt.Fprintf(w, "<v %s>%s\n", s.Speaker, s.Text); err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}
	return nil
}

// JSON writes the transcript as indented JSON. Nil word lists are encoded
// as empty arrays so consumers always see the same shape.
func (t Transcription) JSON(w io.Writer) error {
	out := t
	out.Segments = make([]Segment, len(t.Segments))
	for i, s := range t.Segments {
		if s.Words == nil {
			s.Words = []Word{}
		}
		out.Segments[i] = s
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}
	return nil
}
