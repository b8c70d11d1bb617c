package call

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/config"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/transcribe"
)

var filenameSanitizationRE = regexp.MustCompile(`[\\:*?\"<>|\n\s/]`)

func sanitizeFilename(name string) string {
	return filenameSanitizationRE.ReplaceAllString(name, "_")
}

// outputBaseName derives the base name shared by all output files of a
// recording from its input path.
func outputBaseName(inputPath string) string {
	base := filepath.Base(inputPath)
	return sanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
}

func (t *Transcriber) writeOutputs(inputPath string, tr transcribe.Transcription) error {
	if err := os.MkdirAll(t.cfg.OutputDir, 0700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	base := outputBaseName(inputPath)

	for _, format := range t.cfg.Formats {
		var ext string
		var render func(io.Writer) error

		switch format {
		case config.OutputFormatText:
			ext = ".txt"
			render = tr.Text
		case config.OutputFormatSRT:
			ext = ".srt"
			render = tr.SRT
		case config.OutputFormatVTT:
			ext = ".vtt"
			render = tr.WebVTT
		case config.OutputFormatJSON:
			ext = ".json"
			render = tr.JSON
		default:
			return fmt.Errorf("output format %q not implemented", format)
		}

		path := filepath.Join(t.cfg.OutputDir, base+ext)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}

		if err := render(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to render %s output: %w", format, err)
		}

		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close output file: %w", err)
		}
	}

	return nil
}
