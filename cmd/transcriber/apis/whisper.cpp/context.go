package whisper

// #cgo linux LDFLAGS: -l:libwhisper.a -lm -lstdc++
// #cgo darwin LDFLAGS: -lwhisper -lstdc++ -framework Accelerate
// #include <whisper.h>
// #include <stdlib.h>
import "C"

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"unsafe"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/transcribe"
)

type Config struct {
	// The path to the GGML model file to use.
	ModelFile string
	// The number of system threads to use to perform the transcription.
	NumThreads int
	// Whether or not past transcription should be used as prompt.
	NoContext bool
	// 512 = a bit more than 10s. Use multiples of 64. Results in a speedup of 3x at 512, b/c whisper was tuned for 30s chunks. See: https://github.com/ggerganov/whisper.cpp/pull/141
	AudioContext int
	// Whether or not to print progress to stdout (default false).
	PrintProgress bool
	// Language to use (defaults to autodetection).
	Language string
	// Whether or not to generate a single segment (default false).
	SingleSegment bool
	// Beam width for beam search decoding. Zero selects greedy decoding.
	BeamSize int
	// Whether or not to collect per-word timestamps from token data.
	WordTimestamps bool
}

func (c Config) IsValid() error {
	if c == (Config{}) {
		return fmt.Errorf("invalid empty config")
	}

	if c.ModelFile == "" {
		return fmt.Errorf("invalid ModelFile: should not be empty")
	}

	if _, err := os.Stat(c.ModelFile); err != nil {
		return fmt.Errorf("invalid ModelFile: failed to stat model file: %w", err)
	}

	if numCPU := runtime.NumCPU(); c.NumThreads == 0 || c.NumThreads > numCPU {
		return fmt.Errorf("invalid NumThreads: should be in the range [1, %d]", numCPU)
	}

	if c.BeamSize < 0 {
		return fmt.Errorf("invalid BeamSize: should not be negative")
	}

	return nil
}

type Context struct {
	cfg     Config
	ctx     *C.struct_whisper_context
	cparams C.struct_whisper_context_params
	params  C.struct_whisper_full_params
}

func NewContext(cfg Config) (*Context, error) {
	var c Context

	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	c.cfg = cfg

	slog.Debug("creating transcription context", slog.Any("cfg", cfg))

	path := C.CString(cfg.ModelFile)
	defer C.free(unsafe.Pointer(path))

	c.cparams = C.whisper_context_default_params()
	c.ctx = C.whisper_init_from_file_with_params(path, c.cparams)
	if c.ctx == nil {
		return nil, fmt.Errorf("failed to load model file")
	}

	if c.cfg.BeamSize > 0 {
		c.params = C.whisper_full_default_params(C.WHISPER_SAMPLING_BEAM_SEARCH)
		c.params.beam_search.beam_size = C.int(c.cfg.BeamSize)
	} else {
		c.params = C.whisper_full_default_params(C.WHISPER_SAMPLING_GREEDY)
	}
	c.params.no_context = C.bool(c.cfg.NoContext)
	c.params.audio_ctx = C.int(c.cfg.AudioContext)
	c.params.n_threads = C.int(c.cfg.NumThreads)
	if c.cfg.Language == "" {
		c.cfg.Language = "auto"
	}
	c.params.language = C.CString(c.cfg.Language)
	c.params.single_segment = C.bool(c.cfg.SingleSegment)
	c.params.print_progress = C.bool(c.cfg.PrintProgress)
	c.params.token_timestamps = C.bool(c.cfg.WordTimestamps)

	return &c, nil
}

func (c *Context) Destroy() error {
	if c.ctx == nil {
		return fmt.Errorf("context is not initialized")
	}
	C.whisper_free(c.ctx)
	C.free(unsafe.Pointer(c.params.language))
	c.ctx = nil
	return nil
}

func (c *Context) Transcribe(ctx context.Context, samples []float32) ([]transcribe.Segment, string, error) {
	if len(samples) == 0 {
		return nil, "", fmt.Errorf("samples should not be empty")
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	ret := C.whisper_full(c.ctx, c.params, (*C.float)(&samples[0]), C.int(len(samples)))
	if ret != 0 {
		return nil, "", fmt.Errorf("whisper_full failed with code %d", ret)
	}

	lang := C.GoString(C.whisper_lang_str(C.whisper_full_lang_id(c.ctx)))

	n := int(C.whisper_full_n_segments(c.ctx))
	segments := make([]transcribe.Segment, n)
	for i := 0; i < n; i++ {
		segments[i].Text = C.GoString(C.whisper_full_get_segment_text(c.ctx, C.int(i)))
		segments[i].Start = float64(C.whisper_full_get_segment_t0(c.ctx, C.int(i))) / 100
		segments[i].End = float64(C.whisper_full_get_segment_t1(c.ctx, C.int(i))) / 100
		if c.cfg.WordTimestamps {
			segments[i].Words = c.segmentWords(i)
		}
	}

	return segments, lang, nil
}

// segmentWords groups a segment's tokens into words. Whisper tokens are
// sub-word units; a token whose text starts with a space begins a new word.
// Timestamps come in units of 10ms.
func (c *Context) segmentWords(segmentIdx int) []transcribe.Word {
	nTokens := int(C.whisper_full_n_tokens(c.ctx, C.int(segmentIdx)))
	eot := C.whisper_token_eot(c.ctx)

	var words []transcribe.Word
	for i := 0; i < nTokens; i++ {
		data := C.whisper_full_get_token_data(c.ctx, C.int(segmentIdx), C.int(i))

		// Special tokens (timestamps, end of transcript markers) carry no text.
		if data.id >= eot {
			continue
		}

		text := C.GoString(C.whisper_full_get_token_text(c.ctx, C.int(segmentIdx), C.int(i)))
		start := float64(data.t0) / 100
		end := float64(data.t1) / 100

		if len(words) == 0 || strings.HasPrefix(text, " ") {
			words = append(words, transcribe.Word{
				Start: start,
				End:   end,
				Text:  text,
			})
			continue
		}

		last := &words[len(words)-1]
		last.Text += text
		last.End = end
	}

	return words
}
