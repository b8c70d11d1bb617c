package diarize

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/transcribe"
)

const (
	// midpointWindow is the half-width, in seconds, of the window scored
	// around a wordless segment's midpoint before falling back to the full
	// segment interval.
	midpointWindow = 0.2

	// MergeGapDefault is the default maximum gap, in seconds, across which
	// adjacent same-speaker segments are joined.
	MergeGapDefault = 0.5
)

// Strategy selects how a segment whose words resolve to different speakers
// is emitted.
type Strategy string

const (
	// StrategyPrimary keeps each input segment whole and labels it with the
	// speaker resolved for its last word.
	StrategyPrimary Strategy = "primary"
	// StrategySplit breaks a segment at every detected speaker change.
	StrategySplit Strategy = "split"
)

func (s Strategy) IsValid() bool {
	switch s {
	case StrategyPrimary, StrategySplit:
		return true
	default:
		return false
	}
}

// AttributionOptions configures Attribute.
type AttributionOptions struct {
	Strategy Strategy `yaml:"strategy"`
	MergeGap float64  `yaml:"merge_gap"`
}

func (o AttributionOptions) IsValid() error {
	if !o.Strategy.IsValid() {
		return fmt.Errorf("Strategy value %q is not valid", string(o.Strategy))
	}

	if o.MergeGap < 0 {
		return fmt.Errorf("MergeGap should not be negative")
	}

	return nil
}

func (o *AttributionOptions) SetDefaults() {
	if o.Strategy == "" {
		o.Strategy = StrategyPrimary
	}
}

func (o *AttributionOptions) FromEnv() {
	if val := os.Getenv("SPEAKER_STRATEGY"); val != "" {
		o.Strategy = Strategy(val)
	}
	if val, ok := os.LookupEnv("SPEAKER_MERGE_GAP"); ok {
		o.MergeGap, _ = strconv.ParseFloat(val, 64)
	}
}

func (o AttributionOptions) ToEnv() []string {
	return []string{
		fmt.Sprintf("SPEAKER_STRATEGY=%s", o.Strategy),
		fmt.Sprintf("SPEAKER_MERGE_GAP=%g", o.MergeGap),
	}
}

// Attribute assigns a speaker label to every segment using the supplied
// diarization turns, then joins adjacent same-speaker segments whose gap is
// at most opts.MergeGap. Input segments must be ordered by start time and
// any words within a segment ordered and non-overlapping; turns may arrive
// in any order and are scanned as a flat set. Inputs are never mutated:
// every returned segment is a fresh record.
//
// With no turns at all every segment is labeled DefaultSpeaker and the
// input count and order are preserved as-is, which keeps "diarization off"
// distinguishable from "diarization matched nothing for this word".
func Attribute(segments []transcribe.Segment, turns []SpeakerTurn, opts AttributionOptions) ([]transcribe.Segment, error) {
	if err := opts.IsValid(); err != nil {
		return nil, fmt.Errorf("failed to validate options: %w", err)
	}

	if len(turns) == 0 {
		out := make([]transcribe.Segment, len(segments))
		for i, seg := range segments {
			out[i] = newSegment(seg.Start, seg.End, DefaultSpeaker, seg.Text, seg.Words)
		}
		return out, nil
	}

	var labeled []transcribe.Segment
	for _, seg := range segments {
		if len(seg.Words) == 0 {
			labeled = append(labeled, newSegment(seg.Start, seg.End, resolveWordless(seg, turns), seg.Text, seg.Words))
			continue
		}

		switch opts.Strategy {
		case StrategyPrimary:
			if out, ok := buildRun(seg.Words, lastWordSpeaker(seg.Words, turns)); ok {
				labeled = append(labeled, out)
			}
		case StrategySplit:
			labeled = append(labeled, splitBySpeaker(seg.Words, turns)...)
		}
	}

	return mergeAdjacent(labeled, opts.MergeGap), nil
}

// resolveWordless picks a speaker for a segment without word timestamps:
// first by scoring a narrow window around the segment midpoint, then the
// whole interval, then DefaultSpeaker.
func resolveWordless(seg transcribe.Segment, turns []SpeakerTurn) string {
	mid := 0.5 * (seg.Start + seg.End)
	if spk, ok := bestSpeaker(speakerScores(mid-midpointWindow, mid+midpointWindow, turns)); ok {
		return spk
	}
	if spk, ok := bestSpeaker(speakerScores(seg.Start, seg.End, turns)); ok {
		return spk
	}
	return DefaultSpeaker
}

// lastWordSpeaker folds over the words and returns the speaker resolved for
// the last word that any turn overlaps, or DefaultSpeaker when none is
// covered. Last word wins on purpose: callers that want sub-segment
// fidelity use StrategySplit instead.
func lastWordSpeaker(words []transcribe.Word, turns []SpeakerTurn) string {
	speaker := ""
	for _, w := range words {
		if spk, ok := bestSpeaker(speakerScores(w.Start, w.End, turns)); ok {
			speaker = spk
		}
	}
	if speaker == "" {
		return DefaultSpeaker
	}
	return speaker
}

// splitBySpeaker walks the words in order and emits one segment per maximal
// run of consecutive words resolving to the same speaker. A word no turn
// covers stays with the running speaker rather than breaking the run.
func splitBySpeaker(words []transcribe.Word, turns []SpeakerTurn) []transcribe.Segment {
	var out []transcribe.Segment
	var run []transcribe.Word
	current := ""

	for _, w := range words {
		spk, ok := bestSpeaker(speakerScores(w.Start, w.End, turns))
		if !ok {
			spk = current
			if spk == "" {
				spk = DefaultSpeaker
			}
		}
		if current == "" {
			current = spk
		}
		if spk != current {
			if seg, ok := buildRun(run, current); ok {
				out = append(out, seg)
			}
			run = nil
			current = spk
		}
		run = append(run, w)
	}

	if seg, ok := buildRun(run, current); ok {
		out = append(out, seg)
	}

	return out
}

// buildRun assembles a segment out of a run of words. Runs whose
// concatenated text trims down to nothing are discarded.
func buildRun(words []transcribe.Word, speaker string) (transcribe.Segment, bool) {
	if len(words) == 0 {
		return transcribe.Segment{}, false
	}

	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(w.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return transcribe.Segment{}, false
	}

	if speaker == "" {
		speaker = DefaultSpeaker
	}

	return transcribe.Segment{
		Start:   words[0].Start,
		End:     words[len(words)-1].End,
		Speaker: speaker,
		Text:    text,
		Words:   append([]transcribe.Word(nil), words...),
	}, true
}

func newSegment(start, end float64, speaker, text string, words []transcribe.Word) transcribe.Segment {
	return transcribe.Segment{
		Start:   start,
		End:     end,
		Speaker: speaker,
		Text:    text,
		Words:   append([]transcribe.Word(nil), words...),
	}
}
