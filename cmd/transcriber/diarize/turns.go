// Package diarize reconciles diarization speaker turns with transcribed
// segments: it scores speakers by temporal overlap, attributes a speaker to
// every segment (or to every word when word timestamps are available) and
// joins adjacent fragments from the same speaker.
package diarize

import (
	"fmt"
	"sort"
)

// DefaultSpeaker is the label used when diarization is disabled or when no
// turn covers a given span of audio.
const DefaultSpeaker = "SPEAKER_01"

// SpeakerTurn is a diarization-produced time interval attributed to one
// speaker. Times are seconds. Turns from different speakers may overlap.
type SpeakerTurn struct {
	Start   float64
	End     float64
	Speaker string
}

// NormalizeTurns relabels speakers as SPEAKER_01, SPEAKER_02, ... in order
// of first appearance and returns the turns sorted by (start, end). The raw
// labels emitted by diarization models are arbitrary; normalizing keeps
// output stable across models and matches the fallback label namespace.
func NormalizeTurns(turns []SpeakerTurn) []SpeakerTurn {
	out := make([]SpeakerTurn, 0, len(turns))
	labels := make(map[string]int, 4)
	for _, t := range turns {
		n, ok := labels[t.Speaker]
		if !ok {
			n = len(labels) + 1
			labels[t.Speaker] = n
		}
		out = append(out, SpeakerTurn{
			Start:   t.Start,
			End:     t.End,
			Speaker: fmt.Sprintf("SPEAKER_%02d", n),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})

	return out
}
