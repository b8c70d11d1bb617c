package diarize

import (
	"strings"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/transcribe"
)

// mergeAdjacent joins consecutive segments that share a speaker and are
// separated by at most maxGap seconds. Text is concatenated with a single
// space and word lists are appended in order. The input is processed in
// increasing start order, so a merged segment always spans from its first
// constituent's start to its last constituent's end. Output records are
// fresh constructions and never alias the input word slices, which keeps
// the operation safe when the inputs are shared with exporters.
//
// A maxGap of zero still joins contiguous or overlapping segments since the
// comparison is inclusive. Merging is idempotent: a second pass with the
// same maxGap leaves the sequence unchanged.
func mergeAdjacent(segments []transcribe.Segment, maxGap float64) []transcribe.Segment {
	var out []transcribe.Segment
	for _, seg := range segments {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if last.Speaker == seg.Speaker && seg.Start-last.End <= maxGap {
				last.End = seg.End
				last.Text = strings.TrimSpace(last.Text + " " + seg.Text)
				last.Words = append(last.Words, seg.Words...)
				continue
			}
		}
		ns := seg
		ns.Words = append([]transcribe.Word(nil), seg.Words...)
		out = append(out, ns)
	}
	return out
}
