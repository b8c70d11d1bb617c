package diarize

import "math"

// speakerScore is one speaker's accumulated overlap with a query interval.
type speakerScore struct {
	speaker string
	seconds float64
}

// overlap returns the shared duration, in seconds, between the intervals
// [a0, a1] and [b0, b1]. It is symmetric and zero for disjoint intervals.
func overlap(a0, a1, b0, b1 float64) float64 {
	return math.Max(0, math.Min(a1, b1)-math.Max(a0, b0))
}

// speakerScores sums overlap seconds per speaker over [start, end]. Speakers
// with zero contribution are omitted. The result is ordered by each
// speaker's first contributing turn so that ties resolve deterministically
// for a given turn order.
func speakerScores(start, end float64, turns []SpeakerTurn) []speakerScore {
	var scores []speakerScore
	var idx map[string]int
	for _, t := range turns {
		ov := overlap(start, end, t.Start, t.End)
		if ov <= 0 {
			continue
		}
		if idx == nil {
			idx = make(map[string]int, 4)
		}
		if i, ok := idx[t.Speaker]; ok {
			scores[i].seconds += ov
		} else {
			idx[t.Speaker] = len(scores)
			scores = append(scores, speakerScore{speaker: t.Speaker, seconds: ov})
		}
	}
	return scores
}

// bestSpeaker returns the speaker with the strictly greatest accumulated
// overlap. On an exact tie the earliest contributor wins. The second return
// is false when the score list is empty.
func bestSpeaker(scores []speakerScore) (string, bool) {
	if len(scores) == 0 {
		return "", false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.seconds > best.seconds {
			best = s
		}
	}
	return best.speaker, true
}
