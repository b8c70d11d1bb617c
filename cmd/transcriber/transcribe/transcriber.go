package transcribe

import "context"

// Word is a single transcribed token with its own time interval.
// Times are seconds from the start of the recording. Text keeps whatever
// spacing the transcription engine produced so that consecutive words can
// be concatenated back into readable segment text.
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Segment is a contiguous span of transcribed speech. Words may be empty
// when the transcription engine doesn't provide word level timestamps.
// Speaker is unset until speaker attribution runs.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Words   []Word  `json:"words"`
}

// Transcriber is a transcription engine operating on 16KHz mono PCM samples.
// Implementations return segments ordered by start time along with the
// detected language (empty when unknown).
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) ([]Segment, string, error)
	Destroy() error
}

// Transcription is the complete output for one recording.
type Transcription struct {
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}
