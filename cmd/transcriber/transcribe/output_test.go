package transcribe

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimestampFormatting(t *testing.T) {
	tcs := []struct {
		name        string
		secs        float64
		expectedVTT string
		expectedSRT string
	}{
		{
			name:        "zero",
			secs:        0,
			expectedVTT: "00:00:00.000",
			expectedSRT: "00:00:00,000",
		},
		{
			name:        "sub second",
			secs:        0.421,
			expectedVTT: "00:00:00.421",
			expectedSRT: "00:00:00,421",
		},
		{
			name:        "minutes",
			secs:        65.5,
			expectedVTT: "00:01:05.500",
			expectedSRT: "00:01:05,500",
		},
		{
			name:        "hours",
			secs:        3600*2 + 60*11 + 10.042,
			expectedVTT: "02:11:10.042",
			expectedSRT: "02:11:10,042",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expectedVTT, vttTS(tsMillis(tc.secs)))
			require.Equal(t, tc.expectedSRT, srtTS(tsMillis(tc.secs)))
		})
	}
}

func sampleTranscription() Transcription {
	return Transcription{
		Language: "en",
		Duration: 4,
		Segments: []Segment{
			{
				Start:   0,
				End:     1.5,
				Speaker: "SPEAKER_01",
				Text:    "hello there",
				Words: []Word{
					{Start: 0, End: 0.8, Text: " hello"},
					{Start: 0.9, End: 1.5, Text: " there"},
				},
			},
			{
				Start:   2,
				End:     3.5,
				Speaker: "SPEAKER_02",
				Text:    "general kenobi",
			},
		},
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTranscription().Text(&buf))
	require.Equal(t, `[SPEAKER_01] hello there
[SPEAKER_02] general kenobi
`, buf.String())
}

func TestSRT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTranscription().SRT(&buf))
	require.Equal(t, `1
00:00:00,000 --> 00:00:01,500
SPEAKER_01: hello there

2
00:00:02,000 --> 00:00:03,500
SPEAKER_02: general kenobi

`, buf.String())
}

func TestWebVTT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTranscription().WebVTT(&buf))
	require.Equal(t, `WEBVTT

00:00:00.000 --> 00:00:01.500
<v SPEAKER_01>hello there

00:00:02.000 --> 00:00:03.500
<v SPEAKER_02>general kenobi
`, buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTranscription().JSON(&buf))
	require.Equal(t, `{
  "language": "en",
  "duration": 4,
  "segments": [
    {
      "start": 0,
      "end": 1.5,
      "speaker": "SPEAKER_01",
      "text": "hello there",
      "words": [
        {
          "start": 0,
          "end": 0.8,
          "text": " hello"
        },
        {
          "start": 0.9,
          "end": 1.5,
          "text": " there"
        }
      ]
    },
    {
      "start": 2,
      "end": 3.5,
      "speaker": "SPEAKER_02",
      "text": "general kenobi",
      "words": []
    }
  ]
}
`, buf.String())
}
