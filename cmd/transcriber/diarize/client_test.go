package diarize

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientConfigIsValid(t *testing.T) {
	tcs := []struct {
		name          string
		cfg           ClientConfig
		expectedError string
	}{
		{
			name:          "empty config",
			cfg:           ClientConfig{},
			expectedError: "invalid URL: should not be empty",
		},
		{
			name: "invalid scheme",
			cfg: ClientConfig{
				URL: "ftp://localhost:8090",
			},
			expectedError: `invalid URL: unsupported scheme "ftp"`,
		},
		{
			name: "negative speakers",
			cfg: ClientConfig{
				URL:         "http://localhost:8090",
				MinSpeakers: -1,
			},
			expectedError: "speaker hints should not be negative",
		},
		{
			name: "max lower than min",
			cfg: ClientConfig{
				URL:         "http://localhost:8090",
				MinSpeakers: 4,
				MaxSpeakers: 2,
			},
			expectedError: "MaxSpeakers should not be lower than MinSpeakers",
		},
		{
			name: "valid config",
			cfg: ClientConfig{
				URL:         "http://localhost:8090",
				MinSpeakers: 1,
				MaxSpeakers: 4,
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.IsValid()
			if tc.expectedError == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tc.expectedError)
			}
		})
	}
}

func TestClientDiarize(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "audio.wav")
	require.NoError(t, os.WriteFile(audioPath, []byte("not really audio"), 0600))

	t.Run("success", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/diarize", r.URL.Path)

			require.NoError(t, r.ParseMultipartForm(1<<20))
			require.Equal(t, "2", r.FormValue("min_speakers"))
			require.Equal(t, "4", r.FormValue("max_speakers"))

			f, hdr, err := r.FormFile("file")
			require.NoError(t, err)
			defer f.Close()
			require.Equal(t, "audio.wav", hdr.Filename)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"segments": [
					{"start": 3.5, "end": 5, "speaker": "B"},
					{"start": 0, "end": 2, "speaker": "A"},
					{"start": 2, "end": 3.5, "speaker": "B"}
				],
				"num_speakers": 2
			}`))
		}))
		defer ts.Close()

		client, err := NewClient(ClientConfig{URL: ts.URL, MinSpeakers: 2, MaxSpeakers: 4})
		require.NoError(t, err)

		turns, err := client.Diarize(context.Background(), audioPath)
		require.NoError(t, err)
		require.Equal(t, []SpeakerTurn{
			{Start: 0, End: 2, Speaker: "SPEAKER_02"},
			{Start: 2, End: 3.5, Speaker: "SPEAKER_01"},
			{Start: 3.5, End: 5, Speaker: "SPEAKER_01"},
		}, turns)
	})

	t.Run("error status", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		client, err := NewClient(ClientConfig{URL: ts.URL})
		require.NoError(t, err)

		_, err = client.Diarize(context.Background(), audioPath)
		require.ErrorContains(t, err, "request failed with status 503")
		require.ErrorContains(t, err, "model not loaded")
	})

	t.Run("missing file", func(t *testing.T) {
		client, err := NewClient(ClientConfig{URL: "http://localhost:8090"})
		require.NoError(t, err)

		_, err = client.Diarize(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
		require.ErrorContains(t, err, "failed to open audio file")
	})
}
