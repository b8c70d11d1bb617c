package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/diarize"
)

func validConfig() TranscriberConfig {
	var cfg TranscriberConfig
	cfg.InputPath = "/recordings/call.ogg"
	cfg.OutputDir = "/transcripts"
	cfg.Whisper.ModelFile = "./models/ggml-base.bin"
	cfg.SetDefaults()
	return cfg
}

func TestConfigIsValid(t *testing.T) {
	tcs := []struct {
		name          string
		cfg           func() TranscriberConfig
		expectedError string
	}{
		{
			name:          "empty config",
			cfg:           func() TranscriberConfig { return TranscriberConfig{} },
			expectedError: "one of InputPath or InputDir is required",
		},
		{
			name: "both inputs set",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.InputDir = "/recordings"
				return cfg
			},
			expectedError: "InputPath and InputDir are mutually exclusive",
		},
		{
			name: "missing output dir",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.OutputDir = ""
				return cfg
			},
			expectedError: "OutputDir cannot be empty",
		},
		{
			name: "invalid transcribe API",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.TranscribeAPI = "whisperx"
				return cfg
			},
			expectedError: `TranscribeAPI value "whisperx" is not valid`,
		},
		{
			name: "missing model file",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.Whisper.ModelFile = ""
				return cfg
			},
			expectedError: "Whisper.ModelFile cannot be empty",
		},
		{
			name: "missing azure credentials",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.TranscribeAPI = TranscribeAPIAzure
				return cfg
			},
			expectedError: "Azure.SpeechKey cannot be empty",
		},
		{
			name: "missing openai key",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.TranscribeAPI = TranscribeAPIOpenAIWhisper
				return cfg
			},
			expectedError: "OpenAI.APIKey cannot be empty",
		},
		{
			name: "vad without model",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.Audio.VAD.Enabled = true
				return cfg
			},
			expectedError: "Audio.VAD.ModelPath cannot be empty",
		},
		{
			name: "diarization without URL",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.Diarization.Enabled = true
				return cfg
			},
			expectedError: "invalid Diarization config: invalid URL: should not be empty",
		},
		{
			name: "unknown speaker strategy",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.Speakers.Strategy = "bogus"
				return cfg
			},
			expectedError: `invalid Speakers config: Strategy value "bogus" is not valid`,
		},
		{
			name: "summary without key",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.Summary.Enabled = true
				return cfg
			},
			expectedError: "Summary.APIKey cannot be empty",
		},
		{
			name: "invalid format",
			cfg: func() TranscriberConfig {
				cfg := validConfig()
				cfg.Formats = []OutputFormat{"pdf"}
				return cfg
			},
			expectedError: `Formats value "pdf" is not valid`,
		},
		{
			name: "valid config",
			cfg:  validConfig,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg().IsValid()
			if tc.expectedError == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tc.expectedError)
			}
		})
	}
}

func TestConfigSetDefaults(t *testing.T) {
	var cfg TranscriberConfig
	cfg.SetDefaults()

	require.Equal(t, TranscribeAPIDefault, cfg.TranscribeAPI)
	require.GreaterOrEqual(t, cfg.Whisper.NumThreads, 1)
	require.Equal(t, OpenAIModelDefault, cfg.OpenAI.Model)
	require.Equal(t, SummaryModelDefault, cfg.Summary.Model)
	require.Equal(t, []OutputFormat{OutputFormatText, OutputFormatSRT, OutputFormatJSON}, cfg.Formats)
	require.Equal(t, diarize.StrategyPrimary, cfg.Speakers.Strategy)
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("no env set", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)
		require.Empty(t, cfg.InputPath)
		require.True(t, cfg.Whisper.WordTimestamps)
		require.Equal(t, diarize.MergeGapDefault, cfg.Speakers.MergeGap)
	})

	t.Run("valid config", func(t *testing.T) {
		t.Setenv("INPUT_PATH", "/recordings/call.ogg")
		t.Setenv("OUTPUT_DIR", "/transcripts")
		t.Setenv("TRANSCRIBE_API", "whisper.cpp")
		t.Setenv("MODEL_FILE", "./models/ggml-base.bin")
		t.Setenv("NUM_THREADS", "2")
		t.Setenv("LANGUAGE", "en")
		t.Setenv("DIARIZATION_ENABLED", "true")
		t.Setenv("DIARIZATION_URL", "http://localhost:8090")
		t.Setenv("DIARIZATION_MAX_SPEAKERS", "4")
		t.Setenv("SPEAKER_STRATEGY", "split")
		t.Setenv("SPEAKER_MERGE_GAP", "0")
		t.Setenv("OUTPUT_FORMATS", "vtt, json")

		cfg, err := FromEnv()
		require.NoError(t, err)

		require.Equal(t, "/recordings/call.ogg", cfg.InputPath)
		require.Equal(t, "/transcripts", cfg.OutputDir)
		require.Equal(t, TranscribeAPIWhisperCPP, cfg.TranscribeAPI)
		require.Equal(t, 2, cfg.Whisper.NumThreads)
		require.Equal(t, "en", cfg.Language)
		require.True(t, cfg.Diarization.Enabled)
		require.Equal(t, "http://localhost:8090", cfg.Diarization.URL)
		require.Equal(t, 4, cfg.Diarization.MaxSpeakers)
		require.Equal(t, diarize.StrategySplit, cfg.Speakers.Strategy)
		// An explicit zero must survive the default.
		require.Equal(t, 0.0, cfg.Speakers.MergeGap)
		require.Equal(t, []OutputFormat{OutputFormatVTT, OutputFormatJSON}, cfg.Formats)

		cfg.SetDefaults()
		require.NoError(t, cfg.IsValid())
	})
}

func TestConfigLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("valid file", func(t *testing.T) {
		data := `
input_dir: /recordings
output_dir: /transcripts
transcribe_api: whisper.cpp
language: en
whisper:
  model_file: ./models/ggml-base.bin
  num_threads: 1
  beam_size: 5
audio:
  loudnorm: true
  vad:
    enabled: true
    model_path: ./models/silero_vad.onnx
diarization:
  enabled: true
  url: http://localhost:8090
  min_speakers: 1
  max_speakers: 4
speakers:
  strategy: split
formats:
  - text
  - json
`
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(data), 0600))

		cfg, err := Load(path)
		require.NoError(t, err)

		require.Equal(t, "/recordings", cfg.InputDir)
		require.Equal(t, TranscribeAPIWhisperCPP, cfg.TranscribeAPI)
		require.Equal(t, 5, cfg.Whisper.BeamSize)
		require.True(t, cfg.Audio.Loudnorm)
		require.True(t, cfg.Audio.VAD.Enabled)
		require.Equal(t, "./models/silero_vad.onnx", cfg.Audio.VAD.ModelPath)
		require.Equal(t, diarize.StrategySplit, cfg.Speakers.Strategy)
		// Omitted keys keep their prefills.
		require.Equal(t, diarize.MergeGapDefault, cfg.Speakers.MergeGap)
		require.True(t, cfg.Whisper.WordTimestamps)

		cfg.SetDefaults()
		require.NoError(t, cfg.IsValid())
	})

	t.Run("explicit zero merge gap", func(t *testing.T) {
		data := `
input_path: /recordings/call.ogg
output_dir: /transcripts
speakers:
  merge_gap: 0
`
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(data), 0600))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, 0.0, cfg.Speakers.MergeGap)
	})
}

func TestConfigToEnv(t *testing.T) {
	cfg := validConfig()
	env := cfg.ToEnv()

	require.Contains(t, env, "INPUT_PATH=/recordings/call.ogg")
	require.Contains(t, env, "OUTPUT_DIR=/transcripts")
	require.Contains(t, env, "TRANSCRIBE_API=whisper.cpp")
	require.Contains(t, env, "SPEAKER_STRATEGY=primary")
	require.Contains(t, env, "OUTPUT_FORMATS=text,srt,json")
}
