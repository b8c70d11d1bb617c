package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/audio"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/diarize"
)

const (
	// defaults
	TranscribeAPIDefault = TranscribeAPIWhisperCPP
	OpenAIModelDefault   = "whisper-1"
	SummaryModelDefault  = "gemini-2.5-flash"
)

type TranscribeAPI string

const (
	TranscribeAPIWhisperCPP    TranscribeAPI = "whisper.cpp"
	TranscribeAPIAzure         TranscribeAPI = "azure/speech"
	TranscribeAPIOpenAIWhisper TranscribeAPI = "openai/whisper"
)

func (a TranscribeAPI) IsValid() bool {
	switch a {
	case TranscribeAPIWhisperCPP, TranscribeAPIAzure, TranscribeAPIOpenAIWhisper:
		return true
	default:
		return false
	}
}

type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatSRT  OutputFormat = "srt"
	OutputFormatVTT  OutputFormat = "vtt"
	OutputFormatJSON OutputFormat = "json"
)

func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatSRT, OutputFormatVTT, OutputFormatJSON:
		return true
	default:
		return false
	}
}

type WhisperConfig struct {
	ModelFile      string `yaml:"model_file"`
	NumThreads     int    `yaml:"num_threads"`
	BeamSize       int    `yaml:"beam_size"`
	WordTimestamps bool   `yaml:"word_timestamps"`
}

type AudioConfig struct {
	audio.PreprocessOptions `yaml:",inline"`
	VAD                     VADConfig `yaml:"vad"`
}

type VADConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ModelPath string `yaml:"model_path"`
}

type DiarizationConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URL         string `yaml:"url"`
	MinSpeakers int    `yaml:"min_speakers"`
	MaxSpeakers int    `yaml:"max_speakers"`
}

func (c DiarizationConfig) ClientConfig() diarize.ClientConfig {
	return diarize.ClientConfig{
		URL:         c.URL,
		MinSpeakers: c.MinSpeakers,
		MaxSpeakers: c.MaxSpeakers,
	}
}

type AzureConfig struct {
	SpeechKey    string `yaml:"speech_key"`
	SpeechRegion string `yaml:"speech_region"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type SummaryConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type TranscriberConfig struct {
	// input config
	InputPath string `yaml:"input_path"`
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	// transcription config
	TranscribeAPI TranscribeAPI `yaml:"transcribe_api"`
	Language      string        `yaml:"language"`
	Whisper       WhisperConfig `yaml:"whisper"`
	Azure         AzureConfig   `yaml:"azure"`
	OpenAI        OpenAIConfig  `yaml:"openai"`

	// processing config
	Audio       AudioConfig                `yaml:"audio"`
	Diarization DiarizationConfig          `yaml:"diarization"`
	Speakers    diarize.AttributionOptions `yaml:"speakers"`
	Summary     SummaryConfig              `yaml:"summary"`

	// output config
	Formats []OutputFormat `yaml:"formats"`
}

func (cfg TranscriberConfig) IsValid() error {
	if cfg.InputPath == "" && cfg.InputDir == "" {
		return fmt.Errorf("one of InputPath or InputDir is required")
	}
	if cfg.InputPath != "" && cfg.InputDir != "" {
		return fmt.Errorf("InputPath and InputDir are mutually exclusive")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("OutputDir cannot be empty")
	}

	if !cfg.TranscribeAPI.IsValid() {
		return fmt.Errorf("TranscribeAPI value %q is not valid", cfg.TranscribeAPI)
	}

	switch cfg.TranscribeAPI {
	case TranscribeAPIWhisperCPP:
		if cfg.Whisper.ModelFile == "" {
			return fmt.Errorf("Whisper.ModelFile cannot be empty")
		}
		if numCPU := runtime.NumCPU(); cfg.Whisper.NumThreads == 0 || cfg.Whisper.NumThreads > numCPU {
			return fmt.Errorf("Whisper.NumThreads should be in the range [1, %d]", numCPU)
		}
		if cfg.Whisper.BeamSize < 0 {
			return fmt.Errorf("Whisper.BeamSize cannot be negative")
		}
	case TranscribeAPIAzure:
		if cfg.Azure.SpeechKey == "" {
			return fmt.Errorf("Azure.SpeechKey cannot be empty")
		}
		if cfg.Azure.SpeechRegion == "" {
			return fmt.Errorf("Azure.SpeechRegion cannot be empty")
		}
	case TranscribeAPIOpenAIWhisper:
		if cfg.OpenAI.APIKey == "" {
			return fmt.Errorf("OpenAI.APIKey cannot be empty")
		}
	}

	if cfg.Audio.VAD.Enabled && cfg.Audio.VAD.ModelPath == "" {
		return fmt.Errorf("Audio.VAD.ModelPath cannot be empty")
	}

	if cfg.Diarization.Enabled {
		if err := cfg.Diarization.ClientConfig().IsValid(); err != nil {
			return fmt.Errorf("invalid Diarization config: %w", err)
		}
	}

	if err := cfg.Speakers.IsValid(); err != nil {
		return fmt.Errorf("invalid Speakers config: %w", err)
	}

	if cfg.Summary.Enabled && cfg.Summary.APIKey == "" {
		return fmt.Errorf("Summary.APIKey cannot be empty")
	}

	if len(cfg.Formats) == 0 {
		return fmt.Errorf("Formats cannot be empty")
	}
	for _, f := range cfg.Formats {
		if !f.IsValid() {
			return fmt.Errorf("Formats value %q is not valid", f)
		}
	}

	return nil
}

func (cfg *TranscriberConfig) SetDefaults() {
	if cfg.TranscribeAPI == "" {
		cfg.TranscribeAPI = TranscribeAPIDefault
	}
	if cfg.Whisper.NumThreads == 0 {
		cfg.Whisper.NumThreads = max(1, runtime.NumCPU()/2)
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = OpenAIModelDefault
	}
	if cfg.Summary.Model == "" {
		cfg.Summary.Model = SummaryModelDefault
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []OutputFormat{OutputFormatText, OutputFormatSRT, OutputFormatJSON}
	}
	cfg.Speakers.SetDefaults()
}

func (cfg TranscriberConfig) ToEnv() []string {
	env := []string{
		fmt.Sprintf("INPUT_PATH=%s", cfg.InputPath),
		fmt.Sprintf("INPUT_DIR=%s", cfg.InputDir),
		fmt.Sprintf("OUTPUT_DIR=%s", cfg.OutputDir),
		fmt.Sprintf("TRANSCRIBE_API=%s", cfg.TranscribeAPI),
		fmt.Sprintf("LANGUAGE=%s", cfg.Language),
		fmt.Sprintf("MODEL_FILE=%s", cfg.Whisper.ModelFile),
		fmt.Sprintf("NUM_THREADS=%d", cfg.Whisper.NumThreads),
		fmt.Sprintf("BEAM_SIZE=%d", cfg.Whisper.BeamSize),
		fmt.Sprintf("WORD_TIMESTAMPS=%t", cfg.Whisper.WordTimestamps),
		fmt.Sprintf("AUDIO_LOUDNORM=%t", cfg.Audio.Loudnorm),
		fmt.Sprintf("AUDIO_DENOISE=%t", cfg.Audio.Denoise),
		fmt.Sprintf("VAD_ENABLED=%t", cfg.Audio.VAD.Enabled),
		fmt.Sprintf("VAD_MODEL_PATH=%s", cfg.Audio.VAD.ModelPath),
		fmt.Sprintf("DIARIZATION_ENABLED=%t", cfg.Diarization.Enabled),
		fmt.Sprintf("DIARIZATION_URL=%s", cfg.Diarization.URL),
		fmt.Sprintf("DIARIZATION_MIN_SPEAKERS=%d", cfg.Diarization.MinSpeakers),
		fmt.Sprintf("DIARIZATION_MAX_SPEAKERS=%d", cfg.Diarization.MaxSpeakers),
		fmt.Sprintf("SUMMARY_ENABLED=%t", cfg.Summary.Enabled),
	}
	env = append(env, cfg.Speakers.ToEnv()...)

	formats := make([]string, len(cfg.Formats))
	for i, f := range cfg.Formats {
		formats[i] = string(f)
	}
	env = append(env, fmt.Sprintf("OUTPUT_FORMATS=%s", strings.Join(formats, ",")))

	return env
}

func FromEnv() (TranscriberConfig, error) {
	var cfg TranscriberConfig
	cfg.InputPath = os.Getenv("INPUT_PATH")
	cfg.InputDir = os.Getenv("INPUT_DIR")
	cfg.OutputDir = os.Getenv("OUTPUT_DIR")
	cfg.Language = os.Getenv("LANGUAGE")
	cfg.Whisper.ModelFile = os.Getenv("MODEL_FILE")
	cfg.Whisper.NumThreads, _ = strconv.Atoi(os.Getenv("NUM_THREADS"))
	cfg.Whisper.BeamSize, _ = strconv.Atoi(os.Getenv("BEAM_SIZE"))
	cfg.Whisper.WordTimestamps = true
	if val := os.Getenv("WORD_TIMESTAMPS"); val != "" {
		cfg.Whisper.WordTimestamps, _ = strconv.ParseBool(val)
	}

	if val := os.Getenv("TRANSCRIBE_API"); val != "" {
		cfg.TranscribeAPI = TranscribeAPI(val)
	}

	cfg.Audio.Loudnorm, _ = strconv.ParseBool(os.Getenv("AUDIO_LOUDNORM"))
	cfg.Audio.Denoise, _ = strconv.ParseBool(os.Getenv("AUDIO_DENOISE"))
	cfg.Audio.VAD.Enabled, _ = strconv.ParseBool(os.Getenv("VAD_ENABLED"))
	cfg.Audio.VAD.ModelPath = os.Getenv("VAD_MODEL_PATH")

	cfg.Diarization.Enabled, _ = strconv.ParseBool(os.Getenv("DIARIZATION_ENABLED"))
	cfg.Diarization.URL = os.Getenv("DIARIZATION_URL")
	cfg.Diarization.MinSpeakers, _ = strconv.Atoi(os.Getenv("DIARIZATION_MIN_SPEAKERS"))
	cfg.Diarization.MaxSpeakers, _ = strconv.Atoi(os.Getenv("DIARIZATION_MAX_SPEAKERS"))

	cfg.Speakers.MergeGap = diarize.MergeGapDefault
	cfg.Speakers.FromEnv()

	cfg.Azure.SpeechKey = os.Getenv("AZURE_SPEECH_KEY")
	cfg.Azure.SpeechRegion = os.Getenv("AZURE_SPEECH_REGION")
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.Model = os.Getenv("OPENAI_MODEL")

	cfg.Summary.Enabled, _ = strconv.ParseBool(os.Getenv("SUMMARY_ENABLED"))
	cfg.Summary.APIKey = os.Getenv("SUMMARY_API_KEY")
	cfg.Summary.Model = os.Getenv("SUMMARY_MODEL")

	if val := os.Getenv("OUTPUT_FORMATS"); val != "" {
		for _, f := range strings.Split(val, ",") {
			cfg.Formats = append(cfg.Formats, OutputFormat(strings.TrimSpace(f)))
		}
	}

	return cfg, nil
}

// Load reads a YAML config file. Fields whose zero value is a meaningful
// setting are prefilled with their defaults first so that an omitted key and
// an explicit zero can be told apart.
func Load(path string) (TranscriberConfig, error) {
	var cfg TranscriberConfig
	cfg.Speakers.MergeGap = diarize.MergeGapDefault
	cfg.Whisper.WordTimestamps = true

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
