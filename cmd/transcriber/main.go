package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/call"
	"github.com/mr-cool08/sttq-transcriber/cmd/transcriber/config"
)

func slogReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		if source.File == "" {
			// Log from a dependency (e.g. speech detector).
			if pc, file, line, ok := runtime.Caller(7); ok {
				if f := runtime.FuncForPC(pc); f != nil {
					source.File = filepath.Base(filepath.Dir(file)) + "/" + filepath.Base(file)
					source.Line = line
				}
			}
		} else {
			source.File = filepath.Base(source.File)
		}
	}
	return a
}

func main() {
	var configFile string
	var inputPath string
	var outputDir string
	var debug bool
	flag.StringVar(&configFile, "c", "", "path to a YAML config file")
	flag.StringVar(&inputPath, "i", "", "path to the audio file to transcribe")
	flag.StringVar(&outputDir, "o", "", "directory to write transcripts to")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       level,
		ReplaceAttr: slogReplaceAttr,
	}))
	slog.SetDefault(logger)

	var cfg config.TranscriberConfig
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		slog.Error("failed to load config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// Flags take precedence over both config file and environment.
	if inputPath != "" {
		cfg.InputPath = inputPath
		cfg.InputDir = ""
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}

	cfg.SetDefaults()

	transcriber, err := call.NewTranscriber(cfg)
	if err != nil {
		slog.Error("failed to create transcriber", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting transcriber")

	if cfg.InputDir != "" {
		if err := transcriber.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("watch failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	} else {
		if err := transcriber.ProcessFile(ctx, cfg.InputPath); err != nil {
			slog.Error("failed to process file", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}

	slog.Info("transcriber has finished, exiting")
}
