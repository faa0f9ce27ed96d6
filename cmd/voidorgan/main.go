package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"

	"voidorgan/internal/stage"
)

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler.
func initLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func main() {
	debug := flag.Bool("debug", false, "debug logging")
	seed := flag.Uint64("seed", 0, "deterministic session seed (0 = clock)")
	noMIDI := flag.Bool("no-midi", false, "disable MIDI input")
	noSpeech := flag.Bool("no-speech", false, "disable spoken fragments")
	flag.Parse()

	logger := initLogger(*debug)
	stage.SetLogger(logger)

	if *seed == 0 {
		if s := os.Getenv("VOIDORGAN_SEED"); s != "" {
			if v, err := strconv.ParseUint(s, 10, 64); err == nil {
				*seed = v
			}
		}
	}

	opts := stage.Options{
		Seed:         *seed,
		GenAIKey:     os.Getenv("GENAI_API_KEY"),
		EnableMIDI:   !*noMIDI,
		SpeechOutput: !*noSpeech,
	}
	if err := stage.RunDesktop(opts); err != nil {
		logger.Error("session failed", "err", err)
		os.Exit(1)
	}
}
