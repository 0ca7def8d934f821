package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LdDl/footfall-go/internal/config"
	"github.com/rs/zerolog"
)

func main() {
	frameHeight := flag.Int("height", 0, "Frame height in pixels of the processed video (required)")
	dotenv := flag.String("env", ".env", "Optional dotenv file with FOOTFALL_* variables")
	outputVideo := flag.String("output-video", "", "Path of rendered video to mention in summaries")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -height N [flags] detections.csv [more.csv ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if *frameHeight <= 0 || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*dotenv)
	if err != nil {
		logger.Fatal().Err(err).Msg("Can't load configuration")
	}
	level, err := cfg.Level()
	if err != nil {
		logger.Fatal().Err(err).Msg("Can't parse log level")
	}
	logger = logger.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summaries, err := run(ctx, logger, cfg, options{
		frameHeight: *frameHeight,
		outputVideo: *outputVideo,
		inputs:      flag.Args(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Processing failed")
	}
	for _, summary := range summaries {
		fmt.Printf("%s\tIN=%d\tOUT=%d\tNET=%d\n", summary.VideoFile, summary.TotalEntries, summary.TotalExits, summary.NetCount)
	}
}
