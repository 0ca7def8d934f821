package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/LdDl/footfall-go/internal/config"
	"github.com/LdDl/footfall-go/internal/detections"
	"github.com/LdDl/footfall-go/internal/store"
	"github.com/LdDl/footfall-go/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type options struct {
	frameHeight int
	outputVideo string
	inputs      []string
}

// run processes every input as an independent session. Sessions run concurrently and share
// only the summary database handle.
func run(ctx context.Context, logger zerolog.Logger, cfg config.Config, opts options) ([]session.Summary, error) {
	var db *store.SQLite
	if cfg.DatabasePath != "" {
		var err error
		db, err = store.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, errors.Wrap(err, "Can't open summary database")
		}
		defer db.Close()
	}

	outputs := countsPaths(cfg.OutputsDir, opts.inputs)
	summaries := make([]session.Summary, len(opts.inputs))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, input := range opts.inputs {
		i, input := i, input
		group.Go(func() error {
			summary, err := processFile(groupCtx, logger, cfg, opts, input)
			if err != nil {
				return errors.Wrapf(err, "Can't process %s", input)
			}
			if err := store.WriteJSON(outputs[i], summary); err != nil {
				return err
			}
			if db != nil {
				if err := db.Save(groupCtx, summary); err != nil {
					return err
				}
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// countsPaths returns per-input summary locations: <outputs>/<input name>_counts.json.
// Inputs sharing a name get their position appended (<input name>_<i>_counts.json) so no summary overwrites another.
func countsPaths(outputsDir string, inputs []string) []string {
	bases := make([]string, len(inputs))
	seen := make(map[string]int, len(inputs))
	for i, input := range inputs {
		bases[i] = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		seen[bases[i]]++
	}
	paths := make([]string, len(inputs))
	for i, base := range bases {
		if seen[base] > 1 {
			base = base + "_" + strconv.Itoa(i)
		}
		paths[i] = filepath.Join(outputsDir, base+"_counts.json")
	}
	return paths
}

func processFile(ctx context.Context, logger zerolog.Logger, cfg config.Config, opts options, input string) (session.Summary, error) {
	file, err := os.Open(input)
	if err != nil {
		return session.Summary{}, errors.Wrap(err, "Can't open detections")
	}
	defer file.Close()

	s, err := session.New(cfg.Session(opts.frameHeight), session.WithLogger(logger))
	if err != nil {
		return session.Summary{}, err
	}
	sessionLogger := logger.With().Str("session_id", s.ID().String()).Str("input", input).Logger()
	sessionLogger.Info().
		Int("frame_height", opts.frameHeight).
		Float64("line_y", s.Line().Y).
		Msg("Processing detections")

	if err := processSource(ctx, sessionLogger, s, detections.NewSource(file), cfg.ProgressInterval); err != nil {
		return session.Summary{}, err
	}

	summary := s.Summary(time.Now().UTC(), input, opts.outputVideo)
	sessionLogger.Info().
		Int("frames", summary.Frames).
		Int("entries", summary.TotalEntries).
		Int("exits", summary.TotalExits).
		Int("net", summary.NetCount).
		Msg("Processing complete")
	return summary, nil
}

// processSource feeds frames to the session in order. Cancellation is honoured between frames only.
func processSource(ctx context.Context, logger zerolog.Logger, s *session.Session, src *detections.Source, progressInterval int) error {
	for {
		if err := ctx.Err(); err != nil {
			logger.Warn().Int("frames", s.Frames()).Msg("Processing stopped")
			return err
		}
		_, frameDetections, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		frame := s.Step(frameDetections)
		if discarded := s.Tracker().Discarded(); discarded > 0 {
			logger.Debug().Int("frame", frame.Index).Int("discarded", discarded).Msg("Malformed detections dropped")
		}
		for _, event := range frame.Crossings {
			estimate := frame.Predicted[event.TrackID]
			logger.Info().
				Int("frame", frame.Index).
				Int("track_id", int(event.TrackID)).
				Str("direction", event.Direction.String()).
				Float64("est_x", estimate.X).
				Float64("est_y", estimate.Y).
				Msg("Crossing")
		}
		if progressInterval > 0 && (frame.Index+1)%progressInterval == 0 {
			logger.Info().
				Int("frame", frame.Index+1).
				Int("in", frame.Tally.Entries).
				Int("out", frame.Tally.Exits).
				Int("tracks", len(frame.Objects)).
				Msg("Progress")
		}
	}
}
