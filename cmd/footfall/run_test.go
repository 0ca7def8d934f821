package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LdDl/footfall-go/internal/config"
	"github.com/LdDl/footfall-go/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// walkerCSV writes detections of one person walking vertically from y0 by step per frame
func walkerCSV(t *testing.T, dir, name string, y0, step float64, frames int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("frame,x1,y1,x2,y2,confidence\n")
	for i := 0; i < frames; i++ {
		cy := y0 + step*float64(i)
		fmt.Fprintf(&sb, "%d,%v,%v,%v,%v,0.9\n", i, 300.0, cy-40, 340.0, cy+40)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.OutputsDir = filepath.Join(t.TempDir(), "outputs")
	cfg.DatabasePath = filepath.Join(t.TempDir(), "footfall.db")
	cfg.ProgressInterval = 5
	return cfg
}

func TestRunSessions(t *testing.T) {
	dir := t.TempDir()
	down := walkerCSV(t, dir, "down.csv", 100, 20, 20)
	up := walkerCSV(t, dir, "up.csv", 460, -20, 20)
	cfg := testConfig(t)

	summaries, err := run(context.Background(), zerolog.Nop(), cfg, options{
		frameHeight: 480,
		outputVideo: "out.mp4",
		inputs:      []string{down, up},
	})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	require.Equal(t, down, summaries[0].VideoFile)
	require.Equal(t, 1, summaries[0].TotalEntries)
	require.Equal(t, 0, summaries[0].TotalExits)
	require.Equal(t, 20, summaries[0].Frames)

	require.Equal(t, 0, summaries[1].TotalEntries)
	require.Equal(t, 1, summaries[1].TotalExits)
	require.Equal(t, -1, summaries[1].NetCount)
	require.NotEqual(t, summaries[0].SessionID, summaries[1].SessionID)

	fromFile, err := store.ReadJSON(filepath.Join(cfg.OutputsDir, "down_counts.json"))
	require.NoError(t, err)
	require.Equal(t, summaries[0].SessionID, fromFile.SessionID)
	require.Equal(t, "out.mp4", fromFile.OutputVideo)

	db, err := store.OpenSQLite(cfg.DatabasePath)
	require.NoError(t, err)
	defer db.Close()
	stored, err := db.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	path := walkerCSV(t, dir, "down.csv", 100, 20, 20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := run(ctx, zerolog.Nop(), testConfig(t), options{frameHeight: 480, inputs: []string{path}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunMissingInput(t *testing.T) {
	_, err := run(context.Background(), zerolog.Nop(), testConfig(t), options{
		frameHeight: 480,
		inputs:      []string{filepath.Join(t.TempDir(), "absent.csv")},
	})
	require.Error(t, err)
}

func TestCountsPaths(t *testing.T) {
	got := countsPaths("outputs", []string{"/data/entrance.csv", "a/cam.csv", "b/cam.csv"})
	require.Equal(t, []string{
		filepath.Join("outputs", "entrance_counts.json"),
		filepath.Join("outputs", "cam_1_counts.json"),
		filepath.Join("outputs", "cam_2_counts.json"),
	}, got)
}

func TestRunSameFileNameInDifferentDirectories(t *testing.T) {
	root := t.TempDir()
	dirA := filepath.Join(root, "a")
	dirB := filepath.Join(root, "b")
	require.NoError(t, os.MkdirAll(dirA, 0o755))
	require.NoError(t, os.MkdirAll(dirB, 0o755))
	first := walkerCSV(t, dirA, "cam.csv", 100, 20, 20)
	second := walkerCSV(t, dirB, "cam.csv", 460, -20, 20)
	cfg := testConfig(t)

	summaries, err := run(context.Background(), zerolog.Nop(), cfg, options{
		frameHeight: 480,
		inputs:      []string{first, second},
	})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	written, err := filepath.Glob(filepath.Join(cfg.OutputsDir, "*_counts.json"))
	require.NoError(t, err)
	require.Len(t, written, 2)

	fromFirst, err := store.ReadJSON(filepath.Join(cfg.OutputsDir, "cam_0_counts.json"))
	require.NoError(t, err)
	require.Equal(t, summaries[0].SessionID, fromFirst.SessionID)
	require.Equal(t, 1, fromFirst.TotalEntries)

	fromSecond, err := store.ReadJSON(filepath.Join(cfg.OutputsDir, "cam_1_counts.json"))
	require.NoError(t, err)
	require.Equal(t, summaries[1].SessionID, fromSecond.SessionID)
	require.Equal(t, 1, fromSecond.TotalExits)
}
