package crossing

import (
	"errors"
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/LdDl/footfall-go/mot"
)

func trajectory(ys ...float64) []mot.Point {
	points := make([]mot.Point, len(ys))
	for i, y := range ys {
		points[i] = mot.NewPoint(100, y)
	}
	return points
}

func mustLine(t *testing.T, frameHeight int, position, threshold float64) Line {
	t.Helper()
	line, err := NewLine(frameHeight, position, threshold)
	if err != nil {
		t.Fatalf("NewLine failed: %v", err)
	}
	return line
}

func TestNewLine(t *testing.T) {
	line := mustLine(t, 101, 0.5, DefaultThreshold)
	if line.Y != 50 {
		t.Errorf("Expected line y 50, got %v", line.Y)
	}
	left, right := line.Endpoints(640)
	if left != image.Pt(0, 50) || right != image.Pt(640, 50) {
		t.Errorf("Wrong endpoints: %v, %v", left, right)
	}
}

func TestNewLineInvalid(t *testing.T) {
	cases := []struct {
		name        string
		frameHeight int
		position    float64
		threshold   float64
	}{
		{"zero height", 0, 0.5, 5},
		{"position below zero", 100, -0.1, 5},
		{"position above one", 100, 1.1, 5},
		{"nan position", 100, math.NaN(), 5},
		{"negative threshold", 100, 0.5, -1},
	}
	for _, tc := range cases {
		_, err := NewLine(tc.frameHeight, tc.position, tc.threshold)
		if !errors.Is(err, ErrInvalidLine) {
			t.Errorf("%s: expected ErrInvalidLine, got %v", tc.name, err)
		}
	}
}

func TestRecordExactlyOnce(t *testing.T) {
	counter := NewCounter(mustLine(t, 100, 0.5, 5))
	history := trajectory(40, 60)
	if direction := counter.Record(1, history); direction != DirectionEntry {
		t.Fatalf("Expected entry, got %s", direction)
	}
	if counter.Entries() != 1 {
		t.Fatalf("Expected 1 entry, got %d", counter.Entries())
	}
	// Further movement of the same track, in any direction, is never counted again
	for _, h := range [][]mot.Point{history, trajectory(40, 60, 30, 80), trajectory(60, 20), trajectory(45, 70)} {
		if direction := counter.Record(1, h); direction != DirectionNone {
			t.Errorf("Expected no classification for recorded track, got %s", direction)
		}
	}
	if counter.Entries() != 1 || counter.Exits() != 0 {
		t.Errorf("Expected tally 1/0, got %d/%d", counter.Entries(), counter.Exits())
	}
	if direction, ok := counter.Crossed(1); !ok || direction != DirectionEntry {
		t.Errorf("Expected entry record, got %s (%v)", direction, ok)
	}
}

func TestRecordExit(t *testing.T) {
	counter := NewCounter(mustLine(t, 100, 0.5, 5))
	if direction := counter.Record(7, trajectory(70, 50, 44)); direction != DirectionExit {
		t.Fatalf("Expected exit, got %s", direction)
	}
	if counter.Exits() != 1 || counter.Net() != -1 {
		t.Errorf("Expected 1 exit and net -1, got %d and %d", counter.Exits(), counter.Net())
	}
}

func TestHysteresis(t *testing.T) {
	counter := NewCounter(mustLine(t, 100, 0.5, 5))
	cases := []struct {
		name    string
		history []mot.Point
	}{
		{"single point", trajectory(40)},
		{"empty", nil},
		{"inside margin below", trajectory(48, 55)},
		{"inside margin above", trajectory(52, 45)},
		{"starts below line", trajectory(51, 70)},
		{"starts above line", trajectory(49, 30)},
		{"far from line", trajectory(10, 20)},
	}
	for _, tc := range cases {
		if direction := counter.Record(1, tc.history); direction != DirectionNone {
			t.Errorf("%s: expected none, got %s", tc.name, direction)
		}
	}
	if counter.Tally() != (Tally{}) {
		t.Errorf("Expected empty tally, got %+v", counter.Tally())
	}
	// Starting exactly on the line counts in both directions
	if direction := counter.Evaluate(2, trajectory(50, 56)); direction != DirectionEntry {
		t.Errorf("Expected entry from the line, got %s", direction)
	}
	if direction := counter.Evaluate(3, trajectory(50, 44)); direction != DirectionExit {
		t.Errorf("Expected exit from the line, got %s", direction)
	}
}

func TestEvaluateDoesNotRecord(t *testing.T) {
	counter := NewCounter(mustLine(t, 100, 0.5, 5))
	for i := 0; i < 3; i++ {
		if direction := counter.Evaluate(1, trajectory(40, 60)); direction != DirectionEntry {
			t.Fatalf("Expected entry, got %s", direction)
		}
	}
	if counter.Entries() != 0 {
		t.Errorf("Evaluate changed tally: %d", counter.Entries())
	}
	if _, ok := counter.Crossed(1); ok {
		t.Error("Evaluate created crossing record")
	}
}

func TestForget(t *testing.T) {
	counter := NewCounter(mustLine(t, 100, 0.5, 5))
	counter.Record(1, trajectory(40, 60))
	counter.Forget(1)
	if _, ok := counter.Crossed(1); ok {
		t.Error("Crossing record should be forgotten")
	}
	if counter.Entries() != 1 {
		t.Errorf("Forget changed tally: %d", counter.Entries())
	}
}

func TestNetCountIdentity(t *testing.T) {
	counter := NewCounter(mustLine(t, 100, 0.5, 5))
	rng := rand.New(rand.NewSource(42))
	prevEntries, prevExits := 0, 0
	for i := 0; i < 2000; i++ {
		id := mot.TrackID(rng.Intn(50))
		counter.Record(id, trajectory(rng.Float64()*100, rng.Float64()*100))
		tally := counter.Tally()
		if tally.Net() != tally.Entries-tally.Exits || counter.Net() != tally.Net() {
			t.Fatalf("Net count identity broken: %+v, net %d", tally, counter.Net())
		}
		if tally.Entries < prevEntries || tally.Exits < prevExits {
			t.Fatalf("Tally decreased: %+v after %d/%d", tally, prevEntries, prevExits)
		}
		prevEntries, prevExits = tally.Entries, tally.Exits
	}
	if counter.Entries()+counter.Exits() > 50 {
		t.Errorf("More crossings than tracks: %d", counter.Entries()+counter.Exits())
	}
}

func TestDirectionString(t *testing.T) {
	if DirectionEntry.String() != "entry" || DirectionExit.String() != "exit" || DirectionNone.String() != "none" {
		t.Error("Unexpected direction names")
	}
}
