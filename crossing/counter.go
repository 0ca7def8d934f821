package crossing

import (
	"github.com/LdDl/footfall-go/mot"
	"github.com/rs/zerolog"
)

// Counter classifies line crossings of tracks and counts each track at most once.
// It is not safe for concurrent use: create one Counter per video session.
type Counter struct {
	line    Line
	crossed map[mot.TrackID]Direction
	tally   Tally
	logger  zerolog.Logger
}

// CounterOption configures optional Counter properties
type CounterOption func(*Counter)

// WithLogger sets logger for debug messages about classified crossings
func WithLogger(logger zerolog.Logger) CounterOption {
	return func(counter *Counter) {
		counter.logger = logger
	}
}

// NewCounter creates counter for the given line with zero tally
func NewCounter(line Line, options ...CounterOption) *Counter {
	counter := &Counter{
		line:    line,
		crossed: make(map[mot.TrackID]Direction),
		logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(counter)
	}
	return counter
}

// Line returns counting line
func (counter *Counter) Line() Line {
	return counter.line
}

// Evaluate classifies the last step of the track's history without changing any state.
// Tracks which already have a crossing record and histories shorter than two points give DirectionNone.
func (counter *Counter) Evaluate(trackID mot.TrackID, history []mot.Point) Direction {
	if len(history) < 2 {
		return DirectionNone
	}
	if _, ok := counter.crossed[trackID]; ok {
		return DirectionNone
	}
	prev := history[len(history)-2]
	curr := history[len(history)-1]
	return counter.line.Classify(prev.Y, curr.Y)
}

// Record evaluates the track and, on a classified crossing, increments the matching total
// and stores the direction permanently. Repeated calls for a recorded track are no-ops.
func (counter *Counter) Record(trackID mot.TrackID, history []mot.Point) Direction {
	direction := counter.Evaluate(trackID, history)
	switch direction {
	case DirectionEntry:
		counter.tally.Entries++
	case DirectionExit:
		counter.tally.Exits++
	default:
		return DirectionNone
	}
	counter.crossed[trackID] = direction
	counter.logger.Debug().
		Int("track_id", int(trackID)).
		Str("direction", direction.String()).
		Int("entries", counter.tally.Entries).
		Int("exits", counter.tally.Exits).
		Msg("line crossed")
	return direction
}

// Crossed returns crossing record of the track
func (counter *Counter) Crossed(trackID mot.TrackID) (Direction, bool) {
	direction, ok := counter.crossed[trackID]
	return direction, ok
}

// Forget drops crossing record of a track which no longer exists.
// Totals are not affected. Identifiers are never reused by the tracker, so a forgotten track cannot be counted again.
func (counter *Counter) Forget(trackID mot.TrackID) {
	delete(counter.crossed, trackID)
}

// Tally returns current totals
func (counter *Counter) Tally() Tally {
	return counter.tally
}

// Entries returns number of downward crossings
func (counter *Counter) Entries() int {
	return counter.tally.Entries
}

// Exits returns number of upward crossings
func (counter *Counter) Exits() int {
	return counter.tally.Exits
}

// Net returns entries minus exits
func (counter *Counter) Net() int {
	return counter.tally.Net()
}
