// Package session wires a tracker and a crossing counter into a single per-video state object.
//
// A Session owns all mutable state of one video: the track table, disappearance counters,
// trajectories and the crossing tally. Sessions share nothing, so a host processing several
// videos concurrently creates one Session per video and needs no locking. Frames must be
// passed to Step in chronological order without skipping any.
package session

import (
	"math"
	"time"

	"github.com/LdDl/footfall-go/crossing"
	"github.com/LdDl/footfall-go/mot"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config holds parameters of a single session
type Config struct {
	// Maximum matching distance in pixels
	MaxDistance float64
	// Number of consecutive unmatched frames a track survives
	MaxDisappeared int
	// Number of centroids kept per track
	HistoryCapacity int
	// Line position as fraction of frame height
	LinePosition float64
	// Hysteresis margin in pixels
	CrossingThreshold float64
	// Detections below this confidence are ignored. Zero keeps everything
	MinConfidence float64
	// Frame height in pixels
	FrameHeight int
}

// DefaultConfig returns configuration with default tracker and line parameters for given frame height
func DefaultConfig(frameHeight int) Config {
	return Config{
		MaxDistance:       mot.DefaultMaxDistance,
		MaxDisappeared:    mot.DefaultMaxDisappeared,
		HistoryCapacity:   mot.DefaultHistoryCapacity,
		LinePosition:      0.5,
		CrossingThreshold: crossing.DefaultThreshold,
		MinConfidence:     0,
		FrameHeight:       frameHeight,
	}
}

// Event is a crossing classified during a frame
type Event struct {
	TrackID   mot.TrackID
	Direction crossing.Direction
}

// Frame is output of a single Step call
type Frame struct {
	// Zero-based frame index within the session
	Index int
	// Current mapping of track identifiers to centroids
	Objects map[mot.TrackID]mot.Point
	// Smoothed position estimates of the same tracks, for overlays
	Predicted map[mot.TrackID]mot.Point
	// Crossings classified in this frame, in ascending track order
	Crossings []Event
	// Totals after this frame
	Tally crossing.Tally
}

// Session is the per-video state: one tracker and one crossing counter
type Session struct {
	id            uuid.UUID
	tracker       *mot.Tracker
	counter       *crossing.Counter
	minConfidence float64
	frames        int
	startedAt     time.Time
	logger        zerolog.Logger
}

// Option configures optional Session properties
type Option func(*Session)

// WithLogger sets logger for the session and its components
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithStartTime overrides session start time
func WithStartTime(startedAt time.Time) Option {
	return func(s *Session) {
		s.startedAt = startedAt
	}
}

// New validates configuration and creates fresh session
func New(cfg Config, options ...Option) (*Session, error) {
	if math.IsNaN(cfg.MinConfidence) || cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return nil, errors.Errorf("min confidence must be in [0, 1], got %v", cfg.MinConfidence)
	}
	s := &Session{
		id:            uuid.New(),
		minConfidence: cfg.MinConfidence,
		startedAt:     time.Now().UTC(),
		logger:        zerolog.Nop(),
	}
	for _, option := range options {
		option(s)
	}
	s.logger = s.logger.With().Str("session_id", s.id.String()).Logger()

	tracker, err := mot.NewTracker(cfg.MaxDistance, cfg.MaxDisappeared, cfg.HistoryCapacity, mot.WithLogger(s.logger))
	if err != nil {
		return nil, errors.Wrap(err, "Can't create tracker")
	}
	line, err := crossing.NewLine(cfg.FrameHeight, cfg.LinePosition, cfg.CrossingThreshold)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create crossing line")
	}
	s.tracker = tracker
	s.counter = crossing.NewCounter(line, crossing.WithLogger(s.logger))
	return s, nil
}

// Step processes detections of the next frame
func (s *Session) Step(detections []mot.Detection) Frame {
	if s.minConfidence > 0 {
		kept := make([]mot.Detection, 0, len(detections))
		for _, detection := range detections {
			if detection.Confidence >= s.minConfidence {
				kept = append(kept, detection)
			}
		}
		detections = kept
	}

	objects := s.tracker.Update(detections)
	for _, objectID := range s.tracker.Deregistered() {
		s.counter.Forget(objectID)
	}

	frame := Frame{
		Index:     s.frames,
		Objects:   objects,
		Predicted: s.tracker.Predictions(),
	}
	for _, objectID := range s.tracker.IDs() {
		direction := s.counter.Record(objectID, s.tracker.History(objectID))
		if direction != crossing.DirectionNone {
			frame.Crossings = append(frame.Crossings, Event{TrackID: objectID, Direction: direction})
		}
	}
	frame.Tally = s.counter.Tally()
	s.frames++
	return frame
}

// ID returns unique session identifier
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Frames returns number of processed frames
func (s *Session) Frames() int {
	return s.frames
}

// Tally returns current totals
func (s *Session) Tally() crossing.Tally {
	return s.counter.Tally()
}

// Line returns counting line
func (s *Session) Line() crossing.Line {
	return s.counter.Line()
}

// Tracker returns underlying tracker for read access (histories, predicted positions)
func (s *Session) Tracker() *mot.Tracker {
	return s.tracker
}

// StartedAt returns session start time
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}
