package mot

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultMaxDistance is default maximum matching distance in pixels
	DefaultMaxDistance = 50.0
	// DefaultMaxDisappeared is default number of consecutive unmatched frames a track survives
	DefaultMaxDisappeared = 40
	// DefaultHistoryCapacity is default number of centroids kept per track
	DefaultHistoryCapacity = 10
)

// ErrInvalidConfig is returned by NewTracker when parameters are out of range
var ErrInvalidConfig = errors.New("invalid tracker configuration")

// Tracker is centroid based Multi-object tracker (MOT) with greedy frame-to-frame assignment.
// It must be fed frames in chronological order and is not safe for concurrent use:
// create one Tracker per video session.
type Tracker struct {
	// Main storage
	objects map[TrackID]*Track
	// Next identifier to assign. Only ever grows
	nextID TrackID
	// Threshold distance in pixels. Default 50.0
	maxDistance float64
	// Max number of consecutive frames when object could not be found again. Default 40
	maxDisappeared int
	// Number of centroids kept per track. Default 10
	historyCapacity int
	// Bookkeeping of the last Update call
	deregistered []TrackID
	discarded    int
	logger       zerolog.Logger
}

// TrackerOption configures optional Tracker properties
type TrackerOption func(*Tracker)

// WithLogger sets logger for debug messages about discarded detections and removed tracks
func WithLogger(logger zerolog.Logger) TrackerOption {
	return func(tracker *Tracker) {
		tracker.logger = logger
	}
}

// NewTrackerDefault creates default instance of Tracker
func NewTrackerDefault(options ...TrackerOption) *Tracker {
	tracker, err := NewTracker(DefaultMaxDistance, DefaultMaxDisappeared, DefaultHistoryCapacity, options...)
	if err != nil {
		panic(err)
	}
	return tracker
}

// NewTracker creates new instance of Tracker
func NewTracker(maxDistance float64, maxDisappeared, historyCapacity int, options ...TrackerOption) (*Tracker, error) {
	if math.IsNaN(maxDistance) || maxDistance < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "max distance must be non-negative, got %v", maxDistance)
	}
	if maxDisappeared < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "max disappeared must be non-negative, got %d", maxDisappeared)
	}
	if historyCapacity < 2 {
		return nil, errors.Wrapf(ErrInvalidConfig, "history capacity must be at least 2, got %d", historyCapacity)
	}
	tracker := &Tracker{
		objects:         make(map[TrackID]*Track),
		maxDistance:     maxDistance,
		maxDisappeared:  maxDisappeared,
		historyCapacity: historyCapacity,
		logger:          zerolog.Nop(),
	}
	for _, option := range options {
		option(tracker)
	}
	return tracker, nil
}

// Update consumes detections of the next frame and returns current mapping of track identifiers to centroids.
// Malformed detections (non-finite or inverted boxes) are discarded before matching.
func (tracker *Tracker) Update(detections []Detection) map[TrackID]Point {
	tracker.deregistered = nil
	tracker.discarded = 0

	centroids := make([]Point, 0, len(detections))
	for i, detection := range detections {
		if !detection.Valid() {
			tracker.discarded++
			tracker.logger.Debug().
				Int("index", i).
				Float64("x1", detection.X1).Float64("y1", detection.Y1).
				Float64("x2", detection.X2).Float64("y2", detection.Y2).
				Msg("discarding malformed detection")
			continue
		}
		centroids = append(centroids, detection.Centroid())
	}

	for _, object := range tracker.objects {
		object.predictNextPosition()
	}

	if len(centroids) == 0 {
		for _, objectID := range tracker.IDs() {
			tracker.markUnmatched(objectID)
		}
		return tracker.Objects()
	}

	if len(tracker.objects) == 0 {
		for _, centroid := range centroids {
			tracker.register(centroid)
		}
		return tracker.Objects()
	}

	objectIDs := tracker.IDs()
	distances := mat.NewDense(len(objectIDs), len(centroids), nil)
	priorityQueue := make(distanceHeap, 0, len(objectIDs))
	for row, objectID := range objectIDs {
		center := tracker.objects[objectID].GetCenter()
		for col, centroid := range centroids {
			distances.Set(row, col, euclideanDistance(center, centroid))
		}
		priorityQueue.Push(distanceRow{
			row:      row,
			distance: floats.Min(distances.RawRowView(row)),
		})
	}

	// We need to prevent double update of objects and double usage of detections
	usedRows := make([]bool, len(objectIDs))
	usedCols := make([]bool, len(centroids))

	for priorityQueue.Len() > 0 {
		rowPoped := priorityQueue.Pop()
		col, dist, ok := closestAvailable(distances.RawRowView(rowPoped.row), usedCols)
		if !ok || dist > tracker.maxDistance {
			continue
		}
		objectID := objectIDs[rowPoped.row]
		err := tracker.objects[objectID].update(centroids[col])
		if err != nil {
			tracker.logger.Warn().Err(err).Int("track_id", int(objectID)).Msg("centroid estimator update failed")
		}
		usedRows[rowPoped.row] = true
		usedCols[col] = true
	}

	for row, objectID := range objectIDs {
		if !usedRows[row] {
			tracker.markUnmatched(objectID)
		}
	}
	for col, centroid := range centroids {
		if !usedCols[col] {
			tracker.register(centroid)
		}
	}
	return tracker.Objects()
}

// closestAvailable returns column with minimum distance in the row among columns not used yet.
// Ties resolve to the lowest column index.
func closestAvailable(row []float64, usedCols []bool) (int, float64, bool) {
	col := floats.MinIdx(row)
	if !usedCols[col] {
		return col, row[col], true
	}
	col = -1
	minDistance := math.Inf(1)
	for j, dist := range row {
		if usedCols[j] {
			continue
		}
		if dist < minDistance {
			minDistance = dist
			col = j
		}
	}
	return col, minDistance, col >= 0
}

func (tracker *Tracker) register(centroid Point) {
	objectID := tracker.nextID
	tracker.nextID++
	tracker.objects[objectID] = newTrack(objectID, centroid, tracker.historyCapacity)
}

func (tracker *Tracker) markUnmatched(objectID TrackID) {
	object := tracker.objects[objectID]
	object.incNoMatch()
	// Remove object if it was not found for a long time
	if object.GetNoMatchTimes() > tracker.maxDisappeared {
		tracker.deregister(objectID)
	}
}

func (tracker *Tracker) deregister(objectID TrackID) {
	delete(tracker.objects, objectID)
	tracker.deregistered = append(tracker.deregistered, objectID)
	tracker.logger.Debug().Int("track_id", int(objectID)).Msg("track deregistered")
}

// Objects returns snapshot of current mapping of track identifiers to centroids
func (tracker *Tracker) Objects() map[TrackID]Point {
	out := make(map[TrackID]Point, len(tracker.objects))
	for objectID, object := range tracker.objects {
		out[objectID] = object.GetCenter()
	}
	return out
}

// Predictions returns snapshot of Kalman estimates of track positions.
// Unmatched tracks keep coasting along their estimated velocity.
func (tracker *Tracker) Predictions() map[TrackID]Point {
	out := make(map[TrackID]Point, len(tracker.objects))
	for objectID, object := range tracker.objects {
		out[objectID] = object.Predicted()
	}
	return out
}

// IDs returns identifiers of current tracks in ascending (registration) order
func (tracker *Tracker) IDs() []TrackID {
	ids := make([]TrackID, 0, len(tracker.objects))
	for objectID := range tracker.objects {
		ids = append(ids, objectID)
	}
	slices.Sort(ids)
	return ids
}

// Track returns current track by its identifier
func (tracker *Tracker) Track(objectID TrackID) (*Track, bool) {
	object, ok := tracker.objects[objectID]
	return object, ok
}

// History returns copy of track's centroid history, oldest first. Unknown identifiers give nil
func (tracker *Tracker) History(objectID TrackID) []Point {
	object, ok := tracker.objects[objectID]
	if !ok {
		return nil
	}
	return object.GetHistory()
}

// Len returns number of current tracks
func (tracker *Tracker) Len() int {
	return len(tracker.objects)
}

// Deregistered returns identifiers removed during the last Update call
func (tracker *Tracker) Deregistered() []TrackID {
	return slices.Clone(tracker.deregistered)
}

// Discarded returns number of malformed detections dropped during the last Update call
func (tracker *Tracker) Discarded() int {
	return tracker.discarded
}

// MaxDistance returns matching distance threshold
func (tracker *Tracker) MaxDistance() float64 {
	return tracker.maxDistance
}

// MaxDisappeared returns number of consecutive unmatched frames a track survives
func (tracker *Tracker) MaxDisappeared() int {
	return tracker.maxDisappeared
}

// HistoryCapacity returns number of centroids kept per track
func (tracker *Tracker) HistoryCapacity() int {
	return tracker.historyCapacity
}
