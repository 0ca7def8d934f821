package mot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// TrackID is identifier of a track. Identifiers are sequential and never reused within a tracker.
type TrackID int

// Track is a persistent identity linking detections of the same object across frames.
type Track struct {
	id                    TrackID
	currentCenter         Point
	predictedNextPosition Point
	history               *History
	noMatchTimes          int
	// Smooths centroid for Predicted(). Matching and history use raw centroids only.
	estimator *kalman_filter.Kalman2D
}

func newTrack(id TrackID, center Point, historyCapacity int) *Track {
	/* Kalman filter props */
	dt := 1.0
	ux := 1.0
	uy := 1.0
	stdDevA := 2.0
	stdDevMx := 0.1
	stdDevMy := 0.1
	kf := kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(center.X, center.Y))
	track := Track{
		id:                    id,
		currentCenter:         center,
		predictedNextPosition: center,
		history:               NewHistory(historyCapacity),
		noMatchTimes:          0,
		estimator:             kf,
	}
	track.history.Push(center)
	return &track
}

// GetID returns track's identifier
func (track *Track) GetID() TrackID {
	return track.id
}

// GetCenter returns track's current centroid
func (track *Track) GetCenter() Point {
	return track.currentCenter
}

// GetHistory returns copy of track's recent centroids, oldest first
func (track *Track) GetHistory() []Point {
	return track.history.Points()
}

// History returns underlying ring buffer. Be careful: this is not copy of history, but reference to it
func (track *Track) History() *History {
	return track.history
}

// GetNoMatchTimes returns number of consecutive frames the track has not been matched
func (track *Track) GetNoMatchTimes() int {
	return track.noMatchTimes
}

// Predicted returns Kalman estimate of the next centroid position
func (track *Track) Predicted() Point {
	return track.predictedNextPosition
}

func (track *Track) incNoMatch() {
	track.noMatchTimes++
}

// predictNextPosition executes Kalman filter's prediction step
func (track *Track) predictNextPosition() {
	track.estimator.Predict()
	stateX, stateY := track.estimator.GetState()
	track.predictedNextPosition.X = stateX
	track.predictedNextPosition.Y = stateY
}

// update moves the track onto matched centroid, appends it to history and resets disappearance counter.
// Error is returned only if Kalman correction fails; the raw centroid is applied regardless.
func (track *Track) update(center Point) error {
	track.currentCenter = center
	track.history.Push(center)
	track.noMatchTimes = 0
	err := track.estimator.Update(center.X, center.Y)
	if err != nil {
		return errors.Wrap(err, "Can't update centroid estimator")
	}
	stateX, stateY := track.estimator.GetState()
	track.predictedNextPosition.X = stateX
	track.predictedNextPosition.Y = stateY
	return nil
}
