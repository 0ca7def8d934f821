package crossing

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// DefaultThreshold is default hysteresis margin in pixels around the line
const DefaultThreshold = 5.0

// ErrInvalidLine is returned by NewLine when parameters are out of range
var ErrInvalidLine = errors.New("invalid crossing line")

// Line is a horizontal counting boundary with a hysteresis margin
type Line struct {
	// Y is pixel row of the line
	Y float64
	// Threshold is distance in pixels a centroid must travel past the line to count
	Threshold float64
}

// NewLine places the line at floor(frameHeight * position), position being fraction of frame height in [0, 1]
func NewLine(frameHeight int, position, threshold float64) (Line, error) {
	if frameHeight <= 0 {
		return Line{}, errors.Wrapf(ErrInvalidLine, "frame height must be positive, got %d", frameHeight)
	}
	if math.IsNaN(position) || position < 0 || position > 1 {
		return Line{}, errors.Wrapf(ErrInvalidLine, "line position must be in [0, 1], got %v", position)
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return Line{}, errors.Wrapf(ErrInvalidLine, "threshold must be finite and non-negative, got %v", threshold)
	}
	return Line{
		Y:         math.Floor(float64(frameHeight) * position),
		Threshold: threshold,
	}, nil
}

// Endpoints returns left and right ends of the line for a frame of given width
func (line Line) Endpoints(frameWidth int) (image.Point, image.Point) {
	y := int(line.Y)
	return image.Pt(0, y), image.Pt(frameWidth, y)
}

// Classify inspects the movement from prev to curr.
// Entry requires starting at or above the line and ending more than Threshold below it,
// exit is the mirror case.
func (line Line) Classify(prevY, currY float64) Direction {
	if prevY <= line.Y && currY > line.Y+line.Threshold {
		return DirectionEntry
	}
	if prevY >= line.Y && currY < line.Y-line.Threshold {
		return DirectionExit
	}
	return DirectionNone
}
