package mot

import (
	"image"
	"math"
)

// Point is a 2D position in pixel coordinates
type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: float64(point.X),
		Y: float64(point.Y),
	}
}

// Detection is a single axis-aligned bounding box produced by an upstream detector
// for the current frame. Corners are (X1, Y1) top-left and (X2, Y2) bottom-right.
type Detection struct {
	X1         float64
	Y1         float64
	X2         float64
	Y2         float64
	Confidence float64
}

func NewDetection(x1, y1, x2, y2, confidence float64) Detection {
	return Detection{
		X1:         x1,
		Y1:         y1,
		X2:         x2,
		Y2:         y2,
		Confidence: confidence,
	}
}

func NewDetectionFrom(rect image.Rectangle, confidence float64) Detection {
	return Detection{
		X1:         float64(rect.Min.X),
		Y1:         float64(rect.Min.Y),
		X2:         float64(rect.Max.X),
		Y2:         float64(rect.Max.Y),
		Confidence: confidence,
	}
}

// Valid reports whether every coordinate and the centroid are finite and the box is not inverted
func (det Detection) Valid() bool {
	for _, v := range [4]float64{det.X1, det.Y1, det.X2, det.Y2} {
		if !isFinite(v) {
			return false
		}
	}
	if det.X2 < det.X1 || det.Y2 < det.Y1 {
		return false
	}
	center := det.Centroid()
	return isFinite(center.X) && isFinite(center.Y)
}

// Centroid returns midpoint of the bounding box
func (det Detection) Centroid() Point {
	return Point{
		X: det.X1 + (det.X2-det.X1)/2.0,
		Y: det.Y1 + (det.Y2-det.Y1)/2.0,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
}
