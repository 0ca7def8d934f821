package mot

// History is a fixed-capacity ring buffer of centroids in chronological order.
// Pushing onto a full history evicts the oldest point.
type History struct {
	points []Point
	// Index of the oldest point
	start int
	size  int
}

// NewHistory creates empty history which holds at most capacity points
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		points: make([]Point, capacity),
	}
}

// Push appends point as the most recent entry
func (h *History) Push(pt Point) {
	capacity := len(h.points)
	if h.size < capacity {
		h.points[(h.start+h.size)%capacity] = pt
		h.size++
		return
	}
	h.points[h.start] = pt
	h.start = (h.start + 1) % capacity
}

// Len returns number of stored points
func (h *History) Len() int {
	return h.size
}

// Cap returns maximum number of stored points
func (h *History) Cap() int {
	return len(h.points)
}

// At returns i-th point counting from the oldest one. Negative i counts from the most recent one (-1 is the last point).
func (h *History) At(i int) (Point, bool) {
	if i < 0 {
		i += h.size
	}
	if i < 0 || i >= h.size {
		return Point{}, false
	}
	return h.points[(h.start+i)%len(h.points)], true
}

// Last returns the most recent point
func (h *History) Last() (Point, bool) {
	return h.At(-1)
}

// Points returns copy of stored points, oldest first
func (h *History) Points() []Point {
	out := make([]Point, h.size)
	for i := range out {
		out[i] = h.points[(h.start+i)%len(h.points)]
	}
	return out
}
