package eyeball

import "github.com/banshee-data/gaze/internal/geom"

// history is a fixed-capacity ring of points; the oldest point is overwritten
// once the ring is full.
type history struct {
	points   []geom.Point3
	capacity int
	head     int // next write position
	size     int
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = 1
	}
	return &history{
		points:   make([]geom.Point3, capacity),
		capacity: capacity,
	}
}

// add stores p, evicting the oldest point if at capacity.
func (h *history) add(p geom.Point3) {
	h.points[h.head] = p
	h.head = (h.head + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
}

func (h *history) len() int {
	return h.size
}

func (h *history) clear() {
	h.head = 0
	h.size = 0
}

// all returns the stored points from oldest to newest.
func (h *history) all() geom.PointSet {
	out := make(geom.PointSet, h.size)
	for i := 0; i < h.size; i++ {
		idx := (h.head - h.size + i + h.capacity) % h.capacity
		out[i] = h.points[idx]
	}
	return out
}
