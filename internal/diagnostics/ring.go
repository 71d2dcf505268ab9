package diagnostics

// ring is a fixed-capacity FIFO buffer. Pushing onto a full ring overwrites
// the oldest element.
type ring[T any] struct {
	buf   []T
	start int
	n     int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends v and returns the evicted element, if any.
func (r *ring[T]) push(v T) (evicted T, ok bool) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return evicted, false
	}
	evicted = r.buf[r.start]
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
	return evicted, true
}

func (r *ring[T]) len() int { return r.n }

// items returns the contents oldest first, in a fresh slice.
func (r *ring[T]) items() []T {
	out := make([]T, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

func (r *ring[T]) reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.start, r.n = 0, 0
}

// window is a rolling mean over the last capacity samples, kept with a
// running sum so each update is O(1).
type window struct {
	samples *ring[float64]
	sum     float64
}

func newWindow(capacity int) *window {
	return &window{samples: newRing[float64](capacity)}
}

func (w *window) add(v float64) {
	if old, ok := w.samples.push(v); ok {
		w.sum -= old
	}
	w.sum += v
}

// mean returns 0 for an empty window.
func (w *window) mean() float64 {
	if w.samples.len() == 0 {
		return 0
	}
	return w.sum / float64(w.samples.len())
}

func (w *window) reset() {
	w.samples.reset()
	w.sum = 0
}
