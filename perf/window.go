package perf

// ringWindow is a fixed capacity FIFO of the most recent values pushed
// into it.
type ringWindow struct {
	buf   []float64
	start int
	size  int
}

func newRingWindow(capacity int) *ringWindow {
	return &ringWindow{buf: make([]float64, capacity)}
}

func (w *ringWindow) Push(v float64) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = v
		w.size++
		return
	}

	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

func (w *ringWindow) Full() bool { return w.size == len(w.buf) }
func (w *ringWindow) Len() int   { return w.size }

// Values returns a copy of the contents, oldest first.
func (w *ringWindow) Values() []float64 {
	out := make([]float64, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// slidingWindow is one full window over a series.
type slidingWindow struct {
	Start  int
	Values []float64
}

// slidingWindows walks values with a window of the given size, moving
// step elements at a time. Only complete windows are returned, so a
// series shorter than size yields nothing. The window ending at the last
// element is always included.
func slidingWindows(values []float64, size, step int) []slidingWindow {
	if size <= 0 || len(values) < size {
		return nil
	}
	if step < 1 {
		step = 1
	}

	out := []slidingWindow{}
	ring := newRingWindow(size)
	for i, v := range values {
		ring.Push(v)
		if !ring.Full() {
			continue
		}

		start := i - size + 1
		if start%step == 0 || i == len(values)-1 {
			out = append(out, slidingWindow{Start: start, Values: ring.Values()})
		}
	}

	return out
}
