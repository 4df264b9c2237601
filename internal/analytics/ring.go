package analytics

// Ring is a fixed-capacity append-only log. Once full, each append evicts the
// oldest entry. It is not safe for concurrent use; Store serializes access.
type Ring[T any] struct {
	buf   []T
	start int
	size  int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Append adds v and reports whether an old entry was evicted to make room
func (r *Ring[T]) Append(v T) bool {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return false
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
	return true
}

func (r *Ring[T]) Len() int { return r.size }

func (r *Ring[T]) Cap() int { return len(r.buf) }

// Recent copies out the newest n entries, oldest first
func (r *Ring[T]) Recent(n int) []T {
	if n > r.size {
		n = r.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	offset := r.size - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.start+offset+i)%len(r.buf)]
	}
	return out
}

// Snapshot copies out every entry, oldest first
func (r *Ring[T]) Snapshot() []T {
	return r.Recent(r.size)
}
