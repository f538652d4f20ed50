// Package queue provides small generic FIFO queues backed by ring buffers.
//
// Queues in this package are not safe for concurrent use. They are meant to be
// embedded in a structure that already serializes access with its own lock,
// such as the threadpool's mutex/condition-variable pair.
package queue

// Queue is an ordered sequence of pending elements.
type Queue[T any] interface {
	// Push appends v at the tail. It returns false if the queue is bounded and full.
	Push(v T) bool

	// Pop removes and returns the head element.
	Pop() (T, bool)

	// Peek returns the head element without removing it.
	Peek() (T, bool)

	// Len returns the number of queued elements.
	Len() int

	// Cap returns the maximum number of elements, or 0 for an unbounded queue.
	Cap() int
}

// ring is the storage shared by bounded and unbounded queues.
type ring[T any] struct {
	buf  []T
	head int
	n    int
}

func (r *ring[T]) push(v T) {
	r.buf[(r.head+r.n)%len(r.buf)] = v
	r.n++
}

func (r *ring[T]) pop() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	// release the reference so executed closures can be collected
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.n--
	return v, true
}

func (r *ring[T]) peek() (T, bool) {
	if r.n == 0 {
		var zero T
		return zero, false
	}
	return r.buf[r.head], true
}

// resize copies the queued elements, in order, into a buffer of the given size.
func (r *ring[T]) resize(size int) {
	buf := make([]T, size)
	if r.n > 0 {
		if r.head+r.n <= len(r.buf) {
			copy(buf, r.buf[r.head:r.head+r.n])
		} else {
			k := copy(buf, r.buf[r.head:])
			copy(buf[k:], r.buf[:r.n-k])
		}
	}
	r.buf = buf
	r.head = 0
}
