package queue

const defaultInitialSize = 64

type unbounded[T any] struct {
	ring[T]
	initial int
}

// NewUnbounded returns a FIFO queue that grows as needed.
// initial is the starting buffer size; zero selects a small default.
// The buffer shrinks back towards initial when the queue drains.
func NewUnbounded[T any](initial uint) Queue[T] {
	size := int(initial)
	if size == 0 {
		size = defaultInitialSize
	}
	return &unbounded[T]{ring: ring[T]{buf: make([]T, size)}, initial: size}
}

func (q *unbounded[T]) Push(v T) bool {
	if q.n == len(q.buf) {
		q.resize(2 * len(q.buf))
	}
	q.push(v)
	return true
}

func (q *unbounded[T]) Pop() (T, bool) {
	v, ok := q.pop()
	if ok && len(q.buf) > q.initial && q.n <= len(q.buf)/4 {
		q.resize(len(q.buf) / 2)
	}
	return v, ok
}

func (q *unbounded[T]) Peek() (T, bool) { return q.peek() }
func (q *unbounded[T]) Len() int        { return q.n }
func (q *unbounded[T]) Cap() int        { return 0 }
