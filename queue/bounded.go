package queue

type bounded[T any] struct {
	ring[T]
}

// NewBounded returns a FIFO queue holding at most capacity elements.
// A zero capacity is raised to 1.
func NewBounded[T any](capacity uint) Queue[T] {
	if capacity == 0 {
		capacity = 1
	}
	return &bounded[T]{ring: ring[T]{buf: make([]T, capacity)}}
}

func (q *bounded[T]) Push(v T) bool {
	if q.n == len(q.buf) {
		return false
	}
	q.push(v)
	return true
}

func (q *bounded[T]) Pop() (T, bool)  { return q.pop() }
func (q *bounded[T]) Peek() (T, bool) { return q.peek() }
func (q *bounded[T]) Len() int        { return q.n }
func (q *bounded[T]) Cap() int        { return len(q.buf) }
