package threadpool

import (
	"errors"
	"fmt"
	"io"
)

// TaskFailure is the error delivered by a Future when the pool was created
// with WithErrorTagging. It names the pool that ran the task and the task's
// place in that pool's submission order.
//
// Error returns the task error unchanged; only %+v shows the metadata:
//
//	squares: task #3 (id 1b4e28ba-2fa1-11d2-883f-0016d3cca427): disk full
type TaskFailure struct {
	Pool  string
	ID    string
	Index uint64
	Err   error
}

// TaskMetaError is implemented by errors that carry task metadata.
type TaskMetaError interface {
	error
	Unwrap() error
	PoolName() string
	TaskID() string
	TaskIndex() uint64
}

var _ TaskMetaError = (*TaskFailure)(nil)

func (e *TaskFailure) Error() string     { return e.Err.Error() }
func (e *TaskFailure) Unwrap() error     { return e.Err }
func (e *TaskFailure) PoolName() string  { return e.Pool }
func (e *TaskFailure) TaskID() string    { return e.ID }
func (e *TaskFailure) TaskIndex() uint64 { return e.Index }

func (e *TaskFailure) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		_, _ = fmt.Fprintf(s, "%s: task #%d (id %s): %+v", e.Pool, e.Index, e.ID, e.Err)
	case verb == 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = io.WriteString(s, e.Error())
	}
}

// tag wraps a failed task's error with the pool name and the future's identity.
func (p *Pool) tag(err error, id string, index uint64) error {
	if err == nil {
		return nil
	}
	return &TaskFailure{Pool: p.name, ID: id, Index: index, Err: err}
}

func taskMeta(err error) (TaskMetaError, bool) {
	var tme TaskMetaError
	ok := errors.As(err, &tme)
	return tme, ok
}

// ExtractTaskID returns the ID of the failed task if err carries one.
func ExtractTaskID(err error) (string, bool) {
	if tme, ok := taskMeta(err); ok {
		return tme.TaskID(), true
	}
	return "", false
}

// ExtractTaskIndex returns the submission index of the failed task if err carries one.
func ExtractTaskIndex(err error) (uint64, bool) {
	if tme, ok := taskMeta(err); ok {
		return tme.TaskIndex(), true
	}
	return 0, false
}

// ExtractPoolName returns the name of the pool that ran the failed task if err carries one.
func ExtractPoolName(err error) (string, bool) {
	if tme, ok := taskMeta(err); ok {
		return tme.PoolName(), true
	}
	return "", false
}
