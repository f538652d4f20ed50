package threadpool

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorTagging(t *testing.T) {
	p := newTestPool(t, WithThreads(2), WithErrorTagging(), WithName("squares"))
	boom := errors.New("boom")

	_, err := SubmitErr(p, func() error { return nil })
	require.NoError(t, err)
	f, err := SubmitErr(p, func() error { return boom })
	require.NoError(t, err)

	err = f.Err()
	require.ErrorIs(t, err, boom)
	require.Equal(t, "boom", err.Error())

	id, ok := ExtractTaskID(err)
	require.True(t, ok)
	require.Equal(t, f.ID(), id)

	idx, ok := ExtractTaskIndex(err)
	require.True(t, ok)
	require.Equal(t, uint64(1), idx)

	name, ok := ExtractPoolName(err)
	require.True(t, ok)
	require.Equal(t, "squares", name)

	var tf *TaskFailure
	require.ErrorAs(t, err, &tf)
	require.Equal(t, "squares", tf.Pool)

	require.Equal(t, fmt.Sprintf("squares: task #1 (id %s): boom", f.ID()), fmt.Sprintf("%+v", err))
	require.Equal(t, "boom", fmt.Sprintf("%v", err))
	require.Equal(t, `"boom"`, fmt.Sprintf("%q", err))
}

func TestErrorTagging_PanicsAreTagged(t *testing.T) {
	p := newTestPool(t, WithThreads(1), WithErrorTagging())
	f, err := Submit(p, func() (int, error) { panic("x") })
	require.NoError(t, err)

	err = f.Err()
	require.ErrorIs(t, err, ErrTaskPanicked)
	_, ok := ExtractTaskID(err)
	require.True(t, ok)
}

func TestErrorTagging_DisabledByDefault(t *testing.T) {
	p := newTestPool(t, WithThreads(1))
	f, err := SubmitErr(p, func() error { return errors.New("plain") })
	require.NoError(t, err)

	err = f.Err()
	_, ok := ExtractTaskID(err)
	require.False(t, ok)
	_, ok = ExtractTaskIndex(err)
	require.False(t, ok)
	_, ok = ExtractPoolName(err)
	require.False(t, ok)
}

func TestTaskFailure_SeenThroughWrapping(t *testing.T) {
	p := newTestPool(t, WithThreads(1), WithErrorTagging())
	f, err := SubmitErr(p, func() error { return errors.New("late") })
	require.NoError(t, err)

	wrapped := fmt.Errorf("batch: %w", f.Err())
	idx, ok := ExtractTaskIndex(wrapped)
	require.True(t, ok)
	require.Equal(t, uint64(0), idx)
	name, ok := ExtractPoolName(wrapped)
	require.True(t, ok)
	require.Equal(t, Namespace, name)
}

func TestTag_Nil(t *testing.T) {
	p := newTestPool(t, WithThreads(1))
	require.NoError(t, p.tag(nil, "id", 0))
}
