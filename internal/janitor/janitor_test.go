package janitor_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/repstream/internal/janitor"
)

func TestScheduleRunsTasks(t *testing.T) {
	j := janitor.New(2, 0, time.Millisecond)

	var ran atomic.Int32
	for range 10 {
		require.True(t, j.Schedule("task", func() error {
			ran.Add(1)
			return nil
		}))
	}

	require.NoError(t, j.Close())
	assert.Equal(t, int32(10), ran.Load())
	assert.Equal(t, 0, j.Pending())
}

func TestRetriesUntilSuccess(t *testing.T) {
	j := janitor.New(1, 5, time.Millisecond)

	var attempts atomic.Int32
	done := make(chan struct{})
	j.Schedule("flaky", func() error {
		if attempts.Add(1) < 3 {
			return errors.New("busy")
		}
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task was not retried to success")
	}

	require.NoError(t, j.Close())
	assert.Equal(t, int32(3), attempts.Load())
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	j := janitor.New(1, 2, time.Millisecond)

	var attempts atomic.Int32
	j.Schedule("broken", func() error {
		attempts.Add(1)
		return errors.New("permanent")
	})

	require.Eventually(t, func() bool { return j.Pending() == 0 }, 5*time.Second, time.Millisecond)
	require.NoError(t, j.Close())
	assert.Equal(t, int32(3), attempts.Load(), "one initial attempt plus two retries")
}

func TestCloseCutsBackoffShort(t *testing.T) {
	j := janitor.New(1, 3, time.Hour)

	var attempts atomic.Int32
	j.Schedule("slow", func() error {
		attempts.Add(1)
		return errors.New("still locked")
	})

	require.Eventually(t, func() bool { return attempts.Load() == 1 }, 5*time.Second, time.Millisecond)

	start := time.Now()
	require.NoError(t, j.Close())
	assert.Less(t, time.Since(start), time.Minute)
	assert.Equal(t, int32(2), attempts.Load(), "one final attempt on shutdown")
}

func TestScheduleAfterClose(t *testing.T) {
	j := janitor.New(1, 0, time.Millisecond)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.False(t, j.Schedule("late", func() error { return nil }))
}

func TestScheduleDoesNotBlockWhenQueueIsFull(t *testing.T) {
	j := janitor.New(1, 0, time.Millisecond)

	started := make(chan struct{})
	unblock := make(chan struct{})
	require.True(t, j.Schedule("blocker", func() error {
		close(started)
		<-unblock
		return nil
	}))
	<-started

	for range janitor.QueueSize {
		require.True(t, j.Schedule("queued", func() error { return nil }))
	}

	scheduled := make(chan bool, 1)
	go func() { scheduled <- j.Schedule("overflow", func() error { return nil }) }()

	select {
	case ok := <-scheduled:
		assert.False(t, ok, "a full queue rejects the task")
	case <-time.After(5 * time.Second):
		t.Fatal("Schedule blocked on a full queue")
	}

	close(unblock)
	require.NoError(t, j.Close())
	assert.Equal(t, 0, j.Pending())
}
