// Package janitor removes spilled buffer storage in the background so that
// closing a buffer never waits on the filesystem.
package janitor

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NamanBalaji/repstream/internal/logger"
)

const (
	QueueSize = 256
	maxDelay  = 30 * time.Second
)

type task struct {
	name string
	run  func() error
}

// Janitor runs removal tasks on a fixed set of workers.
type Janitor struct {
	tasks      chan task
	maxRetries int
	retryDelay time.Duration

	mu      sync.RWMutex
	closed  atomic.Bool
	quit    chan struct{}
	pending atomic.Int64

	group errgroup.Group
}

// New starts workers goroutines. A task that fails is retried up to
// maxRetries times with exponential backoff starting at retryDelay.
func New(workers, maxRetries int, retryDelay time.Duration) *Janitor {
	if workers <= 0 {
		workers = 1
	}

	j := &Janitor{
		tasks:      make(chan task, QueueSize),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		quit:       make(chan struct{}),
	}

	for range workers {
		j.group.Go(func() error {
			j.work()
			return nil
		})
	}

	return j
}

// Schedule queues fn for execution without blocking. It returns false if
// the janitor has been closed or its queue is full, in which case fn is not
// run and the caller has to dispose of the resource some other way.
func (j *Janitor) Schedule(name string, fn func() error) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed.Load() {
		return false
	}

	j.pending.Add(1)
	select {
	case j.tasks <- task{name: name, run: fn}:
		return true
	default:
		j.pending.Add(-1)
		logger.Warnf("Cleanup queue full, not scheduling %s", name)
		return false
	}
}

// Pending returns the number of tasks queued or running.
func (j *Janitor) Pending() int {
	return int(j.pending.Load())
}

// Close stops accepting tasks, runs everything already queued and waits for
// the workers to exit. Backoff sleeps are cut short.
func (j *Janitor) Close() error {
	j.mu.Lock()
	if !j.closed.CompareAndSwap(false, true) {
		j.mu.Unlock()
		return nil
	}
	close(j.quit)
	close(j.tasks)
	j.mu.Unlock()

	return j.group.Wait()
}

func (j *Janitor) work() {
	for t := range j.tasks {
		j.runWithRetries(t)
		j.pending.Add(-1)
	}
}

func (j *Janitor) runWithRetries(t task) {
	err := t.run()
	if err == nil {
		return
	}

	logger.Warnf("Cleanup of %s failed: %v", t.name, err)

	for attempt := 0; attempt < j.maxRetries; attempt++ {
		select {
		case <-time.After(calculateBackoff(attempt, j.retryDelay)):
		case <-j.quit:
			// Draining on shutdown: one more immediate attempt, no sleeping.
			if err = t.run(); err == nil {
				return
			}
			logger.Errorf("Giving up on cleanup of %s during shutdown: %v", t.name, err)
			return
		}

		logger.Debugf("Retrying cleanup of %s (attempt %d/%d)", t.name, attempt+1, j.maxRetries)

		if err = t.run(); err == nil {
			return
		}
	}

	logger.Errorf("Giving up on cleanup of %s: %v", t.name, err)
}

// calculateBackoff returns baseDelay * 2^retryCount with +/-25% jitter.
func calculateBackoff(retryCount int, baseDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << uint(retryCount))

	jitterFactor := 0.75 + 0.5*rand.Float64()
	jitter := time.Duration(float64(delay) * jitterFactor)

	if jitter > maxDelay {
		jitter = maxDelay
	}

	return jitter
}
