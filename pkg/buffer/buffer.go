// Package buffer lets a read-once byte stream be traversed repeatedly and
// out of order. A Buffer answers reads at absolute stream offsets; cursors
// built on top of it keep their own positions.
package buffer

import (
	"sync/atomic"

	"github.com/NamanBalaji/repstream/pkg/errors"
)

// Buffer is implemented by every buffering strategy.
type Buffer interface {
	// Get copies data starting at the absolute position into dst and
	// returns the number of bytes copied, which may be less than len(dst)
	// near the end of the data. When position is at or beyond the end of
	// everything the stream will ever produce, Get returns 0, io.EOF.
	// Get fails with a closed error once Close has been called.
	Get(dst []byte, position int64) (int, error)

	// Close releases every resource the buffer holds.
	Close() error
}

// lifecycle tracks the one-way open -> closed transition shared by all
// implementations.
type lifecycle struct {
	name   string
	closed atomic.Bool
}

func (l *lifecycle) checkOpen() error {
	if l.closed.Load() {
		return errors.NewClosedError(l.name)
	}
	return nil
}

// markClosed reports whether this call performed the transition.
func (l *lifecycle) markClosed() bool {
	return l.closed.CompareAndSwap(false, true)
}

// IsClosed reports whether Close has been called.
func (l *lifecycle) IsClosed() bool {
	return l.closed.Load()
}

func checkPosition(position int64, length int, resource string) (Range, error) {
	r, err := NewRange(position, position+int64(length))
	if err != nil {
		return Range{}, errors.NewInvalidError(err, resource)
	}
	return r, nil
}
