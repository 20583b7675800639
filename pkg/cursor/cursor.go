// Package cursor provides positioned readers over a shared buffer.
package cursor

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/NamanBalaji/repstream/internal/logger"
	"github.com/NamanBalaji/repstream/pkg/buffer"
	"github.com/NamanBalaji/repstream/pkg/errors"
)

const resourceName = "cursor"

// Cursor reads a buffer sequentially from its own position. The buffer is
// shared and not owned; a Cursor is not safe for concurrent use.
type Cursor struct {
	id       uuid.UUID
	buf      buffer.Buffer
	release  func(*Cursor)
	position int64
	closed   atomic.Bool
	one      [1]byte
}

var (
	_ io.Reader     = (*Cursor)(nil)
	_ io.ByteReader = (*Cursor)(nil)
	_ io.Seeker     = (*Cursor)(nil)
	_ io.Closer     = (*Cursor)(nil)
)

// New returns a cursor at offset 0. release, if not nil, runs once when the
// cursor is closed.
func New(buf buffer.Buffer, release func(*Cursor)) *Cursor {
	return &Cursor{
		id:      uuid.New(),
		buf:     buf,
		release: release,
	}
}

func (c *Cursor) ID() uuid.UUID {
	return c.id
}

// Position returns the absolute offset of the next read.
func (c *Cursor) Position() int64 {
	return c.position
}

// SeekTo moves the cursor to an absolute offset. Offsets past the end of
// the data are allowed; the next read reports io.EOF.
func (c *Cursor) SeekTo(pos int64) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if pos < 0 {
		return errors.NewInvalidError(fmt.Errorf("%w: seek to %d", errors.ErrInvalidRange, pos), resourceName)
	}

	c.position = pos
	return nil
}

// Seek implements io.Seeker. io.SeekEnd is not supported because the total
// length is unknown until the source is exhausted.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = c.position + offset
	default:
		return 0, errors.NewInvalidError(errors.ErrUnsupportedWhence, resourceName)
	}

	if err := c.SeekTo(target); err != nil {
		return 0, err
	}

	return c.position, nil
}

// ReadByte reads one byte and advances by one on success.
func (c *Cursor) ReadByte() (byte, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}

	n, err := c.buf.Get(c.one[:], c.position)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}

	c.position++
	return c.one[0], nil
}

// Read reads from the current position and advances by the count read.
func (c *Cursor) Read(p []byte) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := c.buf.Get(p, c.position)
	c.position += int64(n)
	return n, err
}

// ReadInto reads up to n bytes into p[off:off+n].
func (c *Cursor) ReadInto(p []byte, off, n int) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	if off < 0 || n < 0 || off+n > len(p) {
		return 0, errors.WithDetails(
			errors.NewInvalidError(errors.ErrInvalidRange, resourceName),
			map[string]any{"offset": off, "length": n, "capacity": len(p)},
		)
	}

	return c.Read(p[off : off+n])
}

// Close marks the cursor closed and runs the release callback. Only the
// first call has any effect.
func (c *Cursor) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	logger.Debugf("Closed cursor %s at position %d", c.id, c.position)

	if c.release != nil {
		c.release(c)
	}

	return nil
}

func (c *Cursor) IsClosed() bool {
	return c.closed.Load()
}

func (c *Cursor) checkOpen() error {
	if c.closed.Load() {
		return errors.NewClosedError(resourceName)
	}
	return nil
}
