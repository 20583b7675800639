// Package stream hands out cursors over one shared buffer and releases the
// buffer once nobody can read it anymore.
package stream

import (
	"sync"

	"github.com/google/uuid"

	"github.com/NamanBalaji/repstream/internal/logger"
	"github.com/NamanBalaji/repstream/pkg/buffer"
	"github.com/NamanBalaji/repstream/pkg/cursor"
	"github.com/NamanBalaji/repstream/pkg/errors"
)

// Stream owns a buffer. The buffer is closed when the stream has been
// closed and every cursor it opened has been closed too.
type Stream struct {
	buf buffer.Buffer

	mu       sync.Mutex
	cursors  map[uuid.UUID]*cursor.Cursor
	closed   bool
	released bool
}

func New(buf buffer.Buffer) *Stream {
	return &Stream{
		buf:     buf,
		cursors: make(map[uuid.UUID]*cursor.Cursor),
	}
}

// OpenCursor returns a new cursor positioned at offset 0.
func (s *Stream) OpenCursor() (*cursor.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.NewClosedError("stream")
	}

	c := cursor.New(s.buf, s.release)
	s.cursors[c.ID()] = c

	return c, nil
}

// OpenCursors returns the number of cursors not yet closed.
func (s *Stream) OpenCursors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cursors)
}

// Close stops new cursors from being opened. Cursors already open keep
// working until they are closed.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	release := s.shouldRelease()
	s.mu.Unlock()

	if release {
		return s.releaseBuffer()
	}

	logger.Debugf("Stream closed with %d cursors still open", s.OpenCursors())
	return nil
}

func (s *Stream) release(c *cursor.Cursor) {
	s.mu.Lock()
	delete(s.cursors, c.ID())
	release := s.shouldRelease()
	s.mu.Unlock()

	if release {
		if err := s.releaseBuffer(); err != nil {
			logger.Warnf("Failed to release buffer after cursor %s closed: %v", c.ID(), err)
		}
	}
}

// shouldRelease claims the buffer release. Must be called with mu held.
func (s *Stream) shouldRelease() bool {
	if !s.closed || s.released || len(s.cursors) > 0 {
		return false
	}
	s.released = true
	return true
}

func (s *Stream) releaseBuffer() error {
	logger.Debugf("Releasing stream buffer")
	return s.buf.Close()
}
