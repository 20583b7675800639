package stream_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/repstream/pkg/buffer"
	"github.com/NamanBalaji/repstream/pkg/errors"
	"github.com/NamanBalaji/repstream/pkg/store"
	"github.com/NamanBalaji/repstream/pkg/stream"
)

func newStream(t *testing.T, data string) (*stream.Stream, *buffer.WindowBuffer, *store.MemoryProvisioner) {
	t.Helper()
	p := store.NewMemoryProvisioner()
	b, err := buffer.NewWindowBuffer(bytes.NewReader([]byte(data)), nil, 4, p)
	require.NoError(t, err)
	return stream.New(b), b, p
}

func TestStreamRepeatableReads(t *testing.T) {
	s, _, _ := newStream(t, "ABCDEFGHIJ")
	defer s.Close()

	for range 3 {
		c, err := s.OpenCursor()
		require.NoError(t, err)

		all, err := io.ReadAll(c)
		require.NoError(t, err)
		assert.Equal(t, "ABCDEFGHIJ", string(all))
		require.NoError(t, c.Close())
	}
}

func TestStreamCloseWithoutCursorsReleasesBuffer(t *testing.T) {
	s, b, p := newStream(t, "ABCD")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, b.IsClosed())
	assert.Equal(t, 0, p.Live())

	_, err := s.OpenCursor()
	assert.True(t, errors.IsClosed(err))
}

func TestStreamWaitsForLastCursor(t *testing.T) {
	s, b, p := newStream(t, "ABCDEFGH")

	first, err := s.OpenCursor()
	require.NoError(t, err)
	second, err := s.OpenCursor()
	require.NoError(t, err)
	assert.Equal(t, 2, s.OpenCursors())

	require.NoError(t, s.Close())
	assert.False(t, b.IsClosed(), "open cursors keep the buffer alive")

	require.NoError(t, first.Close())
	assert.False(t, b.IsClosed())

	dst := make([]byte, 3)
	require.NoError(t, second.SeekTo(5))
	_, err = io.ReadFull(second, dst)
	require.NoError(t, err)
	assert.Equal(t, "FGH", string(dst))

	require.NoError(t, second.Close())
	assert.True(t, b.IsClosed())
	assert.Equal(t, 0, s.OpenCursors())
	assert.Equal(t, 0, p.Live())
}

func TestStreamCursorsClosedBeforeStream(t *testing.T) {
	s, b, _ := newStream(t, "ABCD")

	c, err := s.OpenCursor()
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.False(t, b.IsClosed(), "the stream can still open cursors")

	c, err = s.OpenCursor()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, c.Close())
	assert.True(t, b.IsClosed())
}
