package buffer

import (
	"io"
	"sync/atomic"
)

// ByteArrayBuffer serves reads from a slice that already holds the whole
// stream.
type ByteArrayBuffer struct {
	lifecycle
	bytes atomic.Pointer[[]byte]
}

var _ Buffer = (*ByteArrayBuffer)(nil)

// NewByteArrayBuffer wraps data. The slice is not copied.
func NewByteArrayBuffer(data []byte) *ByteArrayBuffer {
	b := &ByteArrayBuffer{lifecycle: lifecycle{name: "byte-array-buffer"}}
	b.bytes.Store(&data)
	return b
}

func (b *ByteArrayBuffer) Get(dst []byte, position int64) (int, error) {
	if err := b.checkOpen(); err != nil {
		return 0, err
	}
	if _, err := checkPosition(position, len(dst), b.name); err != nil {
		return 0, err
	}

	data := b.bytes.Load()
	if data == nil {
		return 0, b.checkOpen()
	}

	if position >= int64(len(*data)) {
		return 0, io.EOF
	}

	return copy(dst, (*data)[position:]), nil
}

// Len returns the size of the wrapped data, or 0 once closed.
func (b *ByteArrayBuffer) Len() int {
	if data := b.bytes.Load(); data != nil {
		return len(*data)
	}
	return 0
}

func (b *ByteArrayBuffer) Close() error {
	if b.markClosed() {
		b.bytes.Store(nil)
	}
	return nil
}
