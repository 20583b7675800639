// Package store provides the append-ordered, randomly readable backing
// storage that a window buffer mirrors every consumed byte into. It
// abstracts away the underlying medium (disk file, bbolt bucket, memory)
// so the buffer can remain agnostic.
//
// ReadAt follows io.ReaderAt: a short read is accompanied by io.EOF. The
// buffer only ever calls WriteAt at the current end of the store, but
// implementations accept any offset.
package store

import "io"

// Store is a single backing area for one buffered stream.
type Store interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	// Name identifies the store in logs and errors.
	Name() string
}

// Provisioner hands out fresh stores and disposes of them once the owning
// buffer is closed. Dispose must not block on the removal itself.
type Provisioner interface {
	Provision() (Store, error)
	Dispose(s Store)
}

const namePrefix = "stream-buffer"
