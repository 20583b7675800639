package buffer

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/NamanBalaji/repstream/internal/logger"
	"github.com/NamanBalaji/repstream/pkg/errors"
	"github.com/NamanBalaji/repstream/pkg/store"
)

// maxConsecutiveEmptyReads is how many 0, nil reads the source may return in
// a row before the advance gives up with io.ErrNoProgress.
const maxConsecutiveEmptyReads = 100

type resolution int

const (
	resolveEOF resolution = iota
	resolveWindow
	resolveStore
	resolveAdvance
)

// WindowBuffer keeps a bounded in-memory window over a forward-only source
// and mirrors every byte it consumes into a backing store, so that any
// offset already read can be served again.
//
// Reads inside the window are copied from memory. Reads behind the window
// go to the store. Reads past the window pull more of the source, one
// capacity-sized chunk at a time. The window only ever moves forward.
//
// Three locks are involved and never nested in the reverse order:
//   - advanceMu is the permit to consume the source; whoever holds it is the
//     only goroutine reading the source or filling scratch. It also guards
//     pending, the length of a chunk already taken from the source whose
//     persist failed and is retried by the next advance.
//   - mu guards window, data and exhausted. It is never held across I/O.
//   - storeMu guards store and storeEnd and is held for single store calls.
type WindowBuffer struct {
	lifecycle
	id          uuid.UUID
	capacity    int
	source      io.Reader
	provisioner store.Provisioner

	mu        sync.Mutex
	window    Range
	data      []byte
	exhausted bool

	advanceMu  sync.Mutex
	scratch    []byte
	pending    int
	pendingEOF bool

	storeMu  sync.Mutex
	store    store.Store
	storeEnd int64
}

var _ Buffer = (*WindowBuffer)(nil)

// NewWindowBuffer starts buffering source. prefetched holds bytes the caller
// already read off source; they become offsets [0, len(prefetched)) and are
// persisted before this returns. capacity is the size of the in-memory
// window.
func NewWindowBuffer(source io.Reader, prefetched []byte, capacity int, provisioner store.Provisioner) (*WindowBuffer, error) {
	id := uuid.New()
	name := "window-buffer-" + id.String()

	if capacity <= 0 {
		return nil, errors.NewInvalidError(errors.ErrInvalidCapacity, name)
	}
	if source == nil {
		return nil, errors.NewInvalidError(errors.New("source is nil"), name)
	}

	st, err := provisioner.Provision()
	if err != nil {
		return nil, errors.NewResourceCreationError(err, name)
	}

	b := &WindowBuffer{
		lifecycle:   lifecycle{name: name},
		id:          id,
		capacity:    capacity,
		source:      source,
		provisioner: provisioner,
		data:        make([]byte, 0, max(capacity, len(prefetched))),
		scratch:     make([]byte, capacity),
		store:       st,
	}

	if len(prefetched) > 0 {
		if _, err := st.WriteAt(prefetched, 0); err != nil {
			safely(name, "store", st.Close)
			provisioner.Dispose(st)
			return nil, errors.NewStoreIOError(fmt.Errorf("persist prefetched data: %w", err), name)
		}

		b.storeEnd = int64(len(prefetched))
		b.data = append(b.data, prefetched...)
	}

	b.window = mustRange(0, int64(len(prefetched)))

	logger.Debugf("Created %s: capacity=%d, prefetched=%d, store=%s", name, capacity, len(prefetched), st.Name())

	return b, nil
}

// Get implements Buffer. A zero-length Get never consumes the source: it
// returns io.EOF when the source is exhausted and position lies past the
// end of the data, and 0, nil anywhere else.
func (b *WindowBuffer) Get(dst []byte, position int64) (int, error) {
	if err := b.checkOpen(); err != nil {
		return 0, err
	}

	req, err := checkPosition(position, len(dst), b.name)
	if err != nil {
		return 0, err
	}

	if len(dst) == 0 {
		return b.getEmpty(req)
	}

	for {
		b.mu.Lock()
		if err := b.checkOpen(); err != nil {
			b.mu.Unlock()
			return 0, err
		}

		switch b.classify(req) {
		case resolveEOF:
			b.mu.Unlock()
			return 0, io.EOF

		case resolveWindow:
			n := copy(dst, b.data[req.Start-b.window.Start:])
			b.mu.Unlock()
			return n, nil

		case resolveStore:
			b.mu.Unlock()
			return b.readStore(dst, req)

		default:
			b.mu.Unlock()
		}

		if err := b.advance(req); err != nil {
			return 0, err
		}
	}
}

func (b *WindowBuffer) getEmpty(req Range) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkOpen(); err != nil {
		return 0, err
	}
	if b.exhausted && req.StartsAfter(b.window) {
		return 0, io.EOF
	}

	return 0, nil
}

// classify decides where req is served from. Must be called with mu held.
func (b *WindowBuffer) classify(req Range) resolution {
	switch {
	case b.exhausted && req.StartsAfter(b.window):
		return resolveEOF
	case b.window.Contains(req):
		return resolveWindow
	case b.window.IsAhead(req) || b.exhausted:
		return resolveStore
	default:
		return resolveAdvance
	}
}

func (b *WindowBuffer) readStore(dst []byte, req Range) (int, error) {
	b.storeMu.Lock()
	defer b.storeMu.Unlock()

	if err := b.checkOpen(); err != nil {
		return 0, err
	}

	if req.Start >= b.storeEnd {
		return 0, io.EOF
	}

	want := min(req.Len(), b.storeEnd-req.Start)
	n, err := b.store.ReadAt(dst[:want], req.Start)
	if int64(n) == want {
		return n, nil
	}

	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}

	return 0, errors.WithDetails(errors.NewStoreIOError(err, b.name), map[string]any{
		"offset": req.Start,
		"length": want,
	})
}

// advance moves the window forward until it reaches req.End or the source
// runs dry. Callers must not hold mu.
func (b *WindowBuffer) advance(req Range) error {
	b.advanceMu.Lock()
	defer b.advanceMu.Unlock()

	for {
		if err := b.checkOpen(); err != nil {
			return err
		}

		// Another goroutine may have advanced far enough while we waited
		// for the permit.
		b.mu.Lock()
		done := b.exhausted || !b.window.IsBehind(req)
		end := b.window.End
		b.mu.Unlock()

		if done {
			return nil
		}

		if err := b.reload(end); err != nil {
			return err
		}
	}
}

// reload replaces the window with the chunk that follows end. Bytes taken
// from the source are never dropped: they are committed once persisted, and
// kept pending in scratch when the persist fails. Must hold advanceMu.
func (b *WindowBuffer) reload(end int64) error {
	chunk := b.scratch[:b.capacity]

	n, err := b.catchUp(chunk, end)
	if err != nil {
		return err
	}
	if n > 0 {
		return b.commit(chunk[:n], false)
	}

	n, exhausted := b.pending, b.pendingEOF
	var readErr error
	if n > 0 {
		logger.Debugf("Buffer %s retrying persist of %d pending bytes at offset %d", b.name, n, end)
	} else {
		n, exhausted, readErr = b.readSource(chunk)
	}

	if n > 0 {
		if err := b.persist(chunk[:n], end); err != nil {
			b.pending, b.pendingEOF = n, exhausted
			if readErr != nil {
				logger.Warnf("Buffer %s source failed after %d bytes: %v", b.name, n, readErr)
			}
			return err
		}
		b.pending, b.pendingEOF = 0, false
	}

	if err := b.commit(chunk[:n], exhausted); err != nil {
		return err
	}

	return readErr
}

// catchUp fills chunk from bytes already persisted beyond end, if any.
func (b *WindowBuffer) catchUp(chunk []byte, end int64) (int, error) {
	b.storeMu.Lock()
	defer b.storeMu.Unlock()

	if err := b.checkOpen(); err != nil {
		return 0, err
	}

	if b.storeEnd <= end {
		return 0, nil
	}

	want := min(int64(len(chunk)), b.storeEnd-end)
	n, err := b.store.ReadAt(chunk[:want], end)
	if int64(n) < want {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, errors.NewStoreIOError(err, b.name)
	}

	logger.Debugf("Buffer %s caught up %d bytes from store at offset %d", b.name, n, end)
	return n, nil
}

// readSource performs one read of up to len(chunk) bytes. Bytes returned
// together with an error are reported alongside it, as io.Reader requires.
func (b *WindowBuffer) readSource(chunk []byte) (int, bool, error) {
	for range maxConsecutiveEmptyReads {
		n, err := b.source.Read(chunk)
		switch {
		case err == io.EOF:
			return n, true, nil
		case err != nil:
			return n, false, errors.NewSourceReadError(err, b.name)
		case n > 0:
			return n, false, nil
		}
	}

	return 0, false, errors.NewSourceReadError(io.ErrNoProgress, b.name)
}

func (b *WindowBuffer) persist(p []byte, at int64) error {
	b.storeMu.Lock()
	defer b.storeMu.Unlock()

	if err := b.checkOpen(); err != nil {
		return err
	}

	if _, err := b.store.WriteAt(p, at); err != nil {
		return errors.WithDetails(errors.NewStoreIOError(err, b.name), map[string]any{
			"offset": at,
			"length": len(p),
		})
	}

	b.storeEnd = at + int64(len(p))
	return nil
}

// commit makes p the new window. p must alias scratch; the old window slice
// becomes the next scratch.
func (b *WindowBuffer) commit(p []byte, exhausted bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkOpen(); err != nil {
		return err
	}

	if len(p) > 0 {
		b.window = b.window.Advance(int64(len(p)))
		old := b.data
		b.data = p
		b.scratch = old[:cap(old)]
	}

	if exhausted {
		b.exhausted = true
	}

	logger.Debugf("Buffer %s window now %s (exhausted=%v)", b.name, b.window, b.exhausted)
	return nil
}

// Close drops the window, releases the source and the store, and hands the
// store to the provisioner for asynchronous removal. Release failures are
// logged and otherwise ignored.
func (b *WindowBuffer) Close() error {
	if !b.markClosed() {
		return nil
	}

	b.mu.Lock()
	b.data = nil
	b.mu.Unlock()

	if c, ok := b.source.(io.Closer); ok {
		safely(b.name, "source", c.Close)
	}

	b.storeMu.Lock()
	st := b.store
	safely(b.name, "store", st.Close)
	b.storeMu.Unlock()

	b.provisioner.Dispose(st)

	logger.Debugf("Closed %s", b.name)
	return nil
}

// ID returns the buffer's unique identifier.
func (b *WindowBuffer) ID() uuid.UUID {
	return b.id
}

// Capacity returns the size of the in-memory window.
func (b *WindowBuffer) Capacity() int {
	return b.capacity
}

// Window returns the extent currently held in memory.
func (b *WindowBuffer) Window() Range {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.window
}

// Exhausted reports whether the source has signalled end of data.
func (b *WindowBuffer) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exhausted
}

// StoreName returns the name of the backing store.
func (b *WindowBuffer) StoreName() string {
	return b.store.Name()
}

func safely(resource, what string, release func() error) {
	if err := release(); err != nil {
		logger.Warnf("Failed to release %s of %s: %v", what, resource, err)
	}
}
