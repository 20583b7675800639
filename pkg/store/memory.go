package store

import (
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
)

// MemoryProvisioner keeps stores on the heap. Useful when the medium does
// not matter, mostly in tests.
type MemoryProvisioner struct {
	mu   sync.Mutex
	live map[string]*MemoryStore
}

func NewMemoryProvisioner() *MemoryProvisioner {
	return &MemoryProvisioner{live: make(map[string]*MemoryStore)}
}

func (p *MemoryProvisioner) Provision() (Store, error) {
	s := &MemoryStore{name: "memory-" + namePrefix + "-" + uuid.NewString()}

	p.mu.Lock()
	p.live[s.name] = s
	p.mu.Unlock()

	return s, nil
}

func (p *MemoryProvisioner) Dispose(s Store) {
	if s == nil {
		return
	}

	p.mu.Lock()
	delete(p.live, s.Name())
	p.mu.Unlock()
}

// Live returns the number of provisioned stores not yet disposed of.
func (p *MemoryProvisioner) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Lookup returns a live store by name.
func (p *MemoryProvisioner) Lookup(name string) (*MemoryStore, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.live[name]
	return s, ok
}

// MemoryStore is a growable byte slice with Store semantics.
type MemoryStore struct {
	name string

	mu     sync.RWMutex
	data   []byte
	closed bool
}

func (s *MemoryStore) ReadAt(p []byte, off int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, os.ErrInvalid
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}

	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (s *MemoryStore) WriteAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, os.ErrInvalid
	}

	end := off + int64(len(p))
	if end > int64(len(s.data)) {
		if end > int64(cap(s.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(s.data))))
			copy(grown, s.data)
			s.data = grown
		} else {
			s.data = s.data[:end]
		}
	}

	return copy(s.data[off:], p), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = nil
	return nil
}

func (s *MemoryStore) Name() string {
	return s.name
}

// Len returns the number of bytes held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
