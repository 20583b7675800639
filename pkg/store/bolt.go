package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/NamanBalaji/repstream/internal/janitor"
	"github.com/NamanBalaji/repstream/internal/logger"
)

const (
	metadataBucket  = "metadata"
	schemaVersion   = 1
	DefaultPageSize = 64 * 1024
)

// sizeKey holds the store length. Page keys are always 8 bytes long, so a
// shorter key cannot collide with them.
var sizeKey = []byte("size")

// BoltProvisioner keeps every store as a bucket of fixed-size pages in one
// shared bbolt database.
type BoltProvisioner struct {
	db       *bbolt.DB
	pageSize int
	janitor  *janitor.Janitor
}

// NewBoltProvisioner opens (or creates) the database at dbPath.
func NewBoltProvisioner(dbPath string, pageSize int, j *janitor.Janitor) (*BoltProvisioner, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	options := &bbolt.Options{
		Timeout: 1 * time.Second,
	}

	db, err := bbolt.Open(dbPath, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	p := &BoltProvisioner{
		db:       db,
		pageSize: pageSize,
		janitor:  j,
	}

	if err := p.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return p, nil
}

func (p *BoltProvisioner) initialize() error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}

		versionBytes := []byte(fmt.Sprintf("%d", schemaVersion))
		if err := meta.Put([]byte("schema_version"), versionBytes); err != nil {
			return fmt.Errorf("failed to store schema version: %w", err)
		}

		// Buckets left behind by a process that died before its janitor ran.
		var stale [][]byte
		err = tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if string(name) != metadataBucket {
				stale = append(stale, append([]byte(nil), name...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, name := range stale {
			logger.Infof("Removing stale store bucket %s", name)
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to remove stale bucket %s: %w", name, err)
			}
		}

		return nil
	})
}

func (p *BoltProvisioner) Provision() (Store, error) {
	name := namePrefix + "-" + uuid.NewString()

	err := p.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucket([]byte(name))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create store bucket: %w", err)
	}

	return &boltStore{
		db:       p.db,
		bucket:   []byte(name),
		pageSize: int64(p.pageSize),
	}, nil
}

func (p *BoltProvisioner) Dispose(s Store) {
	if s == nil {
		return
	}

	name := s.Name()
	remove := func() error {
		err := p.db.Update(func(tx *bbolt.Tx) error {
			return tx.DeleteBucket([]byte(name))
		})
		if errors.Is(err, berrors.ErrBucketNotFound) {
			return nil
		}
		return err
	}

	if p.janitor != nil && p.janitor.Schedule(name, remove) {
		return
	}

	go func() {
		if err := remove(); err != nil {
			logger.Warnf("Failed to remove store bucket %s: %v", name, err)
		}
	}()
}

// Stores returns the number of store buckets currently in the database.
func (p *BoltProvisioner) Stores() (int, error) {
	count := 0
	err := p.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if string(name) != metadataBucket {
				count++
			}
			return nil
		})
	})

	return count, err
}

// Close closes the database. Stores must be disposed of first.
func (p *BoltProvisioner) Close() error {
	return p.db.Close()
}

type boltStore struct {
	db       *bbolt.DB
	bucket   []byte
	pageSize int64
	closed   atomic.Bool
}

func pageKey(index int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(index))
	return key
}

func readSize(b *bbolt.Bucket) int64 {
	v := b.Get(sizeKey)
	if len(v) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(v))
}

func (s *boltStore) ReadAt(p []byte, off int64) (int, error) {
	if s.closed.Load() {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, os.ErrInvalid
	}

	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return berrors.ErrBucketNotFound
		}

		size := readSize(b)
		if off >= size {
			return nil
		}

		want := min(int64(len(p)), size-off)
		for int64(n) < want {
			pos := off + int64(n)
			page := b.Get(pageKey(pos / s.pageSize))
			inPage := pos % s.pageSize

			// Pages are only ever short at the tail; a missing page means a
			// hole that was never written, which reads as zeros.
			chunk := min(s.pageSize-inPage, want-int64(n))
			dst := p[n : int64(n)+chunk]
			if inPage < int64(len(page)) {
				copied := copy(dst, page[inPage:])
				clear(dst[copied:])
			} else {
				clear(dst)
			}

			n += int(chunk)
		}

		return nil
	})
	if err != nil {
		return n, err
	}

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (s *boltStore) WriteAt(p []byte, off int64) (int, error) {
	if s.closed.Load() {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, os.ErrInvalid
	}
	if len(p) == 0 {
		return 0, nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return berrors.ErrBucketNotFound
		}

		written := int64(0)
		for written < int64(len(p)) {
			pos := off + written
			index := pos / s.pageSize
			inPage := pos % s.pageSize
			chunk := min(s.pageSize-inPage, int64(len(p))-written)

			// Values returned by Get are only valid inside the transaction
			// and must not be modified, so pages are rebuilt in a copy.
			existing := b.Get(pageKey(index))
			page := make([]byte, max(int64(len(existing)), inPage+chunk))
			copy(page, existing)
			copy(page[inPage:], p[written:written+chunk])

			if err := b.Put(pageKey(index), page); err != nil {
				return err
			}

			written += chunk
		}

		if end := off + int64(len(p)); end > readSize(b) {
			size := make([]byte, 8)
			binary.BigEndian.PutUint64(size, uint64(end))
			return b.Put(sizeKey, size)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(p), nil
}

// Close marks the store unusable. The bucket itself is removed by Dispose.
func (s *boltStore) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *boltStore) Name() string {
	return string(s.bucket)
}
