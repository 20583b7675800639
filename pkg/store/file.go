package store

import (
	"os"
	"path/filepath"

	"github.com/NamanBalaji/repstream/internal/filesystem"
	"github.com/NamanBalaji/repstream/internal/janitor"
	"github.com/NamanBalaji/repstream/internal/logger"
)

// FileProvisioner spills each buffer into its own temporary file.
type FileProvisioner struct {
	dir     string
	fs      *filesystem.OSFileSystem
	janitor *janitor.Janitor
}

// NewFileProvisioner creates spill files in dir, falling back to a directory
// under os.TempDir if dir is empty or cannot be created. Removal of disposed
// files runs on j; with a nil janitor it runs on its own goroutine.
func NewFileProvisioner(dir string, j *janitor.Janitor) (*FileProvisioner, error) {
	fs := filesystem.NewOSFileSystem()

	resolved, err := fs.ResolveSpillDir(dir, filepath.Join(os.TempDir(), "repstream-spill"))
	if err != nil {
		return nil, err
	}

	return &FileProvisioner{
		dir:     resolved,
		fs:      fs,
		janitor: j,
	}, nil
}

// Dir returns the directory spill files are created in.
func (p *FileProvisioner) Dir() string {
	return p.dir
}

func (p *FileProvisioner) Provision() (Store, error) {
	f, err := p.fs.CreateSpillFile(p.dir, namePrefix)
	if err != nil {
		return nil, err
	}

	return &fileStore{file: f}, nil
}

func (p *FileProvisioner) Dispose(s Store) {
	if s == nil {
		return
	}

	path := s.Name()
	remove := func() error { return p.fs.DeleteFile(path) }

	if p.janitor != nil && p.janitor.Schedule(path, remove) {
		return
	}

	go func() {
		if err := remove(); err != nil {
			logger.Warnf("Failed to remove spill file %s: %v", path, err)
		}
	}()
}

// fileStore implements Store on top of a single *os.File. Positional reads
// and writes do not share a file offset, so no locking is needed here.
type fileStore struct {
	file *os.File
}

func (s *fileStore) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *fileStore) WriteAt(p []byte, off int64) (int, error) {
	return s.file.WriteAt(p, off)
}

func (s *fileStore) Close() error {
	return s.file.Close()
}

func (s *fileStore) Name() string {
	return s.file.Name()
}
