package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/NamanBalaji/repstream/internal/logger"
)

// OSFileSystem creates and removes spill files on the local disk.
type OSFileSystem struct{}

// NewOSFileSystem creates a new OS filesystem
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// CreateSpillFile creates a new read/write file named prefix-<uuid> inside dir.
// The directory is created if it does not exist.
func (fs *OSFileSystem) CreateSpillFile(dir, prefix string) (*os.File, error) {
	if err := fs.EnsureDirectory(dir); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s", prefix, uuid.New()))
	logger.Debugf("Creating spill file %s", path)

	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
}

// ResolveSpillDir returns dir if it can be created, otherwise fallback.
func (fs *OSFileSystem) ResolveSpillDir(dir, fallback string) (string, error) {
	if dir == "" {
		dir = fallback
	}

	if err := fs.EnsureDirectory(dir); err != nil {
		if dir == fallback {
			return "", err
		}

		logger.Warnf("Failed to create spill directory %s: %v, trying fallback", dir, err)
		if err := fs.EnsureDirectory(fallback); err != nil {
			logger.Errorf("Failed to create fallback spill directory %s: %v", fallback, err)
			return "", err
		}

		return fallback, nil
	}

	return dir, nil
}

// DeleteFile deletes a file. A file that is already gone is not an error.
func (fs *OSFileSystem) DeleteFile(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	return err
}

// EnsureDirectory ensures a directory exists
func (fs *OSFileSystem) EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0o755)
}

// FileExists checks if a file exists
func (fs *OSFileSystem) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
