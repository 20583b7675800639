package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const (
	bufferSize     = 64 * 1024
	backend        = BackendFile
	pageSize       = 64 * 1024
	janitorWorkers = 2
	maxRetries     = 3
	retryDelay     = 500 * time.Millisecond
)

var (
	spillDir = filepath.Join(xdg.CacheHome, configFileName, "spill")
	boltPath = filepath.Join(xdg.CacheHome, configFileName, "spill.db")
)
