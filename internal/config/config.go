package config

import (
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const configFileName = "repstream"

// Store backends.
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Config holds the configuration options for the application.
type Config struct {
	BufferSize int            `yaml:"bufferSize,omitempty"`
	Store      *StoreConfig   `yaml:"store,omitempty"`
	Janitor    *JanitorConfig `yaml:"janitor,omitempty"`
}

// StoreConfig selects where consumed bytes are spilled.
type StoreConfig struct {
	Backend  string `yaml:"backend,omitempty"`
	Dir      string `yaml:"dir,omitempty"`
	BoltPath string `yaml:"boltPath,omitempty"`
	PageSize int    `yaml:"pageSize,omitempty"`
}

// JanitorConfig tunes background removal of released stores.
type JanitorConfig struct {
	Workers    int           `yaml:"workers,omitempty"`
	MaxRetries int           `yaml:"maxRetries,omitempty"`
	RetryDelay time.Duration `yaml:"retryDelay,omitempty"`
}

// Path returns the location of the configuration file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, configFileName)
}

// GetConfig reads the configuration file and returns a Config struct.
// If the configuration file does not exist, it returns the default configuration.
func GetConfig() (*Config, error) {
	defaults := DefaultConfig()

	b, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &defaults, nil
		}

		return nil, err
	}

	if len(b) == 0 {
		return &defaults, nil
	}

	var cfg Config

	err = yaml.Unmarshal(b, &cfg)
	if err != nil {
		return nil, err
	}

	storeCfg := zeroOr(cfg.Store, defaults.Store)
	janitorCfg := zeroOr(cfg.Janitor, defaults.Janitor)

	return &Config{
		BufferSize: zeroOr(cfg.BufferSize, defaults.BufferSize),
		Store: &StoreConfig{
			Backend:  zeroOr(storeCfg.Backend, defaults.Store.Backend),
			Dir:      zeroOr(storeCfg.Dir, defaults.Store.Dir),
			BoltPath: zeroOr(storeCfg.BoltPath, defaults.Store.BoltPath),
			PageSize: zeroOr(storeCfg.PageSize, defaults.Store.PageSize),
		},
		Janitor: &JanitorConfig{
			Workers:    zeroOr(janitorCfg.Workers, defaults.Janitor.Workers),
			MaxRetries: zeroOr(janitorCfg.MaxRetries, defaults.Janitor.MaxRetries),
			RetryDelay: zeroOr(janitorCfg.RetryDelay, defaults.Janitor.RetryDelay),
		},
	}, nil
}

func DefaultConfig() Config {
	return Config{
		BufferSize: bufferSize,
		Store: &StoreConfig{
			Backend:  backend,
			Dir:      spillDir,
			BoltPath: boltPath,
			PageSize: pageSize,
		},
		Janitor: &JanitorConfig{
			Workers:    janitorWorkers,
			MaxRetries: maxRetries,
			RetryDelay: retryDelay,
		},
	}
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T any](v, def T) T {
	if reflect.ValueOf(v).IsZero() {
		return def
	}

	return v
}
