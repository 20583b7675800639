package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/adrg/xdg"

	cfg "github.com/NamanBalaji/repstream/internal/config"
)

func withTempConfigHome(t *testing.T) (restore func(), dir string, file string) {
	t.Helper()
	orig := xdg.ConfigHome
	dir = t.TempDir()
	xdg.ConfigHome = dir
	restore = func() { xdg.ConfigHome = orig }
	file = filepath.Join(dir, "repstream")
	return
}

func TestGetConfig_Table(t *testing.T) {
	restore, _, cfgFile := withTempConfigHome(t)
	defer restore()

	def := cfg.DefaultConfig()

	tests := []struct {
		name      string
		preWrite  bool
		contents  string
		expectErr bool
		check     func(t *testing.T, got *cfg.Config, def cfg.Config)
	}{
		{
			name:     "missing_file_returns_defaults",
			preWrite: false,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if !reflect.DeepEqual(*got, def) {
					t.Fatalf("expected defaults\nwant: %#v\ngot:  %#v", def, *got)
				}
			},
		},
		{
			name:     "empty_file_returns_defaults",
			preWrite: true,
			contents: "",
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if !reflect.DeepEqual(*got, def) {
					t.Fatalf("expected defaults\nwant: %#v\ngot:  %#v", def, *got)
				}
			},
		},
		{
			name:      "invalid_yaml_returns_error",
			preWrite:  true,
			contents:  ": not yaml",
			expectErr: true,
			check:     func(t *testing.T, _ *cfg.Config, _ cfg.Config) {},
		},
		{
			name:     "no_subconfigs_uses_defaults_for_nested",
			preWrite: true,
			contents: "bufferSize: 1024\n",
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if got.BufferSize != 1024 {
					t.Fatalf("bufferSize not applied, got %d", got.BufferSize)
				}
				if !reflect.DeepEqual(*got.Store, *def.Store) {
					t.Fatalf("store defaults not applied\nwant: %#v\ngot:  %#v", *def.Store, *got.Store)
				}
				if !reflect.DeepEqual(*got.Janitor, *def.Janitor) {
					t.Fatalf("janitor defaults not applied\nwant: %#v\ngot:  %#v", *def.Janitor, *got.Janitor)
				}
			},
		},
		{
			name:     "partial_override_and_fallback",
			preWrite: true,
			contents: `
store:
  backend: bolt
  pageSize: 4096
janitor:
  retryDelay: 3s
`,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if got.BufferSize != def.BufferSize {
					t.Fatalf("want bufferSize default %d got %d", def.BufferSize, got.BufferSize)
				}
				if got.Store.Backend != cfg.BackendBolt {
					t.Fatalf("want store.backend=bolt got %q", got.Store.Backend)
				}
				if got.Store.PageSize != 4096 {
					t.Fatalf("want store.pageSize=4096 got %d", got.Store.PageSize)
				}
				if got.Store.Dir != def.Store.Dir {
					t.Fatalf("want store.dir default %q got %q", def.Store.Dir, got.Store.Dir)
				}
				if got.Store.BoltPath != def.Store.BoltPath {
					t.Fatalf("want store.boltPath default %q got %q", def.Store.BoltPath, got.Store.BoltPath)
				}
				if got.Janitor.RetryDelay != 3*time.Second {
					t.Fatalf("want janitor.retryDelay=3s got %s", got.Janitor.RetryDelay)
				}
				if got.Janitor.Workers != def.Janitor.Workers {
					t.Fatalf("want janitor.workers default %d got %d", def.Janitor.Workers, got.Janitor.Workers)
				}
				if got.Janitor.MaxRetries != def.Janitor.MaxRetries {
					t.Fatalf("want janitor.maxRetries default %d got %d", def.Janitor.MaxRetries, got.Janitor.MaxRetries)
				}
			},
		},
		{
			name:     "explicit_zero_values_fall_back_to_defaults",
			preWrite: true,
			contents: `
bufferSize: 0
store:
  backend: ""
  dir: ""
janitor:
  workers: 0
  retryDelay: 0s
`,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if !reflect.DeepEqual(*got, def) {
					t.Fatalf("expected defaults\nwant: %#v\ngot:  %#v", def, *got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = os.Remove(cfgFile)
			if tt.preWrite {
				if err := os.WriteFile(cfgFile, []byte(tt.contents), 0o644); err != nil {
					t.Fatalf("write config: %v", err)
				}
			}

			got, err := cfg.GetConfig()
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			tt.check(t, got, def)
		})
	}
}

func TestGetConfig_UnreadableFile(t *testing.T) {
	restore, _, cfgFile := withTempConfigHome(t)
	defer restore()

	if err := os.Mkdir(cfgFile, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := cfg.GetConfig(); err == nil {
		t.Fatalf("expected error reading a directory as config")
	}
}

func TestDefaultConfig(t *testing.T) {
	def := cfg.DefaultConfig()

	if def.BufferSize <= 0 {
		t.Fatalf("default bufferSize must be positive, got %d", def.BufferSize)
	}
	if def.Store.Backend != cfg.BackendFile {
		t.Fatalf("default backend should be file, got %q", def.Store.Backend)
	}
	if filepath.Dir(def.Store.BoltPath) != filepath.Dir(def.Store.Dir) {
		t.Fatalf("spill dir and bolt database should share a cache directory: %q vs %q", def.Store.Dir, def.Store.BoltPath)
	}
	if got := cfg.Path(); filepath.Base(got) != "repstream" {
		t.Fatalf("unexpected config path %q", got)
	}
}
