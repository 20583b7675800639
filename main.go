package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/NamanBalaji/repstream/internal/config"
	"github.com/NamanBalaji/repstream/internal/filesystem"
	"github.com/NamanBalaji/repstream/internal/janitor"
	"github.com/NamanBalaji/repstream/internal/logger"
	"github.com/NamanBalaji/repstream/internal/report"
	"github.com/NamanBalaji/repstream/pkg/buffer"
	"github.com/NamanBalaji/repstream/pkg/cursor"
	"github.com/NamanBalaji/repstream/pkg/store"
	"github.com/NamanBalaji/repstream/pkg/stream"
)

func main() {
	debug := pflag.Bool("debug", false, "Enable debug logging")
	prefetch := pflag.Int("prefetch", 0, "Bytes to read off the input before handing it to the buffer")
	cursors := pflag.IntP("cursors", "c", 3, "Number of cursors reading the input concurrently")
	stride := pflag.Int64P("stride", "s", 0, "Distance between the start offsets of consecutive cursors")
	bufferSize := pflag.Int("buffer-size", 0, "In-memory window size in bytes (overrides config)")
	backend := pflag.String("store", "", "Spill backend: file, bolt or memory (overrides config)")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [FILE|-]\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()

	err := logger.InitLogging(*debug, filepath.Join(xdg.StateHome, "repstream", "repstream.log"))
	if err != nil {
		log.Fatalf("Warning: Failed to initialize logging: %v\n", err)
	}
	defer logger.Close()

	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatalf("Error reading config %s: %v\n", config.Path(), err)
	}
	if *bufferSize > 0 {
		cfg.BufferSize = *bufferSize
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	if *cursors <= 0 || *stride < 0 || *prefetch < 0 {
		log.Fatalf("--cursors must be positive, --stride and --prefetch must not be negative\n")
	}

	name, input, err := openInput(pflag.Arg(0))
	if err != nil {
		log.Fatalf("Error opening input: %v\n", err)
	}

	j := janitor.New(cfg.Janitor.Workers, cfg.Janitor.MaxRetries, cfg.Janitor.RetryDelay)

	provisioner, closeProvisioner, err := newProvisioner(cfg.Store, j)
	if err != nil {
		log.Fatalf("Error creating %s store: %v\n", cfg.Store.Backend, err)
	}

	prefix, err := readPrefix(input, *prefetch)
	if err != nil {
		log.Fatalf("Error reading input: %v\n", err)
	}

	buf, err := buffer.NewWindowBuffer(input, prefix, cfg.BufferSize, provisioner)
	if err != nil {
		log.Fatalf("Error creating buffer: %v\n", err)
	}
	s := stream.New(buf)
	title := fmt.Sprintf("%s (%d byte window, %s store)", name, buf.Capacity(), cfg.Store.Backend)
	logger.Infof("Buffering %s", title)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			// Pending reads fail with a closed error instead of blocking
			// on the rest of the input.
			logger.Infof("Interrupted, closing buffer")
			buf.Close()
		case <-finished:
		}
	}()

	results := make([]report.Result, *cursors)

	var g errgroup.Group
	for i := range *cursors {
		c, err := s.OpenCursor()
		if err != nil {
			log.Fatalf("Error opening cursor: %v\n", err)
		}

		start := int64(i) * *stride
		results[i].Start = start

		g.Go(func() error {
			defer c.Close()

			err := replay(c, &results[i])
			if err != nil {
				results[i].Err = err
				logger.Errorf("Cursor %s starting at %d failed: %v", c.ID(), start, err)
			}
			return err
		})
	}

	readErr := g.Wait()
	close(finished)

	if err := s.Close(); err != nil {
		logger.Warnf("Error closing stream: %v", err)
	}
	if err := j.Close(); err != nil {
		logger.Warnf("Error waiting for store cleanup: %v", err)
	}
	closeProvisioner()

	fmt.Println(report.Render(title, results))

	if readErr != nil {
		os.Exit(1)
	}
}

// replay reads the stream from the result's start offset to the end twice
// and records a digest of each pass.
func replay(c *cursor.Cursor, r *report.Result) error {
	for pass := range 2 {
		if err := c.SeekTo(r.Start); err != nil {
			return err
		}

		h := blake3.New()
		n, err := io.Copy(h, c)
		if err != nil {
			return err
		}

		if pass == 0 {
			r.Bytes = n
			r.First = h.Sum(nil)
		} else {
			r.Second = h.Sum(nil)
		}
	}

	return nil
}

func openInput(arg string) (string, io.Reader, error) {
	if arg == "" || arg == "-" {
		return "stdin", os.Stdin, nil
	}

	f, err := os.Open(arg)
	if err != nil {
		return "", nil, err
	}

	return arg, f, nil
}

// readPrefix reads up to n bytes off r. A short input is not an error.
func readPrefix(r io.Reader, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}

	prefix := make([]byte, n)
	read, err := io.ReadFull(r, prefix)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}

	return prefix[:read], err
}

func newProvisioner(cfg *config.StoreConfig, j *janitor.Janitor) (store.Provisioner, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendFile:
		p, err := store.NewFileProvisioner(cfg.Dir, j)
		return p, noop, err

	case config.BackendBolt:
		if err := filesystem.NewOSFileSystem().EnsureDirectory(filepath.Dir(cfg.BoltPath)); err != nil {
			return nil, nil, err
		}

		p, err := store.NewBoltProvisioner(cfg.BoltPath, cfg.PageSize, j)
		if err != nil {
			return nil, nil, err
		}

		return p, func() {
			if err := p.Close(); err != nil {
				logger.Warnf("Error closing store database: %v", err)
			}
		}, nil

	case config.BackendMemory:
		return store.NewMemoryProvisioner(), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
