// Package localfs is the default chunkstore.Store backend: one file per
// chunk underneath a data root directory, matching spec.md §6's on-disk
// layout "<sanitizedAddress>/<dataRoot>/<fileName>_chunk_<index>".
package localfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"driftfs/internal/chunkstore"
	"driftfs/internal/logging"
)

// Store keeps one regular file per chunk directly under Dir.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// SanitizeAddress replaces ':' with '_' in a host:port, per spec.md §6.
func SanitizeAddress(addr string) string {
	return strings.ReplaceAll(addr, ":", "_")
}

// New creates (if needed) dir and returns a Store rooted at it. A fsnotify
// watcher is attached so every removal or rename of a blob file is logged
// as soon as it happens, grounded on internal/cert/manager.go's
// fsnotify-based reload loop. The watcher does not tell removals made by
// Delete apart from external ones; both are logged.
func New(dir string, logger *slog.Logger) (*Store, error) {
	logger = logging.Default(logger).With("component", "chunkstore", "backend", "localfs")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localfs: mkdir %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("localfs: new watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("localfs: watch %s: %w", dir, err)
	}

	s := &Store{dir: dir, logger: logger, watcher: watcher}
	go s.watchLoop()
	return s, nil
}

func (s *Store) watchLoop() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				s.logger.Warn("chunk blob removed or renamed", "name", filepath.Base(ev.Name))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("chunkstore watcher error", "error", err)
		}
	}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) Create(ctx context.Context, name string, data []byte) error {
	f, err := os.OpenFile(s.path(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("localfs: create %s: %w", name, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("localfs: write %s: %w", name, err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, name string, data []byte) error {
	f, err := os.OpenFile(s.path(name), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("localfs: append %s: %w", name, chunkstore.ErrNotFound)
		}
		return fmt.Errorf("localfs: append %s: %w", name, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("localfs: append %s: %w", name, err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, name string, maxBytes int) ([]byte, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, chunkstore.ErrNotFound
		}
		return nil, fmt.Errorf("localfs: read %s: %w", name, err)
	}
	defer f.Close()

	buf := make([]byte, maxBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("localfs: read %s: %w", name, err)
	}
	return buf[:n], nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return chunkstore.ErrNotFound
		}
		return fmt.Errorf("localfs: delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("localfs: list %s: %w", s.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.watcher.Close()
}
