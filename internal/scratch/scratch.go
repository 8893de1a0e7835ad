// Package scratch hands out uniquely named temporary files whose lifetime is bound
// to a Scope. Releasing a scope deletes every file it created, on every exit path.
package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Pavankumar07s/Pict-call/internal/observability/logging"
	"github.com/Pavankumar07s/Pict-call/internal/observability/metrics"
)

// ErrReleased is returned when a file is requested from a scope that was already released.
var ErrReleased = errors.New("scratch scope already released")

// Dir is the root under which scopes create their files. A Dir counts the handles
// that are currently live so leaks can be asserted on in tests.
type Dir struct {
	root    string
	live    atomic.Int64
	created atomic.Int64
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New returns a Dir rooted at root. An empty root uses the OS temp directory.
func New(root string) *Dir {
	if root == "" {
		root = os.TempDir()
	}
	return &Dir{
		root:    root,
		logger:  logging.WithComponent("scratch"),
		metrics: metrics.DefaultMetrics,
	}
}

// Root returns the directory files are created in.
func (d *Dir) Root() string {
	return d.root
}

// Live returns the number of files created and not yet released.
func (d *Dir) Live() int64 {
	return d.live.Load()
}

// Created returns the number of files ever created through this Dir.
func (d *Dir) Created() int64 {
	return d.created.Load()
}

// Scope opens a new scope. The caller must defer Release.
func (d *Dir) Scope(prefix string) *Scope {
	return &Scope{
		dir:    d,
		prefix: prefix + "-" + uuid.NewString(),
	}
}

// Scope owns the files created through it.
type Scope struct {
	dir      *Dir
	prefix   string
	mu       sync.Mutex
	paths    []string
	released bool
}

// Create creates a new empty file with the given suffix and returns it open for writing.
func (s *Scope) Create(suffix string) (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrReleased
	}

	f, err := os.CreateTemp(s.dir.root, s.prefix+"-*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	s.paths = append(s.paths, f.Name())
	s.dir.live.Add(1)
	s.dir.created.Add(1)
	s.dir.metrics.RecordTempFiles(1)
	return f, nil
}

// WriteFile creates a file holding data and returns its path.
func (s *Scope) WriteFile(suffix string, data []byte) (string, error) {
	f, err := s.Create(suffix)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// Reserve creates an empty file and returns its path, for tools that write their own output.
func (s *Scope) Reserve(suffix string) (string, error) {
	f, err := s.Create(suffix)
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// Release deletes every file the scope created. Deletion failures are logged and
// never returned; a file that is already gone counts as released. Release is idempotent.
func (s *Scope) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.released = true

	for _, p := range s.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.dir.logger.Warn().Err(err).Str("path", p).Msg("Failed to remove temp file")
		}
	}
	n := len(s.paths)
	s.paths = nil
	s.dir.live.Add(-int64(n))
	s.dir.metrics.RecordTempFiles(-n)
}
