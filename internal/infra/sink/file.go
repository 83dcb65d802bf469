package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sunr3d/explorer/models"
)

var _ models.Sink = (*FileSink)(nil)

// FileSink writes the archive to a file for background jobs. Bytes go to a
// hidden part file next to the destination; only Commit moves it into place,
// so the destination always holds a complete archive of a single job.
type FileSink struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Open(string) (io.Writer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return nil, ErrPathEmpty
	}
	if s.f != nil {
		return nil, ErrAlreadyOpened
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMkdirFailed, err)
	}

	f, err := os.CreateTemp(filepath.Dir(s.path), ".*.zip.part")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	s.f = f

	return f, nil
}

func (s *FileSink) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return ErrNotOpened
	}
	part := s.f.Name()
	if err := s.f.Sync(); err != nil {
		s.f.Close()
		os.Remove(part)
		return fmt.Errorf("%w: %v", ErrCloseFailed, err)
	}
	if err := s.f.Close(); err != nil {
		os.Remove(part)
		return fmt.Errorf("%w: %v", ErrCloseFailed, err)
	}
	if err := os.Chmod(part, 0644); err != nil {
		os.Remove(part)
		return fmt.Errorf("%w: %v", ErrRenameFailed, err)
	}
	if err := os.Rename(part, s.path); err != nil {
		os.Remove(part)
		return fmt.Errorf("%w: %v", ErrRenameFailed, err)
	}
	return nil
}

// Abort drops the part file; the destination is left untouched.
func (s *FileSink) Abort(error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	part := s.f.Name()
	closeErr := s.f.Close()
	if err := os.Remove(part); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrRemoveFailed, err)
	}
	if closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrCloseFailed, closeErr)
	}
	return nil
}

func (s *FileSink) Background() bool {
	return true
}

func (s *FileSink) Destination() string {
	return s.path
}
