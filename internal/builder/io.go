package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// sinkWriter counts bytes reaching the sink and tags sink failures.
type sinkWriter struct {
	w        io.Writer
	n        uint64
	progress func(uint64)
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.n += uint64(n)
	if n > 0 && s.progress != nil {
		s.progress(s.n)
	}
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrSinkWrite, err)
	}
	return n, nil
}

// sourceReader tags read failures and stops on context cancellation.
type sourceReader struct {
	ctx context.Context
	r   io.Reader
}

func (s *sourceReader) Read(p []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: %v", ErrSourceRead, err)
	}
	return n, err
}

func classify(err error) error {
	if errors.Is(err, ErrSourceRead) || errors.Is(err, ErrSinkWrite) || errors.Is(err, ErrEncoding) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrEncoding, err)
}
