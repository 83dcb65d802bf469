package sink

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"sync"

	"github.com/sunr3d/explorer/models"
)

// ErrorTrailer carries the failure of a response whose headers were already
// sent when the archive broke.
const ErrorTrailer = "X-Archive-Error"

var _ models.Sink = (*ResponseSink)(nil)

// ResponseSink streams the archive as the body of a live HTTP response.
type ResponseSink struct {
	w        http.ResponseWriter
	mu       sync.Mutex
	opened   bool
	written  bool
	filename string
}

func NewResponseSink(w http.ResponseWriter) *ResponseSink {
	return &ResponseSink{w: w}
}

func (s *ResponseSink) Open(name string) (io.Writer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil, ErrAlreadyOpened
	}
	s.opened = true
	s.filename = name + ".zip"

	h := s.w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", contentDisposition(s.filename))
	h.Set("Trailer", ErrorTrailer)

	return &responseWriter{s: s}, nil
}

// contentDisposition quotes the filename and switches to RFC 2231 encoding
// for names outside printable ASCII.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func (s *ResponseSink) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return ErrNotOpened
	}
	if !s.written {
		// empty archive body still has to send headers
		s.w.WriteHeader(http.StatusOK)
		s.written = true
	}

	err := http.NewResponseController(s.w).Flush()
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// Abort answers 500 with the error text while the response is still
// uncommitted; afterwards the body is cut short and the error travels in the
// trailer.
func (s *ResponseSink) Abort(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := "archive failed"
	if cause != nil {
		msg = cause.Error()
	}

	if !s.written {
		h := s.w.Header()
		h.Del("Content-Disposition")
		h.Del("Trailer")
		http.Error(s.w, msg, http.StatusInternalServerError)
		s.written = true
		return nil
	}

	s.w.Header().Set(ErrorTrailer, msg)
	return nil
}

func (s *ResponseSink) Background() bool {
	return false
}

func (s *ResponseSink) Destination() string {
	return "http:" + s.filename
}

type responseWriter struct {
	s *ResponseSink
}

func (w *responseWriter) Write(p []byte) (int, error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()

	w.s.written = true
	return w.s.w.Write(p)
}
