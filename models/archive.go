package models

import (
	"io"
)

// Sink is the destination of an archive stream: either a live HTTP response
// or a file on disk.
type Sink interface {
	// Open prepares the destination for an archive named name and returns
	// the writer the archive bytes go to.
	Open(name string) (io.Writer, error)
	// Commit marks the stream as fully written.
	Commit() error
	// Abort reports err on the destination and releases it.
	Abort(err error) error
	// Background reports whether nobody is waiting on the other end of the
	// sink, i.e. the outcome has to be reported out of band.
	Background() bool
	// Destination describes where the bytes went.
	Destination() string
}

type ArchiveRequest struct {
	Name        string         `json:"name"`
	Temp        string         `json:"temp,omitempty"`
	Paths       []string       `json:"paths"`
	Directories []string       `json:"directories"`
	Root        string         `json:"root"`
	Sink        Sink           `json:"-"`
	Options     map[string]any `json:"options,omitempty"`
}

func (r *ArchiveRequest) Filename() string {
	return r.Name + ".zip"
}

type ArchiveOutcome struct {
	JobID        string `json:"job_id"`
	BytesWritten uint64 `json:"bytes_written"`
	Destination  string `json:"destination,omitempty"`
	Err          error  `json:"-"`
}

func (o ArchiveOutcome) Success() bool {
	return o.Err == nil
}

func (o ArchiveOutcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
