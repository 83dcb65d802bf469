package services

import (
	"context"

	"github.com/sunr3d/explorer/models"
)

// Job is a handle on a running archive job. The outcome is resolved exactly
// once.
type Job interface {
	ID() string
	Done() <-chan struct{}
	BytesWritten() uint64
	Outcome() models.ArchiveOutcome
	Wait(ctx context.Context) (models.ArchiveOutcome, error)
}

type ArchiveService interface {
	// Create starts building req into req.Sink and returns without waiting.
	Create(ctx context.Context, req *models.ArchiveRequest, user *models.User) Job
	// Shutdown refuses new jobs and waits for running ones until ctx is done.
	Shutdown(ctx context.Context) error
}
