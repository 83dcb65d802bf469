package archive_service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sunr3d/explorer/internal/interfaces/services"
	"github.com/sunr3d/explorer/models"
)

var _ services.Job = (*job)(nil)

type job struct {
	id      string
	done    chan struct{}
	once    sync.Once
	outcome models.ArchiveOutcome
	written atomic.Uint64
}

func newJob(id string) *job {
	return &job{
		id:   id,
		done: make(chan struct{}),
	}
}

func (j *job) ID() string {
	return j.id
}

func (j *job) Done() <-chan struct{} {
	return j.done
}

// BytesWritten is the running byte count while the job streams.
func (j *job) BytesWritten() uint64 {
	return j.written.Load()
}

// Outcome blocks until the job is resolved.
func (j *job) Outcome() models.ArchiveOutcome {
	<-j.done
	return j.outcome
}

func (j *job) Wait(ctx context.Context) (models.ArchiveOutcome, error) {
	select {
	case <-j.done:
		return j.outcome, nil
	case <-ctx.Done():
		return models.ArchiveOutcome{}, fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	}
}

// resolve settles the job; later calls are ignored.
func (j *job) resolve(outcome models.ArchiveOutcome) bool {
	resolved := false
	j.once.Do(func() {
		outcome.JobID = j.id
		j.outcome = outcome
		close(j.done)
		resolved = true
	})
	return resolved
}
