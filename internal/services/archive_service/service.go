package archive_service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sunr3d/explorer/internal/builder"
	"github.com/sunr3d/explorer/internal/config"
	"github.com/sunr3d/explorer/internal/fsutil"
	"github.com/sunr3d/explorer/internal/interfaces/infra"
	"github.com/sunr3d/explorer/internal/interfaces/services"
	"github.com/sunr3d/explorer/models"
)

var _ services.ArchiveService = (*archiveService)(nil)

type archiveService struct {
	logger   *zap.Logger
	cfg      *config.Config
	stat     infra.StatReporter
	notifier infra.Notifier
	sem      *semaphore.Weighted

	mu     sync.Mutex
	closed bool
	jobs   sync.WaitGroup
}

func New(log *zap.Logger, cfg *config.Config, stat infra.StatReporter, notifier infra.Notifier) services.ArchiveService {
	return &archiveService{
		logger:   log,
		cfg:      cfg,
		stat:     stat,
		notifier: notifier,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrentJobs),
	}
}

// Create starts the job in the background and returns its handle at once.
// Background jobs are detached from ctx cancellation so they outlive the
// request that submitted them.
func (s *archiveService) Create(ctx context.Context, req *models.ArchiveRequest, user *models.User) services.Job {
	j := newJob(uuid.New().String())

	if err := validate(req, user); err != nil {
		log := s.logger.With(zap.String("job_id", j.id))
		if req == nil || req.Sink == nil {
			log.Error("архив не создан", zap.Error(err))
			j.resolve(models.ArchiveOutcome{Err: err})
			return j
		}
		j.resolve(s.fail(ctx, log, req, user, err))
		return j
	}

	if req.Sink.Background() {
		ctx = context.WithoutCancel(ctx)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		j.resolve(s.fail(ctx, s.logger.With(zap.String("job_id", j.id)), req, user, ErrShuttingDown))
		return j
	}
	s.jobs.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.jobs.Done()
		j.resolve(s.run(ctx, j, req, user))
	}()

	return j
}

// Shutdown refuses new jobs and waits for the running ones, background jobs
// included, until ctx is done.
func (s *archiveService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("все задачи архивации завершены")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	}
}

func validate(req *models.ArchiveRequest, user *models.User) error {
	switch {
	case req == nil:
		return fmt.Errorf("%w: пустой запрос", ErrInvalidRequest)
	case req.Sink == nil:
		return fmt.Errorf("%w: не указан приемник", ErrInvalidRequest)
	case user == nil || user.Username == "":
		return fmt.Errorf("%w: не указан пользователь", ErrInvalidRequest)
	case req.Name == "":
		return fmt.Errorf("%w: пустое имя архива", ErrInvalidRequest)
	}
	return nil
}

func (s *archiveService) run(ctx context.Context, j *job, req *models.ArchiveRequest, user *models.User) models.ArchiveOutcome {
	log := s.logger.With(
		zap.String("job_id", j.id),
		zap.String("username", user.Username),
		zap.String("archive", req.Filename()),
		zap.Bool("background", req.Sink.Background()),
	)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return s.fail(ctx, log, req, user, fmt.Errorf("%w: %w", ErrSinkWrite, err))
	}
	defer s.sem.Release(1)

	w, err := req.Sink.Open(req.Name)
	if err != nil {
		return s.fail(ctx, log, req, user, fmt.Errorf("%w: %v", ErrSinkWrite, err))
	}

	root := req.Root
	if root == "" {
		root = user.Home
	}

	if req.Sink.Background() {
		s.addStat(ctx, log, user, models.StatEvent{
			Message: fmt.Sprintf("Compressing data from %s to %s", root, temp(req)),
			Name:    req.Name,
		})
	}

	b := builder.New(log,
		builder.WithLevel(s.cfg.CompressionLevel),
		builder.WithProgress(j.written.Store),
	)
	for _, p := range req.Paths {
		b.AppendFile(p, filepath.Base(p))
	}
	for _, d := range req.Directories {
		b.AppendDirectory(d, fsutil.EntryPrefix(d, root))
	}
	b.Finalize()

	log.Info("сборка архива начата",
		zap.Int("files", len(req.Paths)),
		zap.Int("directories", len(req.Directories)),
		zap.String("destination", req.Sink.Destination()),
	)

	n, err := b.Stream(ctx, w)
	if err != nil {
		return s.fail(ctx, log, req, user, err)
	}

	if err := req.Sink.Commit(); err != nil {
		return s.fail(ctx, log, req, user, fmt.Errorf("%w: %v", ErrSinkWrite, err))
	}

	log.Debug("архив записан", zap.Uint64("bytes", n))

	return s.succeed(ctx, log, req, user, n)
}

func (s *archiveService) succeed(ctx context.Context, log *zap.Logger, req *models.ArchiveRequest, user *models.User, n uint64) models.ArchiveOutcome {
	outcome := models.ArchiveOutcome{
		BytesWritten: n,
		Destination:  req.Sink.Destination(),
	}

	if req.Sink.Background() {
		s.notify(ctx, log, models.IPCEvent{
			Name: models.IPCArchiveCreate,
			Args: []any{user.Username, req},
		})
		s.addStat(ctx, log, user, models.StatEvent{
			Message: fmt.Sprintf("%s written in %s", humanize.Bytes(n), temp(req)),
			Path:    filepath.Dir(temp(req)),
			Name:    req.Name,
		})
	}

	log.Info("архив собран", zap.Uint64("bytes", n))
	return outcome
}

func (s *archiveService) fail(ctx context.Context, log *zap.Logger, req *models.ArchiveRequest, user *models.User, err error) models.ArchiveOutcome {
	log.Error("не удалось собрать архив", zap.Error(err))

	if abortErr := req.Sink.Abort(err); abortErr != nil {
		log.Error("не удалось прервать запись архива", zap.Error(abortErr))
	}

	if req.Sink.Background() {
		s.notify(ctx, log, models.IPCEvent{
			Name: models.IPCArchiveError,
			Args: []any{err.Error()},
		})
		s.addStat(ctx, log, user, models.StatEvent{Error: err.Error()})
	}

	return models.ArchiveOutcome{
		Destination: req.Sink.Destination(),
		Err:         err,
	}
}

func (s *archiveService) notify(ctx context.Context, log *zap.Logger, event models.IPCEvent) {
	if err := s.notifier.Send(ctx, event); err != nil {
		log.Error("не удалось отправить событие IPC", zap.String("event", event.Name), zap.Error(err))
	}
}

func (s *archiveService) addStat(ctx context.Context, log *zap.Logger, user *models.User, event models.StatEvent) {
	if user == nil || user.Username == "" {
		return
	}
	if err := s.stat.Add(ctx, user.Username, event); err != nil {
		log.Error("не удалось записать событие статистики", zap.Error(err))
	}
}

func temp(req *models.ArchiveRequest) string {
	if req.Temp != "" {
		return req.Temp
	}
	return req.Sink.Destination()
}
