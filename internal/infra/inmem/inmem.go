package inmem

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sunr3d/explorer/internal/interfaces/infra"
	"github.com/sunr3d/explorer/models"
)

var _ infra.StatReporter = (*inmemStat)(nil)

type inmemStat struct {
	logger    *zap.Logger
	namespace string
	db        map[string][]models.StatEvent
	mu        sync.RWMutex
	now       func() time.Time
}

func New(log *zap.Logger, namespace string) infra.StatReporter {
	return &inmemStat{
		logger:    log,
		namespace: namespace,
		db:        make(map[string][]models.StatEvent),
		now:       time.Now,
	}
}

func (s *inmemStat) Add(ctx context.Context, username string, event models.StatEvent) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	default:
	}

	if username == "" {
		return ErrUsernameEmpty
	}

	if event.Message == "" && event.Error == "" {
		return ErrEventEmpty
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.db[username] = append(s.db[username], event)
	s.logger.Debug("событие статистики записано",
		zap.String("namespace", s.namespace),
		zap.String("username", username),
		zap.Bool("is_error", event.IsError()),
	)

	return nil
}

func (s *inmemStat) List(ctx context.Context, username string) ([]models.StatEvent, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	default:
	}

	if username == "" {
		return nil, ErrUsernameEmpty
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.db[username]), nil
}
