// Package redis keeps the stat log in Redis lists, one list per user, so
// several explorer processes can append to the same log.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sunr3d/explorer/internal/interfaces/infra"
	"github.com/sunr3d/explorer/models"
)

var (
	ErrUsernameEmpty = errors.New("имя пользователя не может быть пустым")
	ErrEventEmpty    = errors.New("событие не содержит ни сообщения, ни ошибки")
)

var _ infra.StatReporter = (*redisStat)(nil)

type redisStat struct {
	client    redis.UniversalClient
	logger    *zap.Logger
	namespace string
}

func New(log *zap.Logger, client redis.UniversalClient, namespace string) infra.StatReporter {
	return &redisStat{
		client:    client,
		logger:    log,
		namespace: namespace,
	}
}

func (s *redisStat) key(username string) string {
	return "stat:" + s.namespace + ":" + username
}

// Add appends event with a single RPUSH, which Redis applies atomically.
func (s *redisStat) Add(ctx context.Context, username string, event models.StatEvent) error {
	if username == "" {
		return ErrUsernameEmpty
	}
	if event.Message == "" && event.Error == "" {
		return ErrEventEmpty
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := sonic.Marshal(event)
	if err != nil {
		return fmt.Errorf("сериализация события: %w", err)
	}

	if err := s.client.RPush(ctx, s.key(username), payload).Err(); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}

	s.logger.Debug("событие статистики записано",
		zap.String("namespace", s.namespace),
		zap.String("username", username),
		zap.Bool("is_error", event.IsError()),
	)
	return nil
}

func (s *redisStat) List(ctx context.Context, username string) ([]models.StatEvent, error) {
	if username == "" {
		return nil, ErrUsernameEmpty
	}

	raw, err := s.client.LRange(ctx, s.key(username), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	events := make([]models.StatEvent, 0, len(raw))
	for _, item := range raw {
		var ev models.StatEvent
		if err := sonic.UnmarshalString(item, &ev); err != nil {
			s.logger.Warn("поврежденное событие статистики пропущено",
				zap.String("username", username),
				zap.Error(err),
			)
			continue
		}
		events = append(events, ev)
	}

	return events, nil
}
