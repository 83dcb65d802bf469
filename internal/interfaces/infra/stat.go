package infra

import (
	"context"

	"github.com/sunr3d/explorer/models"
)

// StatReporter is an append-only activity log keyed by username. Add must be
// safe for concurrent callers.
//
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=stat.go -destination=../../mocks/mock_stat_reporter.go -package=mocks
type StatReporter interface {
	Add(ctx context.Context, username string, event models.StatEvent) error
	List(ctx context.Context, username string) ([]models.StatEvent, error)
}
