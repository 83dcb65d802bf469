package infra

import (
	"context"

	"github.com/sunr3d/explorer/models"
)

// Notifier is the send-only channel to the supervising process.
//
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=ipc.go -destination=../../mocks/mock_notifier.go -package=mocks
type Notifier interface {
	Send(ctx context.Context, event models.IPCEvent) error
}
