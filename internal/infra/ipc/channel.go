package ipc

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sunr3d/explorer/internal/interfaces/infra"
	"github.com/sunr3d/explorer/models"
)

// Deliverer moves one event to the supervising process.
type Deliverer interface {
	Deliver(ctx context.Context, event models.IPCEvent) error
}

var _ infra.Notifier = (*Channel)(nil)

// Channel is an asynchronous, send-only queue in front of a Deliverer. Send
// only enqueues; a single Run loop performs the I/O in order.
type Channel struct {
	logger    *zap.Logger
	transport Deliverer
	queue     chan models.IPCEvent

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewChannel(log *zap.Logger, transport Deliverer, size int) *Channel {
	return &Channel{
		logger:    log,
		transport: transport,
		queue:     make(chan models.IPCEvent, size),
		done:      make(chan struct{}),
	}
}

// Send enqueues event. It blocks only while the queue is full.
func (c *Channel) Send(ctx context.Context, event models.IPCEvent) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	select {
	case c.queue <- event:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	}
}

// Run delivers queued events until Close is called and the queue is drained.
func (c *Channel) Run(ctx context.Context) error {
	defer close(c.done)

	for event := range c.queue {
		if err := c.transport.Deliver(ctx, event); err != nil {
			c.logger.Error("не удалось доставить событие IPC",
				zap.String("event", event.Name),
				zap.Error(err),
			)
			continue
		}
	}
	return nil
}

// Close stops accepting events and waits for Run to drain the queue.
func (c *Channel) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	}
}

var _ infra.Notifier = (*Nop)(nil)

// Nop is used when no supervisor socket is configured.
type Nop struct {
	logger *zap.Logger
}

func NewNop(log *zap.Logger) *Nop {
	return &Nop{logger: log}
}

func (n *Nop) Send(_ context.Context, event models.IPCEvent) error {
	n.logger.Debug("IPC отключен, событие отброшено", zap.String("event", event.Name))
	return nil
}
