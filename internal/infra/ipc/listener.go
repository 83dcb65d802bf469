package ipc

import (
	"context"
	"errors"
	"net"
	"os"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/sunr3d/explorer/models"
)

// Handler consumes one event on the supervisor side.
type Handler func(ctx context.Context, event models.IPCEvent) error

// Listener is the supervisor end of the unix socket.
type Listener struct {
	ln     net.Listener
	path   string
	logger *zap.Logger
}

// Listen binds path, replacing a stale socket file.
func Listen(log *zap.Logger, path string) (*Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, path: path, logger: log}, nil
}

func (l *Listener) Addr() string {
	return l.path
}

// Serve accepts connections until ctx is done or the listener is closed.
func (l *Listener) Serve(ctx context.Context, handle Handler) error {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go l.serveConn(ctx, conn, handle)
	}
}

func (l *Listener) Close() error {
	return l.ln.Close()
}

func (l *Listener) serveConn(ctx context.Context, conn net.Conn, handle Handler) {
	defer conn.Close()

	payload, err := readFrame(conn)
	if err != nil {
		l.logger.Warn("не удалось прочитать кадр IPC", zap.Error(err))
		return
	}

	var event models.IPCEvent
	resp := ack{OK: true}
	if err := sonic.Unmarshal(payload, &event); err != nil {
		resp = ack{Error: err.Error()}
	} else if err := handle(ctx, event); err != nil {
		resp = ack{Error: err.Error()}
	}

	out, err := sonic.Marshal(resp)
	if err != nil {
		return
	}
	if err := writeFrame(conn, out); err != nil {
		l.logger.Debug("не удалось отправить ответ IPC", zap.Error(err))
	}
}
