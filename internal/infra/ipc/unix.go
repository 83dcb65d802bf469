package ipc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/sunr3d/explorer/models"
)

// MaxFrameSize bounds a single framed event.
const MaxFrameSize = 1 << 20

type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// UnixTransport delivers events over a unix domain socket as a 4-byte
// little-endian length followed by the JSON payload. The supervisor answers
// each frame with a small JSON ack.
type UnixTransport struct {
	path    string
	timeout time.Duration
	logger  *zap.Logger
}

func NewUnixTransport(log *zap.Logger, path string, timeout time.Duration) *UnixTransport {
	return &UnixTransport{
		path:    path,
		timeout: timeout,
		logger:  log,
	}
}

func (t *UnixTransport) Deliver(ctx context.Context, event models.IPCEvent) error {
	if _, err := os.Stat(t.path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSocketNotFound, t.path)
	}

	payload, err := sonic.Marshal(event)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать событие: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d байт", ErrPayloadTooLarge, len(payload))
	}

	d := net.Dialer{Timeout: t.timeout}
	conn, err := d.DialContext(ctx, "unix", t.path)
	if err != nil {
		return fmt.Errorf("не удалось подключиться к %s: %w", t.path, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			t.logger.Debug("не удалось закрыть соединение IPC", zap.Error(err))
		}
	}()

	deadline := time.Now().Add(t.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		t.logger.Debug("не удалось установить дедлайн IPC", zap.Error(err))
	}

	if err := writeFrame(conn, payload); err != nil {
		return err
	}

	resp, err := readFrame(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать ответ супервизора: %w", err)
	}

	var a ack
	if err := sonic.Unmarshal(resp, &a); err != nil {
		t.logger.Debug("нераспознанный ответ супервизора", zap.ByteString("raw", resp))
		return nil
	}
	if a.Error != "" {
		return fmt.Errorf("%w: %s", ErrRemote, a.Error)
	}

	t.logger.Debug("событие IPC доставлено", zap.String("event", event.Name))
	return nil
}

func writeFrame(w io.Writer, payload []byte) error {
	var lengthBuf [4]byte
	binary.LittleEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	if _, err := w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("не удалось записать длину кадра: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("не удалось записать кадр: %w", err)
	}
	return nil
}

func readFrame(r io.Reader) ([]byte, error) {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lengthBuf[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d байт", ErrPayloadTooLarge, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
