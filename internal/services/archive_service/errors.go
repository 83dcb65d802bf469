package archive_service

import (
	"errors"

	"github.com/sunr3d/explorer/internal/builder"
)

var (
	ErrContextDone    = errors.New("отмена контекста")
	ErrInvalidRequest = errors.New("некорректный запрос на создание архива")
	ErrShuttingDown   = errors.New("сервис архивов останавливается")

	ErrSourceRead = builder.ErrSourceRead
	ErrSinkWrite  = builder.ErrSinkWrite
	ErrEncoding   = builder.ErrEncoding
)
