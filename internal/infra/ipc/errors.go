package ipc

import "errors"

var (
	ErrSocketNotFound  = errors.New("unix сокет не найден")
	ErrPayloadTooLarge = errors.New("слишком большой размер события")
	ErrRemote          = errors.New("супервизор вернул ошибку")
	ErrClosed          = errors.New("канал IPC закрыт")
	ErrContextDone     = errors.New("отмена контекста")
)
