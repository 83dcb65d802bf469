package inmem

import "errors"

var (
	ErrUsernameEmpty = errors.New("имя пользователя не может быть пустым")
	ErrEventEmpty    = errors.New("событие не содержит ни сообщения, ни ошибки")
	ErrContextDone   = errors.New("отмена контекста")
)
