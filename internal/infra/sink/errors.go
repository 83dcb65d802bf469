package sink

import "errors"

var (
	ErrNotOpened     = errors.New("приемник не открыт")
	ErrAlreadyOpened = errors.New("приемник уже открыт")
	ErrPathEmpty     = errors.New("путь приемника не может быть пустым")
	ErrMkdirFailed   = errors.New("не удалось создать директорию")
	ErrCreateFailed  = errors.New("не удалось создать файл архива")
	ErrCloseFailed   = errors.New("не удалось закрыть файл архива")
	ErrRenameFailed  = errors.New("не удалось переместить архив на место назначения")
	ErrRemoveFailed  = errors.New("не удалось удалить временный файл архива")
)
