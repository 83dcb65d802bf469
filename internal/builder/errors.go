package builder

import "errors"

var (
	ErrSourceRead = errors.New("не удалось прочитать источник")
	ErrSinkWrite  = errors.New("не удалось записать в приемник")
	ErrEncoding   = errors.New("ошибка кодирования архива")

	ErrNotFinalized = errors.New("архив не финализирован")
	ErrStreamed     = errors.New("архив уже записан")
)
