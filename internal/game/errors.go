package game

import "errors"

var (
	// ErrInvalidQuest — запрошен квест, которого нет в каталоге.
	ErrInvalidQuest = errors.New("unknown quest")
	// ErrInconsistentMode — ввод не соответствует текущему режиму записи
	// (например, ответ на напоминание, когда напоминания нет).
	ErrInconsistentMode = errors.New("unexpected input mode")
)
