package selection

import "errors"

var (
	// ErrAborted пользователь отказался от выбора: "q", конец ввода или отмена контекста
	ErrAborted = errors.New("selection: aborted")

	// ErrTooManyAttempts исчерпаны попытки ввода
	ErrTooManyAttempts = errors.New("selection: too many invalid attempts")

	// ErrNoOptions нечего выбирать
	ErrNoOptions = errors.New("selection: no options available")
)
