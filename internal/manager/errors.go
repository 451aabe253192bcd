package manager

import "errors"

// Kind - вариант ошибки сервиса; транспорт сопоставляет его со статусом
type Kind int

const (
	KindValidation Kind = iota + 1
	KindInvalidArgument
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

// Error - ожидаемая пользовательская ошибка операции
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is сравнивает по Kind, так что errors.Is(err, ErrNotFound) работает для любого сообщения
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
)

var (
	errTitleRequired = &Error{Kind: KindValidation, Message: "title is required"}
	errInvalidID     = &Error{Kind: KindInvalidArgument, Message: "invalid id"}
	errTaskNotFound  = &Error{Kind: KindNotFound, Message: "task not found or already completed"}
)

// KindOf возвращает Kind ошибки сервиса или 0 для неожиданных ошибок
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
