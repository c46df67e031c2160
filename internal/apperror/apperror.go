// Package apperror описывает таксономию ошибок сервиса.
// Каждая ошибка несёт sentinel-вид, по которому HTTP-слой выбирает статус.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrAuth         = errors.New("authentication error")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
)

// Error — ошибка приложения с читаемым сообщением.
type Error struct {
	Kind    error  // один из sentinel выше
	Message string // сообщение для клиента
	Field   string // поле запроса, если ошибка к нему относится
	Err     error  // исходная причина, может быть nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Is позволяет errors.Is(err, ErrNotFound) и т.п.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation — невалидный, отсутствующий или ссылающийся в никуда ввод.
func Validation(field, message string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

// Auth — неверные учётные данные или отсутствующий токен.
func Auth(message string) *Error {
	return &Error{Kind: ErrAuth, Message: message}
}

// DuplicateKey — нарушение уникального индекса.
func DuplicateKey(resource, field string, err error) *Error {
	return &Error{
		Kind:    ErrDuplicateKey,
		Field:   field,
		Message: fmt.Sprintf("%s with this %s already exists", resource, field),
		Err:     err,
	}
}

// NotFound — цель операции не существует.
func NotFound(resource, id string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// Forbidden — несовпадение владельца при изменяющей операции.
func Forbidden(message string) *Error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// Message возвращает клиентское сообщение, если err — *Error.
func Message(err error) (string, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message, true
	}
	return "", false
}
