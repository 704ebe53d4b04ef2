package errors

import (
	"errors"
	"fmt"
)

var (
	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")

	// Сессии дашбордов
	ErrUnknownRole     = fmt.Errorf("неизвестная роль")
	ErrCourierRequired = fmt.Errorf("для роли delivery нужен courier_id")
	ErrSessionClosed   = fmt.Errorf("сессия уже закрыта")

	// Заказы
	ErrInvalidStatus       = fmt.Errorf("недопустимый статус")
	ErrOrderAlreadyTaken   = fmt.Errorf("заказ уже принят другим курьером")
	ErrOrderNotReady       = fmt.Errorf("заказ ещё не готов к выдаче")
	ErrFetchFailed         = fmt.Errorf("не удалось загрузить заказы")
	ErrRealtimeUnavailable = fmt.Errorf("realtime-канал недоступен")
)

// HttpError - ошибка с HTTP-кодом и сообщением для пользователя.
type HttpError struct {
	Code    int
	Message string
	Err     error
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err}
}

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}
