package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeUnauthorizedActor ErrorCode = "UNAUTHORIZED_ACTOR"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeInvalidState      ErrorCode = "INVALID_STATE"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeTransientWrite    ErrorCode = "TRANSIENT_WRITE_FAILURE"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is(err, ErrInvalidState) срабатывал
// для любой ошибки с тем же кодом, независимо от текста.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeUnauthorizedActor, ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeInvalidState:
		return http.StatusConflict
	case ErrCodeTransientWrite:
		return http.StatusServiceUnavailable
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки приложения или ErrCodeInternal для любых других ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsLogical сообщает, что ошибка - детерминированный отказ движка, вычисленный до записи.
func IsLogical(err error) bool {
	switch CodeOf(err) {
	case ErrCodeNotFound, ErrCodeUnauthorizedActor, ErrCodeInvalidState, ErrCodeInvalidInput:
		return true
	}
	return false
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsUnauthorizedActor(err error) bool {
	return CodeOf(err) == ErrCodeUnauthorizedActor
}

func IsInvalidState(err error) bool {
	return CodeOf(err) == ErrCodeInvalidState
}

func IsInvalidInput(err error) bool {
	return CodeOf(err) == ErrCodeInvalidInput
}

func IsTransient(err error) bool {
	return CodeOf(err) == ErrCodeTransientWrite
}

var (
	ErrGigNotFound          = New(ErrCodeNotFound, "сделка не найдена")
	ErrUnauthorizedActor    = New(ErrCodeUnauthorizedActor, "действие недоступно для этого адреса")
	ErrInvalidState         = New(ErrCodeInvalidState, "действие недоступно в текущем статусе сделки")
	ErrInvalidInput         = New(ErrCodeInvalidInput, "некорректные входные данные")
	ErrInsufficientBalance  = New(ErrCodeInvalidInput, "недостаточно средств на балансе")
	ErrBalanceOverflow      = New(ErrCodeInvalidInput, "переполнение баланса")
	ErrTransientWrite       = New(ErrCodeTransientWrite, "результат записи неизвестен, перечитайте состояние сделки")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")
	ErrDisabledInProduction = New(ErrCodeForbidden, "операция недоступна в production")
	ErrRateLimited          = New(ErrCodeRateLimited, "слишком много запросов, попробуйте позже")
)
