package apperr

import "github.com/gofiber/fiber/v2"

type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeInternal     Code = "INTERNAL_ERROR"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the application error type the central fiber ErrorHandler knows how
// to serialize. Anything else falls through as a 500 with a generic message.
type Error struct {
	Code    Code
	Status  int
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Status: fiber.StatusNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Status: fiber.StatusConflict, Message: msg}
}

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Code: CodeValidation, Status: fiber.StatusBadRequest, Message: msg, Fields: fields}
}

func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Status: fiber.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Status: fiber.StatusForbidden, Message: msg}
}

func Internal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Status: fiber.StatusInternalServerError, Message: msg, Err: err}
}
