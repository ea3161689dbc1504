// Package apperr carries the API error taxonomy from the controllers up to
// the HTTP envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidJSON        = "INVALID_JSON"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	CodeUserInactive       = "USER_INACTIVE"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeTokenRequired      = "TOKEN_REQUIRED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidStaff       = "INVALID_STAFF"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeInvalidAdjustment  = "INVALID_ADJUSTMENT"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeInvalidFileType    = "INVALID_FILE_TYPE"
	CodePrinterTestFailed  = "PRINTER_TEST_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error is a client-facing failure. Data is optional extra payload for the envelope.
type Error struct {
	Status   int
	Code     string
	Messages []string
	Data     any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, strings.Join(e.Messages, "; "))
}

func New(status int, code string, msgs ...string) *Error {
	return &Error{Status: status, Code: code, Messages: msgs}
}

// WithData attaches an envelope payload and returns the same error.
func (e *Error) WithData(data any) *Error {
	e.Data = data
	return e
}

func Validation(msgs ...string) *Error {
	return New(http.StatusBadRequest, CodeValidation, msgs...)
}

func NotFound(entity, id string) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s with id %s not found", entity, id))
}

func Unauthorized(code, msg string) *Error {
	return New(http.StatusUnauthorized, code, msg)
}

func Forbidden(code, msg string) *Error {
	return New(http.StatusForbidden, code, msg)
}

func Locked(msg string) *Error {
	return New(http.StatusLocked, CodeAccountLocked, msg)
}

func Conflict(msg string) *Error {
	return New(http.StatusConflict, CodeConflict, msg)
}

func Internal(msg string) *Error {
	return New(http.StatusInternalServerError, CodeInternal, msg)
}

// As unwraps err into an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsNotFound reports gorm's not-found sentinel or a NOT_FOUND api error.
func IsNotFound(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	e, ok := As(err)
	return ok && e.Code == CodeNotFound
}

// FromValidator turns validator failures into one message per field.
// Anything else passes through unchanged.
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return Validation(msgs...)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "numeric":
		return field + " must contain only digits"
	case "uuid", "uuid4":
		return field + " must be a valid identifier"
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}
