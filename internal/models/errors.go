package models

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ErrorKind string

const (
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindForbidden        ErrorKind = "FORBIDDEN"
	KindInvalidOperation ErrorKind = "INVALID_OPERATION"
	KindValidation       ErrorKind = "VALIDATION_FAILED"
	KindUnauthorized     ErrorKind = "UNAUTHORIZED"
)

// AppError is an error that is safe to show to the caller.
type AppError struct {
	Kind    ErrorKind         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *AppError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (e *AppError) HTTPCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInvalidOperation, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(format string, args ...any) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *AppError {
	return &AppError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func InvalidOperation(format string, args ...any) *AppError {
	return &AppError{Kind: KindInvalidOperation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func ValidationFailed(fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// AsAppError unwraps err into an *AppError when it carries one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}

// ValidationError turns a validator error into a ValidationFailed error keyed by json field name.
func ValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationFailed(map[string]string{"body": err.Error()})
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describeTag(fe)
	}
	return ValidationFailed(fields)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

// ParseObjectID parses a hex id supplied by a caller.
func ParseObjectID(field, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, ValidationFailed(map[string]string{field: "must be a valid id"})
	}
	return id, nil
}
