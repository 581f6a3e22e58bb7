package service

import (
	"errors"
	"fmt"
	"strings"

	"dealflow/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("no active session")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid lifecycle transition")
	ErrForbidden          = errors.New("access denied")
	ErrVersionConflict    = errors.New("request was modified concurrently")
	ErrValidation         = errors.New("validation failed")
)

// FieldError names one rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every missing or invalid field. Nothing is saved when it is returned.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("'%s': %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FieldNames returns the names of the rejected fields in order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

// fromRepo maps repository sentinels onto service errors.
func fromRepo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrVersionConflict
	}
	return err
}
