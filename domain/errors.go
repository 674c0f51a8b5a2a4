package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrAuthentication  = errors.New("authentication failed")
	ErrNotFound        = errors.New("not found")
	ErrPaymentProvider = errors.New("payment provider failure")
	ErrMalformedEvent  = errors.New("malformed event")
	ErrStore           = errors.New("store failure")

	IllegalTransitionError = errors.New("illegal transition of fulfillment status")
)

// ValidationError carries every rejected field of a booking request.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, reason string) {
	if _, ok := e.Fields[field]; ok {
		return
	}
	e.Fields[field] = reason
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, joinFields(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MalformedEventError names the metadata keys that failed to decode.
type MalformedEventError struct {
	Keys map[string]string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedEvent, joinFields(e.Keys))
}

func (e *MalformedEventError) Is(target error) bool {
	return target == ErrMalformedEvent
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+fields[k])
	}
	return strings.Join(parts, "; ")
}
