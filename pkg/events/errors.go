package events

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownLiteral is returned when a field restricted to a closed set of
	// literals carries a value outside that set.
	ErrUnknownLiteral = errors.New("events: value is not one of the documented literals")

	// ErrInvalidHeaderValue is returned for proxy result headers that are not a
	// boolean, number or string.
	ErrInvalidHeaderValue = errors.New("events: header value must be a boolean, number or string")

	// ErrInvalidStringOrSlice is returned when a policy field is neither a string
	// nor a list of strings.
	ErrInvalidStringOrSlice = errors.New("events: value must be a string or a list of strings")

	ErrUnknownRequestType = errors.New("events: unknown custom resource request type")
	ErrUnknownStatus      = errors.New("events: unknown custom resource response status")
)

func unknownLiteral(field string, value []byte) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownLiteral, field, value)
}

// ValidationError describes one field that failed validation.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (ve ValidationError) Error() string {
	return ve.Message
}

// ValidationErrors is returned by Validate when one or more fields fail.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		msgs = append(msgs, e.Message)
	}
	return "events: validation failed: " + strings.Join(msgs, "; ")
}
