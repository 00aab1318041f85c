package events

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Nullable holds a field the platform may omit, send as null, or send with a
// value. Tag fields of this type with omitzero so that an unset Nullable is left
// out of the encoded document.
type Nullable[T any] struct {
	Value T
	// Valid reports that a non-null value is present.
	Valid bool
	// Set reports that the key was present, either null or with a value.
	Set bool
}

// Some returns a Nullable carrying v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true, Set: true}
}

// Null returns a Nullable that encodes as an explicit null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// IsZero reports whether the field is absent.
func (n Nullable[T]) IsZero() bool {
	return !n.Set && !n.Valid
}

// IsNull reports whether the field is present with a null value.
func (n Nullable[T]) IsNull() bool {
	return n.Set && !n.Valid
}

// Get returns the value and whether one is present.
func (n Nullable[T]) Get() (T, bool) {
	return n.Value, n.Valid
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Value)
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	var zero T
	n.Value = zero
	n.Set = true
	n.Valid = false

	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
