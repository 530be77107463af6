package model

import "encoding/json"

// Optional is a tri-state field for partial-update payloads: absent, present
// but null, or present with a value. The zero value means absent. JSON
// unmarshalling only runs for keys present in the payload, which is what makes
// the absent/null distinction observable.
type Optional[T any] struct {
	set   bool
	valid bool
	value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{set: true, valid: true, value: v}
}

// Null returns an Optional that is present but explicitly null.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true}
}

// IsSet reports whether the field was present in the payload at all.
func (o Optional[T]) IsSet() bool { return o.set }

// IsNull reports whether the field was present with an explicit null.
func (o Optional[T]) IsNull() bool { return o.set && !o.valid }

// Get returns the value and whether a non-null value is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set && o.valid
}

// Value returns the held value, or the zero value when absent or null.
func (o Optional[T]) Value() T { return o.value }

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.valid = false
		var zero T
		o.value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.value); err != nil {
		return err
	}
	o.valid = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set || !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
