package domain

import "unique"

// InternedString wraps a unique.Handle[string].
// Watched paths repeat heavily across notification bursts, so sessions key
// their accumulation state by interned path instead of by raw string.
// Two values are equal exactly when their strings are equal.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString creates a new InternedString from a string.
func NewInternedString(s string) InternedString {
	return InternedString{
		h: unique.Make(s),
	}
}

// String returns the underlying string value.
func (is InternedString) String() string {
	var zero unique.Handle[string]
	if is.h == zero {
		return ""
	}
	return is.h.Value()
}
