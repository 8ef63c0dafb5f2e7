package utils

import "strings"

func Ptr[T any](v T) *T {
	return &v
}

// ValueOr dereferences v, falling back when it is nil
func ValueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

// Returns nil on an empty or all whitespace string, otherwise the trimmed string
func StringOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
