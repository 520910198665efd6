package expirecache

import (
	"errors"
	"fmt"
)

// Failure kinds reported through OpError. The cache never returns them from
// its public operations; they reach callers only through WithErrorHandler and
// LastError.
var (
	ErrSerialize   = errors.New("serialize entry")
	ErrStorage     = errors.New("storage")
	ErrDeserialize = errors.New("deserialize entry")
)

// OpError describes a swallowed cache failure.
type OpError struct {
	Op   string // set, get, remove, clear, is_expired
	Key  string // namespaced key, empty for clear
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("expirecache %s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("expirecache %s %q: %v: %v", e.Op, e.Key, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func kindLabel(kind error) string {
	switch kind {
	case ErrSerialize:
		return "serialize"
	case ErrStorage:
		return "storage"
	case ErrDeserialize:
		return "deserialize"
	default:
		return "unknown"
	}
}
