package core

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a storage failure so the HTTP layer can pick a status.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindInvalidInput
	KindUpstreamUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}

// StorageError is what every ObjectClient returns on failure.
type StorageError struct {
	Kind ErrorKind
	Op   string
	Key  string
	Err  error
}

func NewStorageError(kind ErrorKind, op, key string, err error) *StorageError {
	return &StorageError{Kind: kind, Op: op, Key: key, Err: err}
}

func (e *StorageError) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Op, e.Key, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error { return e.Err }

// KindOf reports the kind of err. Errors that never passed through a client
// are classified by cause: deadlines and network failures count as the
// upstream being unavailable.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindUpstreamUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUpstreamUnavailable
	}
	return KindUnknown
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}
