package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is matching. Operations return the typed
// errors below, which match these sentinels, so callers can branch on
// kind without inspecting backend-specific failures.
var (
	ErrUnknownClient           = errors.New("unknown client")
	ErrAtLeastOneUnknownClient = errors.New("at least one unknown client")
	ErrNotImplemented          = errors.New("operation not implemented")
)

// UnknownClientError reports a write that referenced a client with no
// pointer record. It is produced by translating a referential-integrity
// violation at the storage boundary.
type UnknownClientError struct {
	ClientID ClientID
	cause    error
}

// NewUnknownClientError wraps cause into an UnknownClientError for id.
func NewUnknownClientError(id ClientID, cause error) *UnknownClientError {
	return &UnknownClientError{ClientID: id, cause: cause}
}

func (e *UnknownClientError) Error() string {
	return fmt.Sprintf("unknown client %s", e.ClientID)
}

// Is matches ErrUnknownClient.
func (e *UnknownClientError) Is(target error) bool {
	return target == ErrUnknownClient
}

// Unwrap returns the backend error that triggered the translation, if any.
func (e *UnknownClientError) Unwrap() error {
	return e.cause
}

// AtLeastOneUnknownClientError reports a batch operation that touched one
// or more clients with no pointer record. The whole batch is rejected;
// none of it is applied.
type AtLeastOneUnknownClientError struct {
	ClientIDs []ClientID
	cause     error
}

// NewAtLeastOneUnknownClientError wraps cause into an
// AtLeastOneUnknownClientError for the batch ids.
func NewAtLeastOneUnknownClientError(ids []ClientID, cause error) *AtLeastOneUnknownClientError {
	return &AtLeastOneUnknownClientError{ClientIDs: ids, cause: cause}
}

func (e *AtLeastOneUnknownClientError) Error() string {
	strs := make([]string, len(e.ClientIDs))
	for i, id := range e.ClientIDs {
		strs[i] = id.String()
	}
	return fmt.Sprintf("at least one unknown client among [%s]", strings.Join(strs, ", "))
}

// Is matches ErrAtLeastOneUnknownClient.
func (e *AtLeastOneUnknownClientError) Is(target error) bool {
	return target == ErrAtLeastOneUnknownClient
}

// Unwrap returns the backend error that triggered the translation, if any.
func (e *AtLeastOneUnknownClientError) Unwrap() error {
	return e.cause
}
