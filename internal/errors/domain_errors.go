package errors

import (
	"errors"
	"fmt"
)

// FetchError reports an upstream statistical API failure: unreachable host,
// a non-2xx status, or a response missing the expected data envelope.
// Non-fatal to a pipeline run; the affected commodity is skipped.
type FetchError struct {
	SeriesID string
	Status   int
	Message  string
	Cause    error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %s", e.SeriesID, e.Status, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.SeriesID, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *FetchError) Unwrap() error { return e.Cause }

// NewFetchError creates a fetch error for a series request
func NewFetchError(seriesID string, status int, message string, cause error) *FetchError {
	return &FetchError{SeriesID: seriesID, Status: status, Message: message, Cause: cause}
}

// StorageError reports a key-value backing store failure. Fatal to the
// current pipeline run; previously persisted data is left untouched.
type StorageError struct {
	Op    string
	Key   string
	Cause error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Cause)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Cause)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *StorageError) Unwrap() error { return e.Cause }

// NewStorageError creates a storage error for a key-value operation
func NewStorageError(op, key string, cause error) *StorageError {
	return &StorageError{Op: op, Key: key, Cause: cause}
}

// MalformedDataError reports stored raw data that fails to parse as the
// expected schema. Fatal for that commodity's contribution only.
type MalformedDataError struct {
	Commodity string
	Cause     error
}

// Error implements the error interface
func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("malformed data for commodity %q: %v", e.Commodity, e.Cause)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *MalformedDataError) Unwrap() error { return e.Cause }

// NewMalformedDataError creates a malformed data error for a commodity
func NewMalformedDataError(commodity string, cause error) *MalformedDataError {
	return &MalformedDataError{Commodity: commodity, Cause: cause}
}

// IsFetchError reports whether err is or wraps a FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsStorageError reports whether err is or wraps a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsMalformedDataError reports whether err is or wraps a MalformedDataError
func IsMalformedDataError(err error) bool {
	var me *MalformedDataError
	return errors.As(err, &me)
}
