package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures surfaced by the catalog and storage layers.
type ErrorKind int

// Error kinds.
const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindInvalidResponse
	KindDecode
	KindRateLimited
	KindStatus
	KindStorage
)

var kindNames = map[ErrorKind]string{
	KindUnknown:         "unknown",
	KindTransport:       "transport failure",
	KindInvalidResponse: "invalid response",
	KindDecode:          "decode failure",
	KindRateLimited:     "rate limited",
	KindStatus:          "server or client error",
	KindStorage:         "storage failure",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a catalog failure. StatusCode is set for KindStatus, KindRateLimited
// and KindUnknown when an HTTP response was received.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus, KindUnknown:
		if e.StatusCode != 0 {
			return fmt.Sprintf("%s: status %d", e.Kind, e.StatusCode)
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// IsUnauthorized checks if the error indicates an authentication failure
func (e *Error) IsUnauthorized() bool {
	return e.Kind == KindStatus && (e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// StorageKind is the category of a watchlist storage failure.
type StorageKind int

// Storage failure categories.
const (
	StorageOther StorageKind = iota
	StorageValidation
	StorageConstraint
	StorageSave
)

var storageMessages = map[StorageKind]string{
	StorageValidation: "An object failed to validate.",
	StorageConstraint: "This item already exists in your watchlist.",
	StorageSave:       "The persistent store failed to save.",
}

// StorageError is a watchlist persistence failure.
type StorageError struct {
	Kind StorageKind
	Err  error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return "storage failure: " + e.Message()
}

// Unwrap returns the driver error.
func (e *StorageError) Unwrap() error { return e.Err }

// Message returns a user-facing description. Unclassified failures fall back
// to the driver's own message.
func (e *StorageError) Message() string {
	if msg, ok := storageMessages[e.Kind]; ok {
		return msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "An unknown storage error occurred."
}

// KindOf returns the taxonomy kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	var se *StorageError
	if errors.As(err, &se) {
		return KindStorage
	}
	return KindUnknown
}

// DisplayMessage renders err as a string suitable for end users.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Message()
	}
	var ce *Error
	if !errors.As(err, &ce) {
		return err.Error()
	}
	switch ce.Kind {
	case KindTransport:
		return fmt.Sprintf("Network request failed with error: %v", ce.Err)
	case KindInvalidResponse:
		return "The response from the server was invalid."
	case KindDecode:
		return fmt.Sprintf("Failed to decode the response: %v", ce.Err)
	case KindRateLimited:
		return "API rate limit exceeded. Please try again later."
	case KindStatus:
		return fmt.Sprintf("Server returned an error with status code: %d.", ce.StatusCode)
	default:
		return "An unknown error occurred."
	}
}
