package domain

import (
	"errors"
)

var (
	// ErrMalformedResponse means the provider payload did not have the
	// expected shape. Repeating the call will not help.
	ErrMalformedResponse = errors.New("malformed search response")
	// ErrSearchUnavailable means the search provider could not be reached or
	// answered with an error status.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrStorageUnavailable means a merged collection could not be persisted.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrStorageCorrupt means a stored collection could not be decoded. Stores
	// recover from it by treating the collection as empty.
	ErrStorageCorrupt = errors.New("stored collection is corrupt")
	// ErrInvalidDuration is returned for an unknown duration label.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidRequest is returned for a collection request missing fields.
	ErrInvalidRequest = errors.New("invalid collection request")
)

// ErrorKind is a stable code for a collection failure.
type ErrorKind string

const (
	KindMalformedResponse  ErrorKind = "malformed_response"
	KindSearchUnavailable  ErrorKind = "search_unavailable"
	KindStorageUnavailable ErrorKind = "storage_unavailable"
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindCollectionFailed   ErrorKind = "collection_failed"
)

// KindOf classifies err. Unknown errors are KindCollectionFailed.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrSearchUnavailable):
		return KindSearchUnavailable
	case errors.Is(err, ErrStorageUnavailable):
		return KindStorageUnavailable
	case errors.Is(err, ErrInvalidDuration), errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindCollectionFailed
	}
}
