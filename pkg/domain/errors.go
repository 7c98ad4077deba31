package domain

import "errors"

// ErrSnapshotNotFound is returned when no snapshot is stored under a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrQueryFailed wraps failures reported by the remote query collaborator.
var ErrQueryFailed = errors.New("query failed")

// ErrMalformedResponse is returned when a remote payload lacks the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// ErrNoErrorHandler is returned when a fire-and-forget operation is built without an error handler.
var ErrNoErrorHandler = errors.New("error handler is required")

// ErrCardNotFound is returned when a section is requested for a card that is not loaded.
var ErrCardNotFound = errors.New("card not found")
