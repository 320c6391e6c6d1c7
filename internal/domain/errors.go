package domain

import "errors"

var (
	// ErrNotFound is returned when the requested datapoint does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKind indicates an unsupported metric kind was supplied.
	ErrInvalidKind = errors.New("invalid metric kind")
	// ErrMissingMetric is returned for records that carry no metric name at all.
	ErrMissingMetric = errors.New("record has no metric name")
	// ErrMissingToken is returned when a formatter is built without an ingest token.
	ErrMissingToken = errors.New("ingest token is required")
	// ErrUnauthorized signals a rejected or absent X-SF-Token.
	ErrUnauthorized = errors.New("unauthorized")
)
