// Package services defines the business logic for ingestion, streaks,
// scoring, ranks, and statistics. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrGroupNotFound indicates that the requested group has never been
	// observed by the ingestion pipeline.
	ErrGroupNotFound = errors.New("group not found")

	// ErrUnknownMessageType is returned when an ingested event carries a
	// message type outside the accepted set.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrInvalidEvent is returned when an ingested event is structurally
	// invalid (missing identifiers or timestamp).
	ErrInvalidEvent = errors.New("invalid event")

	// ErrStaleTimestamp is returned in strict clock-skew mode when an event
	// predates the membership's last recorded checkin day.
	ErrStaleTimestamp = errors.New("event timestamp predates last checkin")
)
