// Package services defines the business logic for the data access gateway
// and the voice-platform front door. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

var (
	// ErrInvalidApplication indicates that the embedded application
	// identifier does not match the registered skill. The request is
	// dropped before any side effect.
	ErrInvalidApplication = errors.New("invalid application id")

	// ErrMalformedRequest is returned when the inbound body is empty or
	// cannot be parsed into a voice-platform request.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrNoResponse indicates that no stored response exists for the
	// derived lookup key. Handlers surface it exactly like a malformed
	// request so callers cannot tell which part of the key was wrong.
	ErrNoResponse = errors.New("no response for request")
)
