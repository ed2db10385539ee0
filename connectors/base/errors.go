// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package base

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a connector error into the shared taxonomy
type Kind int

const (
	KindUnknown Kind = iota

	// KindConfiguration: a required field was missing at construction.
	// Fails fast, before registration, and is never retried.
	KindConfiguration

	// KindValidation: the caller-supplied query is missing a required
	// parameter. Surfaced as a client-input fault.
	KindValidation

	// KindNotFound: a named connector, model, or provider resource does
	// not exist. Distinct from a query returning zero results.
	KindNotFound

	// KindProvider: the upstream responded with a non-success status
	KindProvider

	// KindTimeout: the call did not complete within the configured timeout
	KindTimeout

	// KindTransport: the request never reached the provider at all
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindProvider:
		return "provider"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is the classified error raised by connector operations
type Error struct {
	Kind       Kind
	Connector  string
	Op         string
	Message    string
	StatusCode int // set for provider errors
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	switch {
	case e.Connector != "" && e.Op != "":
		msg = fmt.Sprintf("%s.%s: %s", e.Connector, e.Op, msg)
	case e.Connector != "":
		msg = fmt.Sprintf("%s: %s", e.Connector, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewConfigurationError reports a missing or invalid configuration field
func NewConfigurationError(connector, message string) *Error {
	return &Error{Kind: KindConfiguration, Connector: connector, Message: message}
}

// NewValidationError reports a caller-supplied query fault
func NewValidationError(connector, op, message string) *Error {
	return &Error{Kind: KindValidation, Connector: connector, Op: op, Message: message}
}

// NewNotFoundError reports a missing connector, model, or resource
func NewNotFoundError(connector, op, message string) *Error {
	return &Error{Kind: KindNotFound, Connector: connector, Op: op, Message: message}
}

// NewProviderError reports a non-success upstream response. The message
// should be the one extracted from the provider's error body, or the
// generic "API Error" fallback.
func NewProviderError(connector, op, message string, statusCode int) *Error {
	return &Error{Kind: KindProvider, Connector: connector, Op: op, Message: message, StatusCode: statusCode}
}

// NewTimeoutError reports a call that outlived its configured timeout
func NewTimeoutError(connector, op string, timeout time.Duration, cause error) *Error {
	return &Error{
		Kind:      KindTimeout,
		Connector: connector,
		Op:        op,
		Message:   fmt.Sprintf("request timed out after %v", timeout),
		Cause:     cause,
	}
}

// NewTransportError reports a request that never reached the provider
func NewTransportError(connector, op string, cause error) *Error {
	return &Error{
		Kind:      KindTransport,
		Connector: connector,
		Op:        op,
		Message:   "request could not reach provider",
		Cause:     cause,
	}
}

// KindOf extracts the taxonomy kind of err, or KindUnknown for errors
// raised outside the connector framework.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given taxonomy kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
