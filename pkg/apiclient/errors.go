// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package apiclient is an HTTP client for JSON APIs with optional TLS
// public-key pinning. Pinning is delegated to package spkipin; when it is
// disabled no pinning hook is installed and standard TLS verification alone
// decides which servers are trusted.
package apiclient

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig is returned when the client configuration is invalid.
	ErrInvalidConfig = errors.New("apiclient: invalid configuration")

	// ErrInvalidRequest is returned when a Request cannot be turned into an HTTP request.
	ErrInvalidRequest = errors.New("apiclient: invalid request")

	// ErrRequestFailed is returned when the transport fails to deliver a request.
	ErrRequestFailed = errors.New("apiclient: request failed")

	// ErrInvalidStatusCode is returned when a response status is not in the valid set.
	ErrInvalidStatusCode = errors.New("apiclient: invalid status code")

	// ErrUndecodableResponse is returned when a response body is not valid JSON for the target type.
	ErrUndecodableResponse = errors.New("apiclient: undecodable response")
)

// TransportError reports a request that never produced a response. When
// pinning rejected the connection, PinningErr carries the precise reason
// recorded by the pin validator.
type TransportError struct {
	// PinningErr is the pinning rejection that aborted the handshake, if any.
	PinningErr error

	// Err is the error returned by the HTTP transport.
	Err error
}

// Error returns a message including the pinning reason when present.
func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(ErrRequestFailed.Error())
	if e.PinningErr != nil {
		fmt.Fprintf(&b, ": %v", e.PinningErr)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes ErrRequestFailed, the pinning error and the transport error
// to errors.Is/As.
func (e *TransportError) Unwrap() []error {
	errs := []error{ErrRequestFailed}
	if e.PinningErr != nil {
		errs = append(errs, e.PinningErr)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// StatusError is returned when status validation is requested and the
// response status is not one of the client's valid status codes.
type StatusError struct {
	// StatusCode is the HTTP status returned by the server.
	StatusCode int

	// Body is the (size-limited) response body.
	Body []byte
}

// Error returns a formatted message including the status code.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d", ErrInvalidStatusCode, e.StatusCode)
}

// Unwrap returns ErrInvalidStatusCode for use with errors.Is.
func (e *StatusError) Unwrap() error {
	return ErrInvalidStatusCode
}

// DecodeError is returned when a response body cannot be decoded into the
// requested type. The raw body is kept for diagnostics.
type DecodeError struct {
	// Body is the raw response body.
	Body []byte

	// Err is the underlying JSON error.
	Err error
}

// Error returns a formatted message including the JSON error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %v", ErrUndecodableResponse, e.Err)
}

// Unwrap exposes ErrUndecodableResponse and the JSON error.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrUndecodableResponse, e.Err}
}
