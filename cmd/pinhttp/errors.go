// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import "errors"

// Exit codes for the CLI.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitRequestFailed indicates a request, lookup or verification failed.
	ExitRequestFailed = 1

	// ExitConfigError indicates a configuration or input validation error.
	ExitConfigError = 2

	// ExitPinningFailed indicates the server was rejected by certificate pinning.
	ExitPinningFailed = 3
)

// Sentinel errors for CLI operations.
var (
	// ErrInvalidInput is returned when required input parameters are missing or invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRequestFailed is returned when an HTTP request does not complete.
	ErrRequestFailed = errors.New("request failed")

	// ErrPinningFailed is returned when certificate pinning rejected the server.
	ErrPinningFailed = errors.New("certificate pinning failed")

	// ErrLookupFailed is returned when a TLSA lookup fails.
	ErrLookupFailed = errors.New("lookup failed")

	// ErrFileOperation is returned when a file read or write operation fails.
	ErrFileOperation = errors.New("file operation failed")
)

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrPinningFailed):
		return ExitPinningFailed
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrFileOperation):
		return ExitConfigError
	default:
		return ExitRequestFailed
	}
}
