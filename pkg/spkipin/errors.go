// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package spkipin implements public-key pinning for TLS clients. Pins are
// base64 SHA-256 fingerprints of a certificate's public key, checked against
// the peer chain after the platform's standard certificate verification has
// already succeeded. Pinning is an additional constraint, never a
// replacement for chain validation.
package spkipin

import "errors"

// Certificate-level errors. These are absorbed while scanning a chain or
// loading pin files; the offending certificate is skipped.
var (
	// ErrCertificateDecodingFailed is returned when a byte blob cannot be parsed as an X.509 certificate.
	ErrCertificateDecodingFailed = errors.New("spkipin: certificate decoding failed")

	// ErrPublicKeyExtractionFailed is returned when a parsed certificate carries no usable public key.
	ErrPublicKeyExtractionFailed = errors.New("spkipin: public key extraction failed")

	// ErrPublicKeyRepresentationUnavailable is returned when the external
	// representation of an extracted key cannot be obtained.
	ErrPublicKeyRepresentationUnavailable = errors.New("spkipin: public key representation unavailable")
)

// Validation errors. Each one rejects the connection being validated and is
// recorded as the validator's last error.
var (
	// ErrNoCertificatesFromServer is returned when the peer presented an empty or absent chain.
	ErrNoCertificatesFromServer = errors.New("spkipin: no certificates from server")

	// ErrNoConfiguredPins is returned when the pin source holds no fingerprints.
	ErrNoConfiguredPins = errors.New("spkipin: no configured pins")

	// ErrInvalidCertificateFromServer is returned when no certificate in the chain matches a pin.
	ErrInvalidCertificateFromServer = errors.New("spkipin: invalid certificate from server")
)
