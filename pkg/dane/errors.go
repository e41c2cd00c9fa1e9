// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package dane publishes and discovers public-key pins through DNS TLSA
// records (RFC 6698). A TLSA record with selector SPKI and matching type
// SHA-256 carries the same digest as a pin fingerprint, so pins can be
// distributed in DNS and fed to a static pin source.
package dane

import "errors"

// DNS lookup errors indicate issues resolving TLSA records.
var (
	// ErrNoTLSARecords indicates no TLSA records were found for the queried name.
	ErrNoTLSARecords = errors.New("dane: no TLSA records found")

	// ErrNoPinRecords indicates TLSA records exist but none carries an SPKI SHA-256 digest.
	ErrNoPinRecords = errors.New("dane: no SPKI SHA-256 TLSA records")

	// ErrDNSLookupFailed indicates the DNS query for TLSA records failed.
	ErrDNSLookupFailed = errors.New("dane: DNS lookup failed")

	// ErrDNSSECRequired indicates DNSSEC validation is required but the
	// Authenticated Data (AD) flag was not set in the DNS response.
	ErrDNSSECRequired = errors.New("dane: DNSSEC validation required but AD flag not set")
)

// Input validation errors indicate invalid parameters were provided.
var (
	// ErrInvalidCertificate indicates a nil or unhashable certificate was provided.
	ErrInvalidCertificate = errors.New("dane: invalid certificate")

	// ErrInvalidHostname indicates an empty or malformed hostname was provided.
	ErrInvalidHostname = errors.New("dane: invalid hostname")

	// ErrInvalidPort indicates port number zero was provided.
	ErrInvalidPort = errors.New("dane: invalid port")

	// ErrInvalidUsage indicates a certificate usage outside 0-3 was provided.
	ErrInvalidUsage = errors.New("dane: invalid TLSA usage")
)

// Configuration errors indicate issues with resolver setup.
var (
	// ErrResolverConfig indicates the resolver configuration is invalid.
	ErrResolverConfig = errors.New("dane: invalid resolver configuration")
)
