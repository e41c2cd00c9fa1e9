// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package apiclient

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeremyhahn/go-pinhttp/pkg/spkipin"
)

// DefaultTimeout is the default overall timeout for a request.
const DefaultTimeout = 30 * time.Second

// PinningMode selects how pinned fingerprints are obtained.
type PinningMode int

const (
	// PinningDisabled relies on standard TLS verification only.
	PinningDisabled PinningMode = iota

	// PinningKeyHashes pins caller-supplied base64 fingerprints.
	PinningKeyHashes

	// PinningCertificateFiles pins the public keys of local DER certificate files.
	PinningCertificateFiles
)

// String returns the mode name.
func (m PinningMode) String() string {
	switch m {
	case PinningDisabled:
		return "disabled"
	case PinningKeyHashes:
		return "key-hashes"
	case PinningCertificateFiles:
		return "certificate-files"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Pinning is the pinning configuration of a Client. Use NoPinning,
// PinKeyHashes or PinCertificateFiles to build one.
type Pinning struct {
	Mode             PinningMode
	KeyHashes        []string
	CertificateFiles []string
}

// NoPinning disables pinning.
func NoPinning() Pinning {
	return Pinning{Mode: PinningDisabled}
}

// PinKeyHashes pins the given base64 SHA-256 public-key fingerprints.
func PinKeyHashes(hashes ...string) Pinning {
	return Pinning{Mode: PinningKeyHashes, KeyHashes: hashes}
}

// PinCertificateFiles pins the public keys of the given DER certificate files.
func PinCertificateFiles(paths ...string) Pinning {
	return Pinning{Mode: PinningCertificateFiles, CertificateFiles: paths}
}

// Enabled reports whether pinning is enabled.
func (p Pinning) Enabled() bool {
	return p.Mode != PinningDisabled
}

// source builds the pin source for the configured mode. It returns nil when
// pinning is disabled.
func (p Pinning) source(logger *slog.Logger) (spkipin.PinSource, error) {
	switch p.Mode {
	case PinningDisabled:
		return nil, nil
	case PinningKeyHashes:
		return spkipin.NewStaticSource(p.KeyHashes), nil
	case PinningCertificateFiles:
		return spkipin.NewFileSource(p.CertificateFiles, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown pinning mode %s", ErrInvalidConfig, p.Mode)
	}
}

// DefaultValidStatusCodes returns the 2xx status codes.
func DefaultValidStatusCodes() []int {
	codes := make([]int, 0, 100)
	for code := 200; code <= 299; code++ {
		codes = append(codes, code)
	}
	return codes
}

// Config configures a Client.
type Config struct {
	// Pinning selects the pinning strategy. The zero value disables pinning.
	Pinning Pinning

	// ValidStatusCodes lists the statuses accepted when status validation is
	// requested. Defaults to 200-299.
	ValidStatusCodes []int

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// TLSConfig is the base TLS configuration (root CAs, client
	// certificates). The pinning hook is installed on a copy.
	TLSConfig *tls.Config

	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}
