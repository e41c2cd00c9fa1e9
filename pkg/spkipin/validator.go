// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package spkipin

import (
	"fmt"
	"log/slog"
	"sync"
)

// Disposition is the decision handed back to the transport for a challenge.
type Disposition int

const (
	// CancelChallenge aborts the connection.
	CancelChallenge Disposition = iota

	// UseCredential lets the connection proceed with the minted credential.
	UseCredential
)

// String returns a readable name for the disposition.
func (d Disposition) String() string {
	if d == UseCredential {
		return "use-credential"
	}
	return "cancel"
}

// Challenge is a single trust-evaluation event for one connection attempt.
type Challenge struct {
	// Chain holds the peer's DER certificates, leaf first.
	Chain [][]byte

	// Trust is an opaque, connection-scoped platform handle. It is passed
	// unchanged into the Credential on acceptance.
	Trust any
}

// Credential is minted from an accepted challenge's trust handle.
type Credential struct {
	trust any
}

// Trust returns the handle the credential was minted from.
func (c *Credential) Trust() any {
	return c.trust
}

// Outcome is the result of validating one Challenge. Exactly one of
// Credential (accept) or Err (reject) is set.
type Outcome struct {
	Disposition Disposition
	Credential  *Credential
	Err         error
}

// Accepted reports whether the challenge was accepted.
func (o Outcome) Accepted() bool {
	return o.Disposition == UseCredential
}

// Validator checks peer chains against a PinSource and remembers the most
// recent failure. It is safe for concurrent use; each call validates an
// independent connection against the same read-only pins.
type Validator struct {
	source PinSource
	logger *slog.Logger

	mu      sync.RWMutex
	lastErr error
}

// NewValidator creates a Validator over source. A nil source behaves as an
// empty pin set and rejects every challenge. A nil logger uses slog.Default().
func NewValidator(source PinSource, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		source: source,
		logger: logger.With("component", "spkipin_validator"),
	}
}

// Validate decides whether the challenge's chain is pinned. The chain is
// scanned leaf to root and the first certificate whose fingerprint is pinned
// accepts the connection. Certificates that cannot be decoded or hashed are
// skipped. Every call overwrites LastError; acceptance clears it.
func (v *Validator) Validate(ch Challenge) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = v.reject(fmt.Errorf("%w: %v", ErrInvalidCertificateFromServer, r))
		}
	}()

	if len(ch.Chain) == 0 {
		return v.reject(ErrNoCertificatesFromServer)
	}

	pins := v.pins()
	if pins.Len() == 0 {
		return v.reject(ErrNoConfiguredPins)
	}

	for depth, der := range ch.Chain {
		fp, err := HashDER(der)
		if err != nil {
			if depth == 0 {
				v.logger.Warn("leaf certificate could not be hashed", "error", err)
			} else {
				v.logger.Debug("skipping certificate", "depth", depth, "error", err)
			}
			continue
		}
		if pins.Contains(fp) {
			v.setLastError(nil)
			v.logger.Debug("pinned certificate matched", "depth", depth, "fingerprint", fp)
			return Outcome{
				Disposition: UseCredential,
				Credential:  &Credential{trust: ch.Trust},
			}
		}
	}

	return v.reject(ErrInvalidCertificateFromServer)
}

// LastError returns the failure recorded by the most recent Validate call,
// or nil if it succeeded or no validation has run yet.
func (v *Validator) LastError() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastErr
}

func (v *Validator) pins() PinSet {
	if v.source == nil {
		return PinSet{}
	}
	return v.source.Fingerprints()
}

func (v *Validator) reject(err error) Outcome {
	v.setLastError(err)
	v.logger.Warn("pin validation failed", "error", err)
	return Outcome{Disposition: CancelChallenge, Err: err}
}

func (v *Validator) setLastError(err error) {
	v.mu.Lock()
	v.lastErr = err
	v.mu.Unlock()
}
