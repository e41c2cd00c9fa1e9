// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package spkipin

import (
	"crypto/tls"
)

// Hook connects a Validator to a TLS transport. It is only installed when
// pinning is enabled; without it the transport relies on standard
// certificate verification alone.
type Hook struct {
	validator *Validator
}

// NewHook returns a Hook that delegates every trust challenge to v.
func NewHook(v *Validator) *Hook {
	return &Hook{validator: v}
}

// Validator returns the validator behind the hook.
func (h *Hook) Validator() *Validator {
	return h.validator
}

// Handle validates a challenge and returns the transport decision:
// (UseCredential, credential) on acceptance, (CancelChallenge, nil) otherwise.
func (h *Hook) Handle(ch Challenge) (Disposition, *Credential) {
	disposition, cred, _ := h.decide(ch)
	return disposition, cred
}

// VerifyConnection has the signature of tls.Config.VerifyConnection. It runs
// once per handshake, after the standard chain verification, and returns the
// rejection reason to abort the handshake.
func (h *Hook) VerifyConnection(cs tls.ConnectionState) error {
	chain := make([][]byte, 0, len(cs.PeerCertificates))
	for _, cert := range cs.PeerCertificates {
		chain = append(chain, cert.Raw)
	}

	disposition, _, err := h.decide(Challenge{Chain: chain, Trust: cs})
	if disposition == UseCredential {
		return nil
	}
	return err
}

// decide maps a validation outcome to the transport decision plus the
// rejection reason. A cancel always carries a non-nil error.
func (h *Hook) decide(ch Challenge) (Disposition, *Credential, error) {
	out := h.validator.Validate(ch)
	if out.Accepted() && out.Credential != nil {
		return UseCredential, out.Credential, nil
	}
	if out.Err == nil {
		return CancelChallenge, nil, ErrInvalidCertificateFromServer
	}
	return CancelChallenge, nil, out.Err
}

// TLSConfig returns a copy of base (or a new TLS 1.2+ config when base is
// nil) with the hook installed. An existing VerifyConnection callback on base
// still runs first. Standard certificate verification is left untouched.
func (h *Hook) TLSConfig(base *tls.Config) *tls.Config {
	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	prev := cfg.VerifyConnection
	cfg.VerifyConnection = func(cs tls.ConnectionState) error {
		if prev != nil {
			if err := prev(cs); err != nil {
				return err
			}
		}
		return h.VerifyConnection(cs)
	}
	return cfg
}
