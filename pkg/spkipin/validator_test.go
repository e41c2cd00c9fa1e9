// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package spkipin

import (
	"crypto/x509"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticValidator(t *testing.T, pinned ...*x509.Certificate) *Validator {
	t.Helper()
	hashes := make([]string, 0, len(pinned))
	for _, cert := range pinned {
		hashes = append(hashes, string(mustHash(t, cert)))
	}
	return NewValidator(NewStaticSource(hashes), nil)
}

func chainOf(certs ...*x509.Certificate) [][]byte {
	chain := make([][]byte, 0, len(certs))
	for _, cert := range certs {
		chain = append(chain, cert.Raw)
	}
	return chain
}

func TestValidator_AcceptsAnyPosition(t *testing.T) {
	leaf := generateTestCert(t)
	intermediate := generateTestCert(t)
	root := generateTestCert(t)

	for name, pinned := range map[string]*x509.Certificate{
		"leaf":         leaf,
		"intermediate": intermediate,
		"root":         root,
	} {
		t.Run(name, func(t *testing.T) {
			v := staticValidator(t, pinned)

			out := v.Validate(Challenge{Chain: chainOf(leaf, intermediate, root), Trust: "trust-handle"})
			require.True(t, out.Accepted())
			assert.Equal(t, UseCredential, out.Disposition)
			require.NotNil(t, out.Credential)
			assert.Equal(t, "trust-handle", out.Credential.Trust())
			assert.NoError(t, out.Err)
			assert.NoError(t, v.LastError())
		})
	}
}

func TestValidator_NoMatch(t *testing.T) {
	v := staticValidator(t, generateTestCert(t))

	out := v.Validate(Challenge{Chain: chainOf(generateTestCert(t), generateTestCert(t))})
	assert.False(t, out.Accepted())
	assert.Equal(t, CancelChallenge, out.Disposition)
	assert.Nil(t, out.Credential)
	assert.ErrorIs(t, out.Err, ErrInvalidCertificateFromServer)
	assert.ErrorIs(t, v.LastError(), ErrInvalidCertificateFromServer)
}

func TestValidator_EmptyPinSetFailsClosed(t *testing.T) {
	cert := generateTestCert(t)

	for name, v := range map[string]*Validator{
		"empty static": NewValidator(NewStaticSource(nil), nil),
		"empty files":  NewValidator(NewFileSource([]string{"/nonexistent.der"}, nil), nil),
		"nil source":   NewValidator(nil, nil),
	} {
		t.Run(name, func(t *testing.T) {
			out := v.Validate(Challenge{Chain: chainOf(cert)})
			assert.False(t, out.Accepted())
			assert.ErrorIs(t, out.Err, ErrNoConfiguredPins)
			assert.ErrorIs(t, v.LastError(), ErrNoConfiguredPins)
		})
	}
}

func TestValidator_EmptyChain(t *testing.T) {
	cert := generateTestCert(t)

	for name, v := range map[string]*Validator{
		"pinned":   staticValidator(t, cert),
		"no pins":  NewValidator(NewStaticSource(nil), nil),
		"nil pins": NewValidator(nil, nil),
	} {
		t.Run(name, func(t *testing.T) {
			for _, chain := range [][][]byte{nil, {}} {
				out := v.Validate(Challenge{Chain: chain})
				assert.False(t, out.Accepted())
				assert.ErrorIs(t, out.Err, ErrNoCertificatesFromServer)
				assert.ErrorIs(t, v.LastError(), ErrNoCertificatesFromServer)
			}
		})
	}
}

func TestValidator_SkipsMalformedCertificates(t *testing.T) {
	pinned := generateTestCert(t)
	v := staticValidator(t, pinned)

	chain := [][]byte{{0x00, 0x01}, nil, pinned.Raw}
	out := v.Validate(Challenge{Chain: chain})
	assert.True(t, out.Accepted())
}

func TestValidator_OnlyMalformedCertificates(t *testing.T) {
	v := staticValidator(t, generateTestCert(t))

	out := v.Validate(Challenge{Chain: [][]byte{{0x00}, {0x30, 0x03, 0x01}}})
	assert.False(t, out.Accepted())
	assert.ErrorIs(t, out.Err, ErrInvalidCertificateFromServer)
}

func TestValidator_LastErrorClearedBySuccess(t *testing.T) {
	pinned := generateTestCert(t)
	v := staticValidator(t, pinned)
	assert.NoError(t, v.LastError())

	out := v.Validate(Challenge{Chain: chainOf(generateTestCert(t))})
	require.False(t, out.Accepted())
	assert.ErrorIs(t, v.LastError(), ErrInvalidCertificateFromServer)

	out = v.Validate(Challenge{Chain: chainOf(pinned)})
	require.True(t, out.Accepted())
	assert.NoError(t, v.LastError())
}

func TestValidator_LastErrorOverwritten(t *testing.T) {
	v := staticValidator(t, generateTestCert(t))

	v.Validate(Challenge{})
	assert.ErrorIs(t, v.LastError(), ErrNoCertificatesFromServer)

	v.Validate(Challenge{Chain: chainOf(generateTestCert(t))})
	assert.ErrorIs(t, v.LastError(), ErrInvalidCertificateFromServer)
}

func TestValidator_FileSourceKnownVector(t *testing.T) {
	fixture, err := x509.ParseCertificate(mustReadFixture(t, "rsa2048.der"))
	require.NoError(t, err)

	v := NewValidator(NewFileSource([]string{"testdata/rsa2048.der"}, nil), nil)
	out := v.Validate(Challenge{Chain: chainOf(generateTestCert(t), fixture)})
	assert.True(t, out.Accepted())
}

func TestValidator_Concurrent(t *testing.T) {
	pinned := generateTestCert(t)
	other := generateTestCert(t)
	v := staticValidator(t, pinned)

	const n = 200
	results := make([]Outcome, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cert := other
			if i%2 == 0 {
				cert = pinned
			}
			results[i] = v.Validate(Challenge{Chain: chainOf(cert), Trust: i})
			_ = v.LastError()
		}(i)
	}
	wg.Wait()

	for i, out := range results {
		if i%2 == 0 {
			require.True(t, out.Accepted(), "validation %d", i)
			assert.Equal(t, i, out.Credential.Trust())
		} else {
			require.False(t, out.Accepted(), "validation %d", i)
			assert.ErrorIs(t, out.Err, ErrInvalidCertificateFromServer)
		}
	}

	lastErr := v.LastError()
	if lastErr != nil {
		assert.ErrorIs(t, lastErr, ErrInvalidCertificateFromServer)
	}
}

func TestDisposition_String(t *testing.T) {
	assert.Equal(t, "use-credential", UseCredential.String())
	assert.Equal(t, "cancel", CancelChallenge.String())
}
