// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package spkipin

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestTLSServer creates a TLS test server and returns it together with a
// client TLS config that trusts its certificate through standard verification.
func startTestTLSServer(t *testing.T) (*httptest.Server, *tls.Config) {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pinned"))
	}))
	t.Cleanup(server.Close)

	pool := x509.NewCertPool()
	pool.AddCert(server.Certificate())
	return server, &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
}

func clientFor(cfg *tls.Config) *http.Client {
	return &http.Client{Transport: &http.Transport{TLSClientConfig: cfg}}
}

func TestHook_Handle(t *testing.T) {
	pinned := generateTestCert(t)
	hook := NewHook(staticValidator(t, pinned))

	disposition, cred := hook.Handle(Challenge{Chain: chainOf(pinned), Trust: "token"})
	assert.Equal(t, UseCredential, disposition)
	require.NotNil(t, cred)
	assert.Equal(t, "token", cred.Trust())

	disposition, cred = hook.Handle(Challenge{Chain: chainOf(generateTestCert(t)), Trust: "token"})
	assert.Equal(t, CancelChallenge, disposition)
	assert.Nil(t, cred)
	assert.ErrorIs(t, hook.Validator().LastError(), ErrInvalidCertificateFromServer)
}

func TestHook_VerifyConnection(t *testing.T) {
	pinned := generateTestCert(t)
	hook := NewHook(staticValidator(t, pinned))

	err := hook.VerifyConnection(tls.ConnectionState{PeerCertificates: []*x509.Certificate{pinned}})
	assert.NoError(t, err)

	err = hook.VerifyConnection(tls.ConnectionState{PeerCertificates: []*x509.Certificate{generateTestCert(t)}})
	assert.ErrorIs(t, err, ErrInvalidCertificateFromServer)

	err = hook.VerifyConnection(tls.ConnectionState{})
	assert.ErrorIs(t, err, ErrNoCertificatesFromServer)
}

func TestHook_DecisionMatchesValidation(t *testing.T) {
	pinned := generateTestCert(t)
	other := generateTestCert(t)

	tests := map[string]struct {
		hook    *Hook
		chain   [][]byte
		wantErr error
	}{
		"match":    {NewHook(staticValidator(t, pinned)), chainOf(other, pinned), nil},
		"mismatch": {NewHook(staticValidator(t, pinned)), chainOf(other), ErrInvalidCertificateFromServer},
		"empty":    {NewHook(staticValidator(t, pinned)), nil, ErrNoCertificatesFromServer},
		"no pins":  {NewHook(NewValidator(nil, nil)), chainOf(pinned), ErrNoConfiguredPins},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cs := tls.ConnectionState{}
			disposition, cred := tt.hook.Handle(Challenge{Chain: tt.chain, Trust: cs})

			var certs []*x509.Certificate
			for _, der := range tt.chain {
				cert, err := x509.ParseCertificate(der)
				require.NoError(t, err)
				certs = append(certs, cert)
			}
			verifyErr := tt.hook.VerifyConnection(tls.ConnectionState{PeerCertificates: certs})

			if tt.wantErr == nil {
				assert.Equal(t, UseCredential, disposition)
				require.NotNil(t, cred)
				assert.Equal(t, cs, cred.Trust())
				assert.NoError(t, verifyErr)
				return
			}
			assert.Equal(t, CancelChallenge, disposition)
			assert.Nil(t, cred)
			assert.ErrorIs(t, verifyErr, tt.wantErr)
			assert.ErrorIs(t, tt.hook.Validator().LastError(), tt.wantErr)
		})
	}
}

func TestHook_TLSConfig_PinnedServer(t *testing.T) {
	server, base := startTestTLSServer(t)
	hook := NewHook(staticValidator(t, server.Certificate()))

	cfg := hook.TLSConfig(base)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.NotNil(t, cfg.VerifyConnection)
	assert.Nil(t, base.VerifyConnection, "base config must not be modified")

	resp, err := clientFor(cfg).Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, hook.Validator().LastError())
}

func TestHook_TLSConfig_WrongPin(t *testing.T) {
	server, base := startTestTLSServer(t)
	hook := NewHook(staticValidator(t, generateTestCert(t)))

	_, err := clientFor(hook.TLSConfig(base)).Get(server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, hook.Validator().LastError(), ErrInvalidCertificateFromServer)
}

func TestHook_TLSConfig_NoPins(t *testing.T) {
	server, base := startTestTLSServer(t)
	hook := NewHook(NewValidator(NewStaticSource(nil), nil))

	_, err := clientFor(hook.TLSConfig(base)).Get(server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, hook.Validator().LastError(), ErrNoConfiguredPins)
}

func TestHook_TLSConfig_StandardVerificationStillApplies(t *testing.T) {
	server, _ := startTestTLSServer(t)
	hook := NewHook(staticValidator(t, server.Certificate()))

	// Without the test CA in RootCAs the standard chain check fails before
	// the pin is ever consulted.
	_, err := clientFor(hook.TLSConfig(nil)).Get(server.URL)
	require.Error(t, err)
	assert.NoError(t, hook.Validator().LastError())
}

func TestHook_TLSConfig_ChainsExistingCallback(t *testing.T) {
	server, base := startTestTLSServer(t)
	errVeto := errors.New("vetoed")
	base.VerifyConnection = func(tls.ConnectionState) error { return errVeto }

	hook := NewHook(staticValidator(t, server.Certificate()))
	_, err := clientFor(hook.TLSConfig(base)).Get(server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errVeto)
}

func TestHook_TLSConfig_NilBase(t *testing.T) {
	cfg := NewHook(NewValidator(nil, nil)).TLSConfig(nil)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.NotNil(t, cfg.VerifyConnection)
}
