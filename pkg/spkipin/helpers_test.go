// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package spkipin

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	// fixtureRSA2048Pin is the fingerprint of testdata/rsa2048.der, computed
	// independently with openssl over the full SubjectPublicKeyInfo.
	fixtureRSA2048Pin = Fingerprint("qL+SwNcwEq7hnTi5Ls6W2ar9Ii23hRBzRIJrQNsN0GA=")

	// fixtureECP256Pin is the fingerprint of testdata/ecp256.der and ecp256.pem.
	fixtureECP256Pin = Fingerprint("eFRmazIaDP60uSwPWT+hfr4jEmGrRSlxpyDjByfvU64=")
)

// generateTestCert creates a self-signed ECDSA P-256 certificate for testing.
func generateTestCert(t *testing.T) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return selfSign(t, key, &key.PublicKey, 1)
}

// generateRSACert creates a self-signed RSA certificate of the given size.
func generateRSACert(t *testing.T, bits int) *x509.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, bits)
	require.NoError(t, err)
	return selfSign(t, key, &key.PublicKey, 1)
}

func selfSign(t *testing.T, signer crypto.Signer, pub crypto.PublicKey, serial int64) *x509.Certificate {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, signer)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func mustHash(t *testing.T, cert *x509.Certificate) Fingerprint {
	t.Helper()
	fp, err := HashCertificate(cert)
	require.NoError(t, err)
	return fp
}

func mustReadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}
