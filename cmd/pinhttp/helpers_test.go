// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-pinhttp/pkg/spkipin"
)

// newTestCert creates a self-signed ECDSA P-256 certificate.
func newTestCert(t *testing.T, cn string) *x509.Certificate {
	t.Helper()
	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn, Organization: []string{"Test"}},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &privKey.PublicKey, privKey)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(certDER)
	require.NoError(t, err)
	return cert
}

// writePEM writes certs as a PEM bundle and returns the path.
func writePEM(t *testing.T, name string, certs ...*x509.Certificate) string {
	t.Helper()
	var data []byte
	for _, c := range certs {
		data = append(data, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})...)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// writeDER writes cert in DER form and returns the path.
func writeDER(t *testing.T, name string, cert *x509.Certificate) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, cert.Raw, 0644))
	return path
}

func createTestCertFile(t *testing.T) string {
	t.Helper()
	return writePEM(t, "test.pem", newTestCert(t, "Test CA"))
}

func pinOf(t *testing.T, cert *x509.Certificate) string {
	t.Helper()
	fp, err := spkipin.HashCertificate(cert)
	require.NoError(t, err)
	return fp.String()
}

// testServer is an HTTPS server whose certificate is written to caFile.
type testServer struct {
	*httptest.Server
	caFile string
	pin    string
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"method": r.Method,
			"query":  r.URL.RawQuery,
			"auth":   r.Header.Get("Authorization"),
		})
	}))
	t.Cleanup(srv.Close)

	return &testServer{
		Server: srv,
		caFile: writePEM(t, "ca.pem", srv.Certificate()),
		pin:    pinOf(t, srv.Certificate()),
	}
}

// captureOutput points --output at a temp file for the duration of the test.
func captureOutput(t *testing.T) func() string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out")
	oldOutput, oldFormat := outputFile, format
	outputFile = path
	t.Cleanup(func() {
		outputFile = oldOutput
		format = oldFormat
	})
	return func() string {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(data)
	}
}

// resetFlags restores every local flag of cmd to its default.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			require.NoError(t, sv.Replace(nil))
		} else {
			require.NoError(t, f.Value.Set(f.DefValue))
		}
		f.Changed = false
	})
}
