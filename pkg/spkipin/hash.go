// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package spkipin

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// RSA2048Header is the DER prefix that turns a bare PKCS#1 RSA-2048 public
// key into a SubjectPublicKeyInfo: SEQUENCE, rsaEncryption AlgorithmIdentifier
// with NULL parameters, and the BIT STRING header. Pins handed out for
// RSA-2048 keys are computed over this prefix followed by the PKCS#1 key.
var RSA2048Header = [24]byte{
	0x30, 0x82, 0x01, 0x22, 0x30, 0x0d, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86,
	0xf7, 0x0d, 0x01, 0x01, 0x01, 0x05, 0x00, 0x03, 0x82, 0x01, 0x0f, 0x00,
}

// Fingerprint is the base64 (standard alphabet, padded) SHA-256 digest of a
// public key. Two fingerprints are equal iff the keys are bit-identical.
type Fingerprint string

// String returns the base64 form of the fingerprint.
func (f Fingerprint) String() string {
	return string(f)
}

// HashCertificate computes the pin fingerprint of a certificate's public key.
//
// RSA-2048 keys are hashed as RSA2048Header followed by the PKCS#1 key bytes.
// Every other key type is hashed over its full DER SubjectPublicKeyInfo,
// which x509 already exposes without any prefix reconstruction.
func HashCertificate(cert *x509.Certificate) (Fingerprint, error) {
	if cert == nil || cert.PublicKey == nil {
		return "", ErrPublicKeyExtractionFailed
	}

	keyBits, err := publicKeyBits(cert.RawSubjectPublicKeyInfo)
	if err != nil {
		return "", err
	}

	var sum [sha256.Size]byte
	if pub, ok := cert.PublicKey.(*rsa.PublicKey); ok && pub.N.BitLen() == 2048 {
		h := sha256.New()
		h.Write(RSA2048Header[:])
		h.Write(keyBits)
		copy(sum[:], h.Sum(nil))
	} else {
		sum = sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	}

	return Fingerprint(base64.StdEncoding.EncodeToString(sum[:])), nil
}

// HashDER parses a DER-encoded certificate and computes its fingerprint.
func HashDER(der []byte) (Fingerprint, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCertificateDecodingFailed, err)
	}
	return HashCertificate(cert)
}

// publicKeyBits returns the contents of the subjectPublicKey BIT STRING of a
// DER SubjectPublicKeyInfo. For RSA this is the PKCS#1 RSAPublicKey.
func publicKeyBits(spki []byte) ([]byte, error) {
	if len(spki) == 0 {
		return nil, ErrPublicKeyRepresentationUnavailable
	}

	input := cryptobyte.String(spki)
	var info, algorithm cryptobyte.String
	var bits []byte
	if !input.ReadASN1(&info, cryptobyte_asn1.SEQUENCE) || !input.Empty() ||
		!info.ReadASN1(&algorithm, cryptobyte_asn1.SEQUENCE) ||
		!info.ReadASN1BitStringAsBytes(&bits) || !info.Empty() {
		return nil, ErrPublicKeyRepresentationUnavailable
	}
	if len(bits) == 0 {
		return nil, ErrPublicKeyRepresentationUnavailable
	}
	return bits, nil
}
