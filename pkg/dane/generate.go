// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/jeremyhahn/go-pinhttp/pkg/spkipin"
)

// GenerateTLSARecord generates a DANE-EE (3) SPKI (1) SHA-256 (1) record that
// publishes the pin of cert for hostname:port.
func GenerateTLSARecord(cert *x509.Certificate, hostname string, port uint16) (*TLSARecordString, error) {
	return GenerateTLSARecordWithUsage(cert, hostname, port, UsageDANEEE)
}

// GenerateTLSARecordWithUsage is GenerateTLSARecord with an explicit
// certificate usage, e.g. UsageDANETA when pinning an issuing CA key.
func GenerateTLSARecordWithUsage(cert *x509.Certificate, hostname string, port uint16, usage uint8) (*TLSARecordString, error) {
	if cert == nil {
		return nil, ErrInvalidCertificate
	}
	if hostname == "" {
		return nil, ErrInvalidHostname
	}
	if port == 0 {
		return nil, ErrInvalidPort
	}
	if usage > UsageDANEEE {
		return nil, fmt.Errorf("%w: %d", ErrInvalidUsage, usage)
	}

	fp, err := spkipin.HashCertificate(cert)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCertificate, err)
	}

	// Selector SPKI / SHA-256 is defined over the DER SubjectPublicKeyInfo.
	// The pin only equals that digest when the key's SPKI matches the pin
	// encoding (always true except RSA-2048 keys with an unusual exponent).
	digest := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	if base64.StdEncoding.EncodeToString(digest[:]) != fp.String() {
		return nil, fmt.Errorf("%w: key pin is not the SHA-256 of its SubjectPublicKeyInfo", ErrInvalidCertificate)
	}

	name := formatTLSAName(hostname, port)
	hexData := hex.EncodeToString(digest[:])

	rr := &dns.TLSA{
		Hdr: dns.RR_Header{
			Name:   name,
			Rrtype: dns.TypeTLSA,
			Class:  dns.ClassINET,
			Ttl:    DefaultTTL,
		},
		Usage:        usage,
		Selector:     SelectorSPKI,
		MatchingType: MatchingSHA256,
		Certificate:  hexData,
	}

	return &TLSARecordString{
		Name:         name,
		Usage:        usage,
		Selector:     SelectorSPKI,
		MatchingType: MatchingSHA256,
		HexData:      hexData,
		Pin:          fp.String(),
		ZoneLine:     rr.String(),
	}, nil
}

// PinsFromRecords converts the SPKI SHA-256 records among records into
// base64 pins, in record order and without duplicates. Other selector and
// matching type combinations cannot be expressed as pins and are ignored.
func PinsFromRecords(records []*TLSARecord) []string {
	seen := make(map[string]struct{}, len(records))
	pins := make([]string, 0, len(records))
	for _, rec := range records {
		if rec == nil || rec.Selector != SelectorSPKI || rec.MatchingType != MatchingSHA256 {
			continue
		}
		if len(rec.CertData) != sha256.Size {
			continue
		}
		pin := base64.StdEncoding.EncodeToString(rec.CertData)
		if _, ok := seen[pin]; ok {
			continue
		}
		seen[pin] = struct{}{}
		pins = append(pins, pin)
	}
	return pins
}

// formatTLSAName constructs the DNS owner name for a TLSA query per RFC 6698:
// "_<port>._tcp.<hostname>." with a trailing dot.
func formatTLSAName(hostname string, port uint16) string {
	if !strings.HasSuffix(hostname, ".") {
		hostname += "."
	}
	return fmt.Sprintf("_%d._tcp.%s", port, hostname)
}
