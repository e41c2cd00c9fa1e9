// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-pinhttp/pkg/dane"
)

const (
	// defaultDANEPort is the default TLS port for DANE/TLSA records.
	defaultDANEPort = 443

	// defaultDANEResolveTimeout is the default timeout for DNS resolution.
	defaultDANEResolveTimeout = 10 * time.Second
)

// daneCmd is the parent command for DANE/TLSA operations.
var daneCmd = &cobra.Command{
	Use:   "dane",
	Short: "Publish and discover pins with DANE TLSA records",
	Long: `Tools for distributing public-key pins through DANE TLSA records
(RFC 6698). A "3 1 1" record carries the SHA-256 digest of the server's
SubjectPublicKeyInfo, which is the same value as a pinhttp pin.`,
}

// daneGenerateCmd renders the TLSA record for a certificate.
var daneGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the TLSA record publishing a certificate's pin",
	Long: `Generate a DANE TLSA record (SPKI, SHA-256) from a DER or PEM
certificate file for DNS zone publishing. The usage defaults to DANE-EE (3);
use --usage 2 when pinning an issuing CA key.`,
	RunE: runDANEGenerate,
}

// danePinsCmd discovers pins from TLSA records.
var danePinsCmd = &cobra.Command{
	Use:   "pins",
	Short: "Discover pins from TLSA records",
	Long: `Query _<port>._tcp.<hostname> TLSA records and print the pins carried
by the SPKI SHA-256 records, one per line. The output can be passed to
'pinhttp request --pin'.`,
	RunE: runDANEPins,
}

// daneShowCmd displays TLSA records from DNS.
var daneShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display TLSA records for a domain",
	RunE:  runDANEShow,
}

func init() {
	daneCmd.AddCommand(daneGenerateCmd)
	daneCmd.AddCommand(danePinsCmd)
	daneCmd.AddCommand(daneShowCmd)

	daneGenerateCmd.Flags().String("cert-file", "", "path to DER or PEM certificate file (required)")
	daneGenerateCmd.Flags().String("hostname", "", "hostname for the TLSA record (required)")
	daneGenerateCmd.Flags().Int("port", defaultDANEPort, "port number for the TLSA record")
	daneGenerateCmd.Flags().Uint8("usage", dane.UsageDANEEE, "TLSA certificate usage (0-3)")

	for _, c := range []*cobra.Command{danePinsCmd, daneShowCmd} {
		c.Flags().String("hostname", "", "hostname to query TLSA records for (required)")
		c.Flags().Int("port", defaultDANEPort, "port number for the TLSA record")
		c.Flags().String("dns-server", "", "DNS server address (e.g., 8.8.8.8:53)")
		c.Flags().Bool("dns-over-tls", false, "use DNS-over-TLS (DoT) for TLSA lookups")
		c.Flags().String("dns-tls-server-name", "", "TLS server name for DNS-over-TLS")
		c.Flags().Bool("require-dnssec", false, "require the AD flag in DNS responses")
	}
}

func runDANEGenerate(cmd *cobra.Command, args []string) error {
	certFile, _ := cmd.Flags().GetString("cert-file")
	hostname, _ := cmd.Flags().GetString("hostname")
	port, _ := cmd.Flags().GetInt("port")
	usage, _ := cmd.Flags().GetUint8("usage")

	if certFile == "" {
		return fmt.Errorf("%w: --cert-file is required", ErrInvalidInput)
	}
	if hostname == "" {
		return fmt.Errorf("%w: --hostname is required", ErrInvalidInput)
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: invalid --port %d", ErrInvalidInput, port)
	}

	cert, err := loadCertificate(certFile)
	if err != nil {
		return err
	}

	slog.Debug("generating TLSA record", "cert_file", certFile, "hostname", hostname, "port", port, "usage", usage)

	rec, err := dane.GenerateTLSARecordWithUsage(cert, hostname, uint16(port), usage)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if format == formatJSON {
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return writeOutput(append(data, '\n'))
	}
	return writeOutput([]byte(rec.ZoneLine + "\n"))
}

func runDANEPins(cmd *cobra.Command, args []string) error {
	resolver, hostname, port, err := resolverFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := lookupContext()
	defer cancel()

	pins, err := resolver.LookupPins(ctx, hostname, port)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	slog.Info("discovered pins", "hostname", hostname, "port", port, "count", len(pins))

	if format == formatJSON {
		data, err := json.Marshal(pins)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLookupFailed, err)
		}
		return writeOutput(append(data, '\n'))
	}

	var b bytes.Buffer
	for _, pin := range pins {
		b.WriteString(pin)
		b.WriteByte('\n')
	}
	return writeOutput(b.Bytes())
}

func runDANEShow(cmd *cobra.Command, args []string) error {
	resolver, hostname, port, err := resolverFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := lookupContext()
	defer cancel()

	records, err := resolver.LookupTLSA(ctx, hostname, port)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "TLSA records for _%d._tcp.%s:\n\n", port, hostname)
	for i, rec := range records {
		fmt.Fprintf(&b, "Record %d:\n", i+1)
		fmt.Fprintf(&b, "  Usage:        %d (%s)\n", rec.Usage, tlsaUsageName(rec.Usage))
		fmt.Fprintf(&b, "  Selector:     %d (%s)\n", rec.Selector, tlsaSelectorName(rec.Selector))
		fmt.Fprintf(&b, "  MatchingType: %d (%s)\n", rec.MatchingType, tlsaMatchingName(rec.MatchingType))
		fmt.Fprintf(&b, "  Data:         %s\n\n", hex.EncodeToString(rec.CertData))
	}
	fmt.Fprintf(&b, "Total: %d record(s)\n", len(records))
	return writeOutput(b.Bytes())
}

// resolverFromFlags builds a resolver from the shared lookup flags.
func resolverFromFlags(cmd *cobra.Command) (*dane.Resolver, string, uint16, error) {
	hostname, _ := cmd.Flags().GetString("hostname")
	port, _ := cmd.Flags().GetInt("port")
	dnsServer, _ := cmd.Flags().GetString("dns-server")
	dnsOverTLS, _ := cmd.Flags().GetBool("dns-over-tls")
	dnsTLSServerName, _ := cmd.Flags().GetString("dns-tls-server-name")
	requireDNSSEC, _ := cmd.Flags().GetBool("require-dnssec")

	if hostname == "" {
		return nil, "", 0, fmt.Errorf("%w: --hostname is required", ErrInvalidInput)
	}
	if port <= 0 || port > 65535 {
		return nil, "", 0, fmt.Errorf("%w: invalid --port %d", ErrInvalidInput, port)
	}

	resolver, err := dane.NewResolver(&dane.ResolverConfig{
		Server:        dnsServer,
		UseTLS:        dnsOverTLS,
		TLSServerName: dnsTLSServerName,
		RequireAD:     requireDNSSEC,
	})
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: resolver: %w", ErrLookupFailed, err)
	}

	slog.Debug("querying TLSA records", "hostname", hostname, "port", port, "dns_server", dnsServer)
	return resolver, hostname, uint16(port), nil
}

func lookupContext() (context.Context, context.CancelFunc) {
	sigCtx, sigStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(sigCtx, defaultDANEResolveTimeout)
	return ctx, func() {
		cancel()
		sigStop()
	}
}

// usageNames provides O(1) lookup for TLSA usage field descriptions.
var usageNames = map[uint8]string{
	dane.UsageCAConstraint: "PKIX-TA",
	dane.UsageServiceCert:  "PKIX-EE",
	dane.UsageDANETA:       "DANE-TA",
	dane.UsageDANEEE:       "DANE-EE",
}

// selectorNames provides O(1) lookup for TLSA selector field descriptions.
var selectorNames = map[uint8]string{
	dane.SelectorFullCert: "Full Certificate",
	dane.SelectorSPKI:     "SubjectPublicKeyInfo",
}

// matchingNames provides O(1) lookup for TLSA matching type field descriptions.
var matchingNames = map[uint8]string{
	dane.MatchingExact:  "Exact Match",
	dane.MatchingSHA256: "SHA-256",
	dane.MatchingSHA512: "SHA-512",
}

func tlsaUsageName(usage uint8) string {
	if name, ok := usageNames[usage]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", usage)
}

func tlsaSelectorName(selector uint8) string {
	if name, ok := selectorNames[selector]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", selector)
}

func tlsaMatchingName(matchingType uint8) string {
	if name, ok := matchingNames[matchingType]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", matchingType)
}
