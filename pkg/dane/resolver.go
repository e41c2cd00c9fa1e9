// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	defaultTimeout = 5 * time.Second
	defaultDNSPort = "53"
	defaultDoTPort = "853"

	// resolvConfPath is where the system nameservers are read from when no
	// server is configured.
	resolvConfPath = "/etc/resolv.conf"
)

// Resolver looks up TLSA records to discover the pins published for a
// service, with optional DNSSEC (AD flag) enforcement and DNS-over-TLS.
type Resolver struct {
	requireAD bool
	client    *dns.Client
	server    string
}

// NewResolver creates a resolver. An empty Server falls back to the first
// nameserver in /etc/resolv.conf; the timeout defaults to 5 seconds.
func NewResolver(cfg *ResolverConfig) (*Resolver, error) {
	if cfg == nil {
		return nil, ErrResolverConfig
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &dns.Client{Net: "udp", Timeout: timeout}
	port := defaultDNSPort
	if cfg.UseTLS {
		client.Net = "tcp-tls"
		client.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cfg.TLSServerName,
		}
		port = defaultDoTPort
	}

	server := cfg.Server
	if server == "" {
		var err error
		if server, err = systemNameserver(); err != nil {
			return nil, err
		}
	} else if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, port)
	}

	return &Resolver{
		requireAD: cfg.RequireAD,
		client:    client,
		server:    server,
	}, nil
}

func systemNameserver() (string, error) {
	conf, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolverConfig, err)
	}
	if len(conf.Servers) == 0 {
		return "", fmt.Errorf("%w: no nameservers in %s", ErrResolverConfig, resolvConfPath)
	}
	port := conf.Port
	if port == "" {
		port = defaultDNSPort
	}
	return net.JoinHostPort(conf.Servers[0], port), nil
}

// LookupTLSA queries "_<port>._tcp.<hostname>." for TLSA records. Records
// whose association data is not valid hex are dropped.
func (r *Resolver) LookupTLSA(ctx context.Context, hostname string, port uint16) ([]*TLSARecord, error) {
	if hostname == "" || len(hostname) > 253 || strings.ContainsRune(hostname, 0) {
		return nil, ErrInvalidHostname
	}
	if port == 0 {
		return nil, ErrInvalidPort
	}

	msg := new(dns.Msg)
	msg.SetQuestion(formatTLSAName(hostname, port), dns.TypeTLSA)
	msg.SetEdns0(4096, true)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDNSLookupFailed, err)
	}
	if resp == nil {
		return nil, ErrDNSLookupFailed
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: rcode %s", ErrDNSLookupFailed, dns.RcodeToString[resp.Rcode])
	}
	if r.requireAD && !resp.AuthenticatedData {
		return nil, ErrDNSSECRequired
	}

	records := make([]*TLSARecord, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		tlsa, ok := rr.(*dns.TLSA)
		if !ok {
			continue
		}
		data, err := hex.DecodeString(tlsa.Certificate)
		if err != nil {
			continue
		}
		records = append(records, &TLSARecord{
			Usage:        tlsa.Usage,
			Selector:     tlsa.Selector,
			MatchingType: tlsa.MatchingType,
			CertData:     data,
		})
	}
	if len(records) == 0 {
		return nil, ErrNoTLSARecords
	}
	return records, nil
}

// LookupPins resolves the TLSA records for hostname:port and returns the
// base64 pins carried by its SPKI SHA-256 records. Pins obtained without
// RequireAD are only as trustworthy as the path to the resolver.
func (r *Resolver) LookupPins(ctx context.Context, hostname string, port uint16) ([]string, error) {
	records, err := r.LookupTLSA(ctx, hostname, port)
	if err != nil {
		return nil, err
	}
	pins := PinsFromRecords(records)
	if len(pins) == 0 {
		return nil, fmt.Errorf("%w: %d record(s) for %s", ErrNoPinRecords, len(records), formatTLSAName(hostname, port))
	}
	return pins, nil
}
