// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-pinhttp/pkg/apiclient"
	"github.com/jeremyhahn/go-pinhttp/pkg/dane"
)

// requestCmd performs one HTTP request over pinned TLS.
var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Perform an HTTP request with public-key pinning",
	Long: `Perform an HTTP request and print the response body.

Pins come from --pin (base64 key hashes), --pin-file (certificate files),
a --config file, or --dane (TLSA records of the target host). Key hashes
and certificate files cannot be combined. Without any pin the request
relies on standard certificate verification alone.

--data is a JSON object: sent as the body for POST and PUT, encoded into
the query string for GET and DELETE.`,
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().String("url", "", "request URL (required)")
	requestCmd.Flags().String("method", "GET", "HTTP method (GET|POST|PUT|DELETE)")
	requestCmd.Flags().StringArray("pin", nil, "base64 SHA-256 public-key pin (repeatable)")
	requestCmd.Flags().StringArray("pin-file", nil, "certificate file whose key is pinned (repeatable)")
	requestCmd.Flags().String("config", "", "YAML config file with pins, pin_files, headers")
	requestCmd.Flags().String("data", "", "request parameters as a JSON object")
	requestCmd.Flags().StringArray("header", nil, "request header as Name=Value (repeatable)")
	requestCmd.Flags().Bool("validate-status", false, "fail unless the response status is valid")
	requestCmd.Flags().IntSlice("status", nil, "valid status codes (default 200-299)")
	requestCmd.Flags().Duration("timeout", apiclient.DefaultTimeout, "request timeout")
	requestCmd.Flags().String("ca-file", "", "PEM file of root CAs used instead of the system pool")
	requestCmd.Flags().Bool("dane", false, "add pins discovered from TLSA records of the target (not with --pin-file)")
	requestCmd.Flags().String("dns-server", "", "DNS server for --dane (e.g., 8.8.8.8:53)")
	requestCmd.Flags().Bool("require-dnssec", false, "require DNSSEC-validated TLSA answers for --dane")
}

// responseOutput is the JSON rendering of a response.
type responseOutput struct {
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body"`
}

func runRequest(cmd *cobra.Command, args []string) error {
	rawURL, _ := cmd.Flags().GetString("url")
	method, _ := cmd.Flags().GetString("method")
	pins, _ := cmd.Flags().GetStringArray("pin")
	pinFiles, _ := cmd.Flags().GetStringArray("pin-file")
	configFile, _ := cmd.Flags().GetString("config")
	data, _ := cmd.Flags().GetString("data")
	headerFlags, _ := cmd.Flags().GetStringArray("header")
	validateStatus, _ := cmd.Flags().GetBool("validate-status")
	statusCodes, _ := cmd.Flags().GetIntSlice("status")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	caFile, _ := cmd.Flags().GetString("ca-file")
	useDANE, _ := cmd.Flags().GetBool("dane")
	dnsServer, _ := cmd.Flags().GetString("dns-server")
	requireDNSSEC, _ := cmd.Flags().GetBool("require-dnssec")

	if rawURL == "" {
		return fmt.Errorf("%w: --url is required", ErrInvalidInput)
	}
	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" {
		return fmt.Errorf("%w: invalid --url %q", ErrInvalidInput, rawURL)
	}

	m, err := parseMethod(method)
	if err != nil {
		return err
	}
	params, err := parseData(data)
	if err != nil {
		return err
	}

	headers := map[string]string{}
	if configFile != "" {
		fc, err := loadConfigFile(configFile)
		if err != nil {
			return err
		}
		pins = append(pins, fc.Pins...)
		pinFiles = append(pinFiles, fc.PinFiles...)
		if len(statusCodes) == 0 {
			statusCodes = fc.ValidStatusCodes
		}
		if !cmd.Flags().Changed("timeout") && fc.Timeout > 0 {
			timeout = fc.Timeout
		}
		for k, v := range fc.Headers {
			headers[k] = v
		}
	}
	flagHeaders, err := parseHeaders(headerFlags)
	if err != nil {
		return err
	}
	for k, v := range flagHeaders {
		headers[k] = v
	}

	sigCtx, sigStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer sigStop()

	if useDANE {
		if len(pinFiles) > 0 {
			return fmt.Errorf("%w: --dane discovers key hashes and cannot be combined with certificate pin files", ErrInvalidInput)
		}
		discovered, err := discoverPins(sigCtx, target, dnsServer, requireDNSSEC)
		if err != nil {
			return err
		}
		pins = append(pins, discovered...)
	}

	pinning, err := pinningFrom(pins, pinFiles)
	if err != nil {
		return err
	}

	cfg := &apiclient.Config{
		Pinning:          pinning,
		ValidStatusCodes: statusCodes,
		Timeout:          timeout,
		Logger:           slog.Default(),
	}
	if caFile != "" {
		pool, err := loadCertPool(caFile)
		if err != nil {
			return err
		}
		cfg.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, RootCAs: pool}
	}

	client, err := apiclient.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	defer client.Close()

	req := &apiclient.Request{
		BaseURL:    rawURL,
		Headers:    headers,
		Method:     m,
		Parameters: params,
	}

	slog.Debug("sending request", "request", req.String(), "pinning", pinning.Mode)

	resp, err := client.Perform(sigCtx, req, validateStatus)
	if err != nil {
		if apiclient.IsPinningError(err) {
			slog.Error("server rejected by certificate pinning", "url", rawURL, "reason", client.LastError())
			return fmt.Errorf("%w: %w", ErrPinningFailed, err)
		}
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	slog.Info("received response", "status", resp.StatusCode, "bytes", len(resp.Body))

	if format == formatJSON {
		out, err := json.MarshalIndent(responseOutput{
			Status:  resp.StatusCode,
			Headers: resp.Header,
			Body:    string(resp.Body),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRequestFailed, err)
		}
		return writeOutput(append(out, '\n'))
	}
	return writeOutput(resp.Body)
}

func parseMethod(method string) (apiclient.Method, error) {
	m := apiclient.Method(strings.ToUpper(strings.TrimSpace(method)))
	switch m {
	case apiclient.MethodGet, apiclient.MethodPost, apiclient.MethodPut, apiclient.MethodDelete:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unsupported method %q", ErrInvalidInput, method)
	}
}

func parseData(data string) (map[string]any, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(data), &params); err != nil {
		return nil, fmt.Errorf("%w: --data must be a JSON object: %w", ErrInvalidInput, err)
	}
	return params, nil
}

func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: header %q is not Name=Value", ErrInvalidInput, v)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// discoverPins looks up the TLSA pins published for the host and port of target.
func discoverPins(ctx context.Context, target *url.URL, dnsServer string, requireDNSSEC bool) ([]string, error) {
	port := uint16(443)
	if p := target.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid port %q", ErrInvalidInput, p)
		}
		port = uint16(n)
	}
	host := target.Hostname()
	if net.ParseIP(host) != nil {
		return nil, fmt.Errorf("%w: --dane needs a hostname, not an IP address", ErrInvalidInput)
	}

	resolver, err := dane.NewResolver(&dane.ResolverConfig{Server: dnsServer, RequireAD: requireDNSSEC})
	if err != nil {
		return nil, fmt.Errorf("%w: resolver: %w", ErrLookupFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultDANEResolveTimeout)
	defer cancel()

	pins, err := resolver.LookupPins(ctx, host, port)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	slog.Info("discovered pins from TLSA records", "hostname", host, "port", port, "count", len(pins))
	return pins, nil
}

