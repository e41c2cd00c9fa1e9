// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jeremyhahn/go-pinhttp/pkg/spkipin"
)

// MaxResponseSize is the maximum response body size read by the client (10 MB).
const MaxResponseSize = 10 << 20

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs API requests, optionally over public-key pinned TLS.
type Client struct {
	config      *Config
	httpClient  *http.Client
	hook        *spkipin.Hook
	validStatus map[int]struct{}
	logger      *slog.Logger
}

// NewClient creates a new Client. When pinning is enabled the pin source is
// built immediately, so certificate files are read here and not on the
// request path.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if len(cfg.ValidStatusCodes) == 0 {
		cfg.ValidStatusCodes = DefaultValidStatusCodes()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "apiclient")

	source, err := cfg.Pinning.source(cfg.Logger)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = cfg.TLSConfig

	var hook *spkipin.Hook
	if source != nil {
		if source.Fingerprints().Len() == 0 {
			logger.Warn("pinning enabled without any usable pins; all TLS connections will be rejected",
				"mode", cfg.Pinning.Mode)
		}
		hook = spkipin.NewHook(spkipin.NewValidator(source, cfg.Logger))
		transport.TLSClientConfig = hook.TLSConfig(cfg.TLSConfig)
	}

	validStatus := make(map[int]struct{}, len(cfg.ValidStatusCodes))
	for _, code := range cfg.ValidStatusCodes {
		validStatus[code] = struct{}{}
	}

	logger.Debug("client created", "pinning", cfg.Pinning.Mode, "timeout", cfg.Timeout)

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		hook:        hook,
		validStatus: validStatus,
		logger:      logger,
	}, nil
}

// Pinned reports whether the pinning hook is installed.
func (c *Client) Pinned() bool {
	return c.hook != nil
}

// LastError returns the most recent pinning failure, or nil when the last
// validation succeeded or pinning is disabled.
func (c *Client) LastError() error {
	if c.hook == nil {
		return nil
	}
	return c.hook.Validator().LastError()
}

// Perform sends req and reads the whole response. When validateStatus is
// true a status outside the client's valid set yields a *StatusError. A
// transport failure yields a *TransportError; when the handshake was aborted
// by pinning it also carries the validator's recorded reason.
func (c *Client) Perform(ctx context.Context, req *Request, validateStatus bool) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}

	httpReq, err := req.httpRequest(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("performing request", "request", req.String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		terr := &TransportError{PinningErr: c.pinningCause(err), Err: err}
		c.logger.Debug("request failed", "url", httpReq.URL.String(), "error", terr)
		return nil, terr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	if validateStatus {
		if _, ok := c.validStatus[resp.StatusCode]; !ok {
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
		}
	}

	c.logger.Debug("request completed", "status", resp.StatusCode, "size", len(body))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// pinningErrors are the rejections the pinning hook aborts a handshake with.
var pinningErrors = []error{
	spkipin.ErrNoCertificatesFromServer,
	spkipin.ErrNoConfiguredPins,
	spkipin.ErrInvalidCertificateFromServer,
}

// pinningCause returns the pinning failure behind a transport error, or nil
// when the request failed before or outside pin validation. The validator's
// LastError only changes on the next handshake, so it is reported only when
// the handshake error itself carries a pinning rejection.
func (c *Client) pinningCause(err error) error {
	if c.hook == nil {
		return nil
	}
	for _, pinErr := range pinningErrors {
		if errors.Is(err, pinErr) {
			if last := c.LastError(); last != nil {
				return last
			}
			return pinErr
		}
	}
	return nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// IsPinningError reports whether err was caused by a pinning rejection.
func IsPinningError(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr) && terr.PinningErr != nil
}
