// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Method is an HTTP method supported by Request.
type Method string

const (
	MethodDelete Method = http.MethodDelete
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
)

// hasBody reports whether parameters travel in a JSON body rather than the query.
func (m Method) hasBody() bool {
	return m == MethodPost || m == MethodPut
}

// Request describes an API call. For GET and DELETE, Parameters are encoded
// into the query string; for POST and PUT they are sent as a JSON object.
type Request struct {
	BaseURL    string
	Headers    map[string]string
	Method     Method
	Parameters map[string]any
}

// FinalURL returns the URL the request is sent to. Query parameters already
// present on BaseURL are kept; Parameters override keys with the same name.
func (r *Request) FinalURL() (string, error) {
	u, err := url.Parse(r.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if r.Method.hasBody() || len(r.Parameters) == 0 {
		return u.String(), nil
	}

	q := u.Query()
	for key, value := range r.Parameters {
		q.Set(key, queryValue(value))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Body returns the JSON body for POST and PUT requests (keys sorted), and
// nil for other methods.
func (r *Request) Body() ([]byte, error) {
	if !r.Method.hasBody() {
		return nil, nil
	}
	params := r.Parameters
	if params == nil {
		params = map[string]any{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("%w: encode parameters: %w", ErrInvalidRequest, err)
	}
	return data, nil
}

// String returns a compact description suitable for debug logging.
func (r *Request) String() string {
	keys := make([]string, 0, len(r.Parameters))
	for k := range r.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	final, _ := r.FinalURL()
	return fmt.Sprintf("%s %s (headers=%d, parameters=[%s])",
		r.Method, final, len(r.Headers), strings.Join(keys, ","))
}

// httpRequest builds the *http.Request for r.
func (r *Request) httpRequest(ctx context.Context) (*http.Request, error) {
	switch r.Method {
	case MethodDelete, MethodGet, MethodPost, MethodPut:
	default:
		return nil, fmt.Errorf("%w: unsupported method %q", ErrInvalidRequest, r.Method)
	}

	final, err := r.FinalURL()
	if err != nil {
		return nil, err
	}
	body, err := r.Body()
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, string(r.Method), final, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Cache-Control") == "" {
		req.Header.Set("Cache-Control", "no-cache")
	}
	return req, nil
}

func queryValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
