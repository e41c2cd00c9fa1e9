// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package apiclient

import (
	"context"
	"encoding/json"
)

// Get performs a GET with status validation and decodes the JSON response.
func Get[T any](ctx context.Context, c *Client, url string) (T, error) {
	return do[T](ctx, c, &Request{BaseURL: url, Method: MethodGet})
}

// Delete performs a DELETE with status validation and decodes the JSON response.
func Delete[T any](ctx context.Context, c *Client, url string) (T, error) {
	return do[T](ctx, c, &Request{BaseURL: url, Method: MethodDelete})
}

// Post sends parameters as a JSON body with status validation and decodes
// the JSON response.
func Post[T any](ctx context.Context, c *Client, url string, parameters map[string]any) (T, error) {
	return do[T](ctx, c, &Request{BaseURL: url, Method: MethodPost, Parameters: parameters})
}

// Put sends parameters as a JSON body with status validation and decodes
// the JSON response.
func Put[T any](ctx context.Context, c *Client, url string, parameters map[string]any) (T, error) {
	return do[T](ctx, c, &Request{BaseURL: url, Method: MethodPut, Parameters: parameters})
}

func do[T any](ctx context.Context, c *Client, req *Request) (T, error) {
	var out T
	resp, err := c.Perform(ctx, req, true)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, &DecodeError{Body: resp.Body, Err: err}
	}
	return out, nil
}
