// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-pinhttp/pkg/apiclient"
)

// fileConfig is the YAML document accepted by --config.
//
//	pins:
//	  - "qL+SwNcwEq7hnTi5Ls6W2ar9Ii23hRBzRIJrQNsN0GA="
//	pin_files:
//	  - certs/api.der
//	valid_status_codes: [200, 201, 204]
//	timeout: 10s
//	headers:
//	  Authorization: Bearer token
//
// Relative pin_files are resolved against the directory of the config file.
type fileConfig struct {
	Pins             []string          `yaml:"pins"`
	PinFiles         []string          `yaml:"pin_files"`
	ValidStatusCodes []int             `yaml:"valid_status_codes"`
	Timeout          time.Duration     `yaml:"timeout"`
	Headers          map[string]string `yaml:"headers"`
}

// loadConfigFile reads and strictly decodes a YAML config file. Unknown keys
// are rejected so that a misspelled "pins" does not silently disable pinning.
func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrFileOperation, path, err)
	}

	cfg := &fileConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrInvalidInput, path, err)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("%w: %s: negative timeout", ErrInvalidInput, path)
	}

	dir := filepath.Dir(path)
	for i, f := range cfg.PinFiles {
		if !filepath.IsAbs(f) {
			cfg.PinFiles[i] = filepath.Join(dir, f)
		}
	}
	return cfg, nil
}

// pinningFrom selects the pinning mode for the given key hashes and
// certificate files. The two modes are exclusive.
func pinningFrom(pins, pinFiles []string) (apiclient.Pinning, error) {
	switch {
	case len(pins) > 0 && len(pinFiles) > 0:
		return apiclient.Pinning{}, fmt.Errorf("%w: key hashes and certificate files cannot be combined", ErrInvalidInput)
	case len(pins) > 0:
		return apiclient.PinKeyHashes(pins...), nil
	case len(pinFiles) > 0:
		return apiclient.PinCertificateFiles(pinFiles...), nil
	default:
		slog.Warn("no pins configured; relying on standard certificate verification only")
		return apiclient.NoPinning(), nil
	}
}
