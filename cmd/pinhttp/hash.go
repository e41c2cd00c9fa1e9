// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-pinhttp/pkg/spkipin"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// hashCmd computes the pins of certificate files.
var hashCmd = &cobra.Command{
	Use:   "hash [--cert-file FILE]... [FILE]...",
	Short: "Compute the public-key pin of certificate files",
	Long: `Compute the base64 SHA-256 public-key pin of each certificate in the
given DER or PEM files. The output can be passed to 'pinhttp request --pin'
or published with 'pinhttp dane generate'.`,
	RunE: runHash,
}

func init() {
	hashCmd.Flags().StringArray("cert-file", nil, "path to a DER or PEM certificate file (repeatable)")
}

// pinEntry is one line of hash output.
type pinEntry struct {
	File    string `json:"file"`
	Subject string `json:"subject"`
	Pin     string `json:"pin"`
}

func runHash(cmd *cobra.Command, args []string) error {
	files, _ := cmd.Flags().GetStringArray("cert-file")
	files = append(files, args...)

	if len(files) == 0 {
		return fmt.Errorf("%w: --cert-file is required", ErrInvalidInput)
	}

	var entries []pinEntry
	for _, file := range files {
		certs, err := loadCertificates(file)
		if err != nil {
			return err
		}
		for _, cert := range certs {
			fp, err := spkipin.HashCertificate(cert)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidInput, file, err)
			}
			slog.Debug("computed pin", "file", file, "subject", cert.Subject.String())
			entries = append(entries, pinEntry{File: file, Subject: cert.Subject.String(), Pin: fp.String()})
		}
	}

	out, err := renderPins(entries)
	if err != nil {
		return err
	}
	return writeOutput(out)
}

func renderPins(entries []pinEntry) ([]byte, error) {
	if format == formatJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return append(data, '\n'), nil
	}

	var b bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %s (%s)\n", e.Pin, e.File, e.Subject)
	}
	return b.Bytes(), nil
}
