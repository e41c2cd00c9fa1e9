// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...".
// Falls back to reading the VERSION file at runtime.
var version string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of pinhttp",
	Long:  "Print the version of pinhttp, sourced from build-time ldflags or the VERSION file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("pinhttp version %s\n", resolveVersion())
		return nil
	},
}

// resolveVersion returns the build-time version, else the first non-empty
// VERSION file found in the working directory or next to the executable.
func resolveVersion() string {
	if version != "" {
		return version
	}

	paths := []string{"VERSION"}
	if execPath, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(execPath), "VERSION"))
	}

	for _, path := range paths {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			return v
		}
	}

	return "unknown"
}
