// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	quiet      bool
	debug      bool
	format     string
	outputFile string
	logFormat  string
)

// logLevel controls the global slog level at runtime.
var logLevel = new(slog.LevelVar)

// exitFunc is the function called to exit the program.
// This can be overridden in tests to capture exit calls.
var exitFunc = os.Exit

var rootCmd = &cobra.Command{
	Use:   "pinhttp",
	Short: "HTTP client with TLS public-key pinning",
	Long: `pinhttp performs HTTP requests over TLS connections whose server keys
are pinned, on top of standard certificate verification.

A pin is the base64 SHA-256 digest of a certificate's public key. Pins are
given inline, computed from certificate files, or discovered from DANE TLSA
records.

Commands:
  hash    - compute the pin of certificate files
  request - perform a pinned HTTP request
  dane    - publish and discover pins with TLSA records (RFC 6698)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&format, "format", formatText, "output format (text|json)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text|json)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(daneCmd)
}

// initLogging configures the global slog logger based on CLI flags.
//
//	--debug: LevelDebug with source location
//	default: LevelInfo
//	--quiet: LevelError (only errors shown)
//
// --debug takes precedence over --quiet.
// --log-format selects the handler: "text" (default) or "json".
func initLogging() {
	switch {
	case debug:
		logLevel.Set(slog.LevelDebug)
	case quiet:
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: debug,
	}

	handlers := map[string]func(io.Writer, *slog.HandlerOptions) slog.Handler{
		"text": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewTextHandler(w, o) },
		"json": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewJSONHandler(w, o) },
	}

	factory, ok := handlers[logFormat]
	if !ok {
		factory = handlers["text"]
	}

	handler := factory(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}

// writeOutput writes data to the configured output file or stdout.
// It respects the --output flag; when empty, writes to stdout.
func writeOutput(data []byte) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0600); err != nil {
			return fmt.Errorf("%w: %w", ErrFileOperation, err)
		}
		slog.Info("written to file", "path", outputFile, "bytes", len(data))
		return nil
	}
	_, err := os.Stdout.Write(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileOperation, err)
	}
	return nil
}
