// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package spkipin

import (
	"bytes"
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"
)

const pemCertificateType = "CERTIFICATE"

// PinSet is an immutable, duplicate-tolerant set of fingerprints.
type PinSet struct {
	pins map[Fingerprint]struct{}
}

// NewPinSet builds a PinSet from the given fingerprints. Duplicates collapse.
func NewPinSet(fingerprints ...Fingerprint) PinSet {
	pins := make(map[Fingerprint]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		pins[fp] = struct{}{}
	}
	return PinSet{pins: pins}
}

// Len returns the number of distinct fingerprints in the set.
func (s PinSet) Len() int {
	return len(s.pins)
}

// Contains reports whether fp is pinned.
func (s PinSet) Contains(fp Fingerprint) bool {
	_, ok := s.pins[fp]
	return ok
}

// List returns the fingerprints in sorted order.
func (s PinSet) List() []Fingerprint {
	out := make([]Fingerprint, 0, len(s.pins))
	for fp := range s.pins {
		out = append(out, fp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PinSource provides the fingerprints currently trusted by a validator.
// The set of implementations is closed: StaticSource and FileSource.
type PinSource interface {
	// Fingerprints returns the pinned fingerprints. Safe for concurrent use.
	Fingerprints() PinSet

	pinSource()
}

// StaticSource serves a caller-supplied list of base64 fingerprints.
type StaticSource struct {
	set PinSet
}

// NewStaticSource creates a StaticSource from pre-computed base64 SHA-256
// fingerprints. Blank entries are ignored.
func NewStaticSource(hashes []string) *StaticSource {
	fps := make([]Fingerprint, 0, len(hashes))
	for _, h := range hashes {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		fps = append(fps, Fingerprint(h))
	}
	return &StaticSource{set: NewPinSet(fps...)}
}

// Fingerprints returns the configured fingerprints.
func (s *StaticSource) Fingerprints() PinSet {
	return s.set
}

func (s *StaticSource) pinSource() {}

// FileSource serves the fingerprints of certificates loaded from local files
// once, at construction time.
type FileSource struct {
	paths []string
	set   atomic.Pointer[PinSet]
}

// NewFileSource reads each path as a DER certificate (PEM CERTIFICATE blocks
// are also accepted) and hashes its public key. Files that cannot be read,
// decoded or hashed are logged and skipped; the source keeps whatever pins
// could be computed. A nil logger uses slog.Default().
func NewFileSource(paths []string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "spkipin_file_source")

	s := &FileSource{paths: append([]string(nil), paths...)}

	var fps []Fingerprint
	for _, path := range s.paths {
		loaded, err := loadFingerprints(path)
		if err != nil {
			logger.Warn("skipping pin certificate", "path", path, "error", err)
			continue
		}
		fps = append(fps, loaded...)
	}

	set := NewPinSet(fps...)
	s.set.Store(&set)

	logger.Debug("pin certificates loaded", "files", len(s.paths), "pins", set.Len())
	return s
}

// Fingerprints returns the fingerprints computed at construction.
func (s *FileSource) Fingerprints() PinSet {
	if set := s.set.Load(); set != nil {
		return *set
	}
	return PinSet{}
}

// Paths returns the certificate files the source was built from.
func (s *FileSource) Paths() []string {
	return append([]string(nil), s.paths...)
}

func (s *FileSource) pinSource() {}

// loadFingerprints hashes the certificate(s) stored at path.
func loadFingerprints(path string) ([]Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		fp, err := HashDER(data)
		if err != nil {
			return nil, err
		}
		return []Fingerprint{fp}, nil
	}

	var fps []Fingerprint
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != pemCertificateType {
			continue
		}
		fp, err := HashDER(block.Bytes)
		if err != nil {
			return nil, err
		}
		fps = append(fps, fp)
	}
	if len(fps) == 0 {
		return nil, fmt.Errorf("%w: no certificate in PEM data", ErrCertificateDecodingFailed)
	}
	return fps, nil
}
