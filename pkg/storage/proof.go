// Package storage keeps uploaded payment proofs on local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmpty           = errors.New("empty file")
)

// Accepted proof formats, matched on sniffed content rather than the
// client-supplied name or header.
var allowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"application/pdf",
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ProofStorage stores payment proofs under a directory served at baseURL.
type ProofStorage struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewProofStorage creates dir if needed.
func NewProofStorage(dir, baseURL string, maxBytes int64) (*ProofStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ProofStorage{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

// Dir is the directory holding stored files.
func (s *ProofStorage) Dir() string { return s.dir }

// MaxBytes is the largest accepted file.
func (s *ProofStorage) MaxBytes() int64 { return s.maxBytes }

// SaveProof validates and stores r, returning the public URL of the file.
func (s *ProofStorage) SaveProof(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.New().String() + "-" + sanitize(filename) + mt.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

func sanitize(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		return "proof"
	}
	return base
}
