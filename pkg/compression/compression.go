// Package compression detects and undoes the compression of trace files and
// wraps export writers in a compressor.
package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Type represents the compression algorithm used.
type Type uint8

const (
	// TypeNone is uncompressed data.
	TypeNone Type = iota
	// TypeGzip is gzip (RFC 1952).
	TypeGzip
	// TypeZstd is Zstandard.
	TypeZstd
)

// String returns the name of the compression type.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeGzip:
		return "gzip"
	case TypeZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Extension returns the file suffix conventionally used for t, including the dot.
func (t Type) Extension() string {
	switch t {
	case TypeGzip:
		return ".gz"
	case TypeZstd:
		return ".zst"
	default:
		return ""
	}
}

// ParseType parses a compression name as used in configuration.
// The empty string means TypeNone.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TypeNone, nil
	case "gzip", "gz":
		return TypeGzip, nil
	case "zstd", "zst":
		return TypeZstd, nil
	default:
		return TypeNone, fmt.Errorf("unknown compression type: %q (valid: none, gzip, zstd)", s)
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DetectType detects the compression type from magic bytes.
// Anything without a known magic is TypeNone.
func DetectType(data []byte) Type {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return TypeZstd
	case bytes.HasPrefix(data, gzipMagic):
		return TypeGzip
	default:
		return TypeNone
	}
}

// Decompress detects the compression of data and returns the decompressed
// bytes. Uncompressed data is returned unchanged.
func Decompress(data []byte) ([]byte, error) {
	switch DetectType(data) {
	case TypeGzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer reader.Close()
		out, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read gzip data: %w", err)
		}
		return out, nil
	case TypeZstd:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()
		out, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decode zstd data: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}

// NewWriter wraps w so that everything written is compressed with t.
// Closing the returned writer flushes the compressor but does not close w.
func NewWriter(t Type, w io.Writer) (io.WriteCloser, error) {
	switch t {
	case TypeNone:
		return nopCloser{w}, nil
	case TypeGzip:
		return gzip.NewWriter(w), nil
	case TypeZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

// Compress compresses data with t in one call.
func Compress(t Type, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(t, &buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write %s data: %w", t, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s writer: %w", t, err)
	}
	return buf.Bytes(), nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
