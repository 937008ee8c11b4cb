// Package writer provides JSON writers for parsed heap traces and summaries.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/heaptrace/pkg/compression"
	"github.com/heaptrace/pkg/model"
)

// JSONWriter writes a single value as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: ""}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// WriteToFile writes the data as JSON to a file.
func (w *JSONWriter[T]) WriteToFile(data T, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := w.Write(data, file); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}
	return file.Close()
}

// Format is the layout of an event export.
type Format int

const (
	// FormatJSON writes one JSON array holding every event.
	FormatJSON Format = iota
	// FormatJSONL writes one JSON object per line.
	FormatJSONL
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatJSONL:
		return "jsonl"
	default:
		return "unknown"
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	if f == FormatJSONL {
		return ".jsonl"
	}
	return ".json"
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	default:
		return FormatJSON, fmt.Errorf("unknown output format: %q (valid: json, jsonl)", s)
	}
}

// EventWriter exports parsed events, optionally compressed.
type EventWriter struct {
	Format      Format
	Compression compression.Type
}

// NewEventWriter creates an event writer.
func NewEventWriter(format Format, ct compression.Type) *EventWriter {
	return &EventWriter{Format: format, Compression: ct}
}

// FileName returns base with the format and compression extensions appended.
func (w *EventWriter) FileName(base string) string {
	return base + w.Format.Extension() + w.Compression.Extension()
}

// Write encodes events to writer. The compressor, if any, is flushed before
// returning; writer itself is not closed.
func (w *EventWriter) Write(events []model.ParsedEvent, writer io.Writer) error {
	cw, err := compression.NewWriter(w.Compression, writer)
	if err != nil {
		return err
	}

	if err := w.encode(events, cw); err != nil {
		cw.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to close %s writer: %w", w.Compression, err)
	}
	return nil
}

func (w *EventWriter) encode(events []model.ParsedEvent, writer io.Writer) error {
	switch w.Format {
	case FormatJSONL:
		encoder := json.NewEncoder(writer)
		for i, e := range events {
			if err := encoder.Encode(e); err != nil {
				return fmt.Errorf("failed to encode event %d: %w", i, err)
			}
		}
		return nil
	case FormatJSON:
		if events == nil {
			events = []model.ParsedEvent{}
		}
		if err := json.NewEncoder(writer).Encode(events); err != nil {
			return fmt.Errorf("failed to encode events: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %d", w.Format)
	}
}

// WriteResult contains statistics about the written file.
type WriteResult struct {
	Path           string
	Events         int
	JSONSize       int64
	CompressedSize int64
	CompressionPct float64
}

// WriteToFile writes events to path and returns statistics about the output.
func (w *EventWriter) WriteToFile(events []model.ParsedEvent, path string) (*WriteResult, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	out := &countingWriter{w: file}
	cw, err := compression.NewWriter(w.Compression, out)
	if err != nil {
		return nil, err
	}
	raw := &countingWriter{w: cw}

	if err := w.encode(events, raw); err != nil {
		cw.Close()
		return nil, err
	}
	if err := cw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s writer: %w", w.Compression, err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	compressionPct := 0.0
	if raw.n > 0 {
		compressionPct = float64(out.n) / float64(raw.n) * 100
	}

	return &WriteResult{
		Path:           path,
		Events:         len(events),
		JSONSize:       raw.n,
		CompressedSize: out.n,
		CompressionPct: compressionPct,
	}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
