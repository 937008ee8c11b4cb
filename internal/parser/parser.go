// Package parser defines the interfaces for parsing heap trace logs.
package parser

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/heaptrace/pkg/model"
)

// Parser is the interface for parsing heap trace logs.
type Parser interface {
	// Parse reads the whole trace and returns its events paired with stacks.
	// It either returns every event or fails; there are no partial results.
	Parse(ctx context.Context, reader io.Reader) ([]model.ParsedEvent, error)

	// SupportedFormats returns the formats supported by this parser.
	SupportedFormats() []string

	// Name returns the name of this parser.
	Name() string
}

// Registry holds registered parsers keyed by format name.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser Registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// Register registers a parser with the given format name.
func (r *Registry) Register(format string, parser Parser) {
	r.parsers[format] = parser
}

// Get returns a parser for the given format.
func (r *Registry) Get(format string) (Parser, bool) {
	parser, ok := r.parsers[format]
	return parser, ok
}

// MustGet returns the parser for format or an ErrUnsupportedFormat error.
func (r *Registry) MustGet(format string) (Parser, error) {
	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s (known: %v)", ErrUnsupportedFormat, format, r.Formats())
	}
	return p, nil
}

// Formats returns the registered format names in sorted order.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
