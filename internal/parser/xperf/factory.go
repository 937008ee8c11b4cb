package xperf

import (
	"github.com/heaptrace/internal/parser"
	"github.com/heaptrace/pkg/utils"
)

var _ parser.Parser = (*Parser)(nil)

// RegisterWithRegistry registers the xperf parser under each of its formats.
func RegisterWithRegistry(registry *parser.Registry, logger utils.Logger) {
	p := NewParser(&ParserOptions{Logger: logger})
	for _, format := range p.SupportedFormats() {
		registry.Register(format, p)
	}
}
