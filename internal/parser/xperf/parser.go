package xperf

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/heaptrace/pkg/errors"
	"github.com/heaptrace/pkg/model"
	"github.com/heaptrace/pkg/telemetry"
	"github.com/heaptrace/pkg/utils"
)

// ParserOptions holds configuration options for the xperf parser.
type ParserOptions struct {
	// Logger receives debug output about header validation and totals.
	Logger utils.Logger
}

// DefaultParserOptions returns default parser options.
func DefaultParserOptions() *ParserOptions {
	return &ParserOptions{
		Logger: &utils.NullLogger{},
	}
}

// Parser implements parser.Parser for `xperf -i` heap dumps.
// A Parser holds no per-parse state and may be shared between goroutines.
type Parser struct {
	opts *ParserOptions
}

// NewParser creates a new xperf parser.
func NewParser(opts *ParserOptions) *Parser {
	if opts == nil {
		opts = DefaultParserOptions()
	}
	if opts.Logger == nil {
		opts.Logger = &utils.NullLogger{}
	}
	return &Parser{opts: opts}
}

// SupportedFormats returns the formats supported by this parser.
func (p *Parser) SupportedFormats() []string {
	return []string{"xperf", "etw-heap"}
}

// Name returns the name of this parser.
func (p *Parser) Name() string {
	return "xperf"
}

// Parse reads the whole trace from reader and parses it.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) ([]model.ParsedEvent, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOError, "failed to read trace", err)
	}
	return p.ParseBytes(ctx, data)
}

// ParseFile loads the trace at path and parses it.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]model.ParsedEvent, error) {
	text, err := Load(path)
	if err != nil {
		return nil, err
	}
	return p.ParseString(ctx, text)
}

// ParseBytes decodes raw trace bytes and parses them.
func (p *Parser) ParseBytes(ctx context.Context, data []byte) ([]model.ParsedEvent, error) {
	text, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return p.ParseString(ctx, text)
}

type parseState int

const (
	stateHeader parseState = iota
	stateBody
)

// ParseString parses decoded trace text. It either returns every event
// paired with its stack or fails; no partial result is ever returned.
// Text that ends before EndHeader holds no body and yields no events.
func (p *Parser) ParseString(ctx context.Context, text string) (events []model.ParsedEvent, err error) {
	_, span := telemetry.Tracer().Start(ctx, "xperf.Parse")
	defer func() {
		span.SetAttributes(attribute.Int("heaptrace.events", len(events)))
		telemetry.EndSpan(span, err)
	}()

	var (
		header  headerValidator
		stacks  stackAccumulator
		actions []model.HeapAction
	)

	state := stateHeader
	lineNum := 0
	for line := range strings.Lines(text) {
		lineNum++
		fields := splitFields(line)

		switch state {
		case stateHeader:
			done, err := header.observe(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			if done {
				p.opts.Logger.Debug("header validated at line %d", lineNum)
				state = stateBody
			}

		case stateBody:
			action, err := dispatch(row(fields), &stacks)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			if action != nil {
				actions = append(actions, action)
			}
		}
	}

	if state == stateHeader {
		p.opts.Logger.Warn("no %s line in %d lines, trace has no events", EndHeader, lineNum)
	}

	completed := stacks.finish()
	p.opts.Logger.Debug("read %d lines: %d events, %d stacks", lineNum, len(actions), len(completed))

	return Pair(actions, completed)
}

// dispatch routes a body row by its tag. Event rows return their action;
// Stack rows feed the accumulator and return nil. Unknown tags and blank
// lines are skipped.
func dispatch(r row, stacks *stackAccumulator) (model.HeapAction, error) {
	switch r.tag() {
	case TagHeapCreate:
		heap, err := r.hex(4)
		if err != nil {
			return nil, err
		}
		return model.Create{Heap: heap}, nil

	case TagHeapDestroy:
		heap, err := r.hex(4)
		if err != nil {
			return nil, err
		}
		return model.Destroy{Heap: heap}, nil

	case TagHeapAlloc:
		v, err := r.hexes(4, 5, 6)
		if err != nil {
			return nil, err
		}
		return model.Alloc{Heap: v[0], Address: v[1], Size: v[2]}, nil

	case TagHeapFree:
		v, err := r.hexes(4, 5)
		if err != nil {
			return nil, err
		}
		return model.Free{Heap: v[0], Address: v[1]}, nil

	case TagHeapRealloc:
		v, err := r.hexes(4, 5, 6, 7, 8)
		if err != nil {
			return nil, err
		}
		return model.Realloc{
			Heap:       v[0],
			NewAddress: v[1],
			OldAddress: v[2],
			NewSize:    v[3],
			OldSize:    v[4],
		}, nil

	case TagStack:
		depth, err := r.decimal(3)
		if err != nil {
			return nil, err
		}
		// the frame address is not kept but must still be well formed
		if _, err := r.hex(4); err != nil {
			return nil, err
		}
		symbol, err := r.str(5)
		if err != nil {
			return nil, err
		}
		stacks.push(depth, symbol)
		return nil, nil

	default:
		return nil, nil
	}
}
