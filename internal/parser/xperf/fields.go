package xperf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/heaptrace/internal/parser"
)

// splitFields splits a line on commas and trims each column.
// A blank line yields a single empty field.
func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// ParseHex decodes a "0x"-prefixed base-16 value. The prefix is mandatory
// and only lower-case "0x" is accepted.
func ParseHex(s string) (uint64, error) {
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok {
		return 0, fmt.Errorf("%w: %q has no 0x prefix", parser.ErrInvalidHex, s)
	}
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", parser.ErrInvalidHex, s)
	}
	return v, nil
}

// ParseDecimal decodes an unsigned base-10 value.
func ParseDecimal(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", parser.ErrInvalidDecimal, s)
	}
	return v, nil
}

// row is a split body line with typed, bounds-checked column access.
type row []string

func (r row) tag() string {
	return r[0]
}

func (r row) str(i int) (string, error) {
	if i >= len(r) {
		return "", fmt.Errorf("%w: %s row has %d columns, need column %d", parser.ErrMissingField, r.tag(), len(r), i)
	}
	return r[i], nil
}

func (r row) hex(i int) (uint64, error) {
	s, err := r.str(i)
	if err != nil {
		return 0, err
	}
	return ParseHex(s)
}

func (r row) decimal(i int) (uint64, error) {
	s, err := r.str(i)
	if err != nil {
		return 0, err
	}
	return ParseDecimal(s)
}

// hexes decodes columns idx in order, stopping at the first failure.
func (r row) hexes(idx ...int) ([]uint64, error) {
	out := make([]uint64, len(idx))
	for n, i := range idx {
		v, err := r.hex(i)
		if err != nil {
			return nil, err
		}
		out[n] = v
	}
	return out, nil
}
