package xperf

import (
	"fmt"
	"slices"
	"strings"

	"github.com/heaptrace/internal/parser"
)

// RowKind is one of the row layouts the parser reads.
type RowKind int

const (
	RowHeapCreate RowKind = iota
	RowHeapDestroy
	RowHeapAlloc
	RowHeapFree
	RowHeapRealloc
	RowStack

	numRowKinds
)

// Row tags as they appear in the first column.
const (
	TagHeapCreate  = "HeapCreate"
	TagHeapDestroy = "HeapDestroy"
	TagHeapAlloc   = "HeapAlloc"
	TagHeapFree    = "HeapFree"
	TagHeapRealloc = "HeapRealloc"
	TagStack       = "Stack"

	// EndHeader is the single-column line that closes the header.
	EndHeader = "EndHeader"
)

// layouts are the exact header declarations the positional field access in
// dispatch relies on.
var layouts = [numRowKinds][]string{
	RowHeapCreate:  {TagHeapCreate, "TimeStamp", "Process Name ( PID)", "ThreadID", "HeapHandle", "Flags", "ReserveSize", "CommitSize", "AllocatedSize"},
	RowHeapDestroy: {TagHeapDestroy, "TimeStamp", "Process Name ( PID)", "ThreadID", "HeapHandle"},
	RowHeapAlloc:   {TagHeapAlloc, "TimeStamp", "Process Name ( PID)", "ThreadID", "HeapHandle", "Address", "Size", "Source"},
	RowHeapFree:    {TagHeapFree, "TimeStamp", "Process Name ( PID)", "ThreadID", "HeapHandle", "Address", "__Reserved", "Source"},
	RowHeapRealloc: {TagHeapRealloc, "TimeStamp", "Process Name ( PID)", "ThreadID", "HeapHandle", "NewAddress", "OldAddress", "NewSize", "OldSize", "Source"},
	RowStack:       {TagStack, "TimeStamp", "ThreadID", "No.", "Address", "Image!Function"},
}

// String returns the row tag of k.
func (k RowKind) String() string {
	if k < 0 || k >= numRowKinds {
		return "unknown"
	}
	return layouts[k][0]
}

// Layout returns a copy of the expected header columns for k.
func (k RowKind) Layout() []string {
	if k < 0 || k >= numRowKinds {
		return nil
	}
	return slices.Clone(layouts[k])
}

// RowKinds returns every row kind in declaration order.
func RowKinds() []RowKind {
	kinds := make([]RowKind, 0, numRowKinds)
	for k := RowKind(0); k < numRowKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// headerValidator records which layouts the header has declared.
type headerValidator struct {
	seen [numRowKinds]bool
}

// observe consumes one header line. It reports true once EndHeader has been
// accepted, and fails if EndHeader arrives before every layout was seen.
// Lines matching no layout are ignored.
func (v *headerValidator) observe(fields []string) (bool, error) {
	if len(fields) == 1 && fields[0] == EndHeader {
		if missing := v.missing(); len(missing) > 0 {
			return false, fmt.Errorf("%w: missing %s", parser.ErrSchemaMismatch, strings.Join(missing, ", "))
		}
		return true, nil
	}

	for k, layout := range layouts {
		if slices.Equal(fields, layout) {
			v.seen[k] = true
			break
		}
	}
	return false, nil
}

func (v *headerValidator) missing() []string {
	var missing []string
	for k, ok := range v.seen {
		if !ok {
			missing = append(missing, RowKind(k).String())
		}
	}
	return missing
}
