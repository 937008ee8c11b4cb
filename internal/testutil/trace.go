package testutil

import (
	"fmt"
	"strings"
)

// XperfHeader is a header block as printed by `xperf -i`, declaring every
// layout the xperf parser requires plus a few it ignores.
const XperfHeader = `BeginHeader
SampledProfile,  TimeStamp,     Process Name ( PID),     ThreadID,           PrgrmCtr,        CPU, ThreadStartImage!Function,  Image!Function, Count, SampledProfile type
HeapCreate,  TimeStamp,     Process Name ( PID),     ThreadID,             HeapHandle,      Flags,  ReserveSize,  CommitSize,  AllocatedSize
HeapDestroy,  TimeStamp,     Process Name ( PID),     ThreadID,             HeapHandle
HeapAlloc,  TimeStamp,     Process Name ( PID),     ThreadID,             HeapHandle,            Address,       Size,  Source
HeapFree,  TimeStamp,     Process Name ( PID),     ThreadID,             HeapHandle,            Address, __Reserved,  Source
HeapRealloc,  TimeStamp,     Process Name ( PID),     ThreadID,             HeapHandle,         NewAddress,         OldAddress,    NewSize,    OldSize,  Source
Stack,  TimeStamp,           ThreadID,              No.,            Address,  Image!Function
EndHeader
`

// TraceBuilder assembles xperf text dumps for tests. Rows are padded the way
// xperf pads them so that column trimming is exercised.
type TraceBuilder struct {
	b  strings.Builder
	ts int
}

// NewTrace returns a builder that starts with XperfHeader.
func NewTrace() *TraceBuilder {
	tb := &TraceBuilder{}
	tb.b.WriteString(XperfHeader)
	return tb
}

// NewRawTrace returns a builder with no header.
func NewRawTrace() *TraceBuilder {
	return &TraceBuilder{}
}

// Line appends a verbatim line.
func (tb *TraceBuilder) Line(s string) *TraceBuilder {
	tb.b.WriteString(s)
	tb.b.WriteString("\n")
	return tb
}

func (tb *TraceBuilder) timestamp() int {
	tb.ts += 7
	return tb.ts
}

// Stack appends one stack frame row.
func (tb *TraceBuilder) Stack(depth int, address uint64, symbol string) *TraceBuilder {
	return tb.Line(fmt.Sprintf("Stack, %10d, %10d, %5d, 0x%016x, %s", tb.timestamp(), 4242, depth, address, symbol))
}

// Frames appends a whole stack, innermost symbol first, numbered from 1.
func (tb *TraceBuilder) Frames(symbols ...string) *TraceBuilder {
	for i, s := range symbols {
		tb.Stack(i+1, 0x7ff800001000+uint64(i)*0x10, s)
	}
	return tb
}

// Create appends a HeapCreate row.
func (tb *TraceBuilder) Create(heap uint64) *TraceBuilder {
	return tb.Line(fmt.Sprintf("HeapCreate, %10d, notepad.exe (1234), %10d, 0x%016x, 0x00000002, 0x00100000, 0x00001000, 0x00000000", tb.timestamp(), 4242, heap))
}

// Destroy appends a HeapDestroy row.
func (tb *TraceBuilder) Destroy(heap uint64) *TraceBuilder {
	return tb.Line(fmt.Sprintf("HeapDestroy, %10d, notepad.exe (1234), %10d, 0x%016x", tb.timestamp(), 4242, heap))
}

// Alloc appends a HeapAlloc row.
func (tb *TraceBuilder) Alloc(heap, address, size uint64) *TraceBuilder {
	return tb.Line(fmt.Sprintf("HeapAlloc, %10d, notepad.exe (1234), %10d, 0x%016x, 0x%016x, 0x%x, Normal", tb.timestamp(), 4242, heap, address, size))
}

// Free appends a HeapFree row.
func (tb *TraceBuilder) Free(heap, address uint64) *TraceBuilder {
	return tb.Line(fmt.Sprintf("HeapFree, %10d, notepad.exe (1234), %10d, 0x%016x, 0x%016x, 0x0, Normal", tb.timestamp(), 4242, heap, address))
}

// Realloc appends a HeapRealloc row.
func (tb *TraceBuilder) Realloc(heap, newAddress, oldAddress, newSize, oldSize uint64) *TraceBuilder {
	return tb.Line(fmt.Sprintf("HeapRealloc, %10d, notepad.exe (1234), %10d, 0x%016x, 0x%016x, 0x%016x, 0x%x, 0x%x, Normal",
		tb.timestamp(), 4242, heap, newAddress, oldAddress, newSize, oldSize))
}

// String returns the assembled dump.
func (tb *TraceBuilder) String() string {
	return tb.b.String()
}

// Bytes returns the assembled dump as bytes.
func (tb *TraceBuilder) Bytes() []byte {
	return []byte(tb.b.String())
}
