// Package summary computes descriptive statistics over parsed heap events.
package summary

import (
	"sort"
	"strings"

	"github.com/heaptrace/pkg/model"
)

// DefaultTopN is the number of symbols reported when no option is given.
const DefaultTopN = 10

// Calculator builds a Summary from parsed events.
type Calculator struct {
	topN      int
	maxStacks int
}

// Option configures the Calculator.
type Option func(*Calculator)

// WithTopN sets the number of top allocating symbols to report.
// Zero disables the ranking.
func WithTopN(n int) Option {
	return func(c *Calculator) {
		c.topN = n
	}
}

// WithMaxStacks sets how many distinct stacks are kept per top symbol.
func WithMaxStacks(n int) Option {
	return func(c *Calculator) {
		c.maxStacks = n
	}
}

// NewCalculator creates a new Calculator.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		topN:      DefaultTopN,
		maxStacks: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Summary is the descriptive view of one trace.
type Summary struct {
	Events          int            `json:"events"`
	Counts          map[string]int `json:"counts"`
	Heaps           int            `json:"heaps"`
	AllocatedBytes  uint64         `json:"allocated_bytes"`
	FreedBytes      uint64         `json:"freed_bytes"`
	ReallocBytes    uint64         `json:"reallocated_bytes"`
	UnmatchedFrees  int            `json:"unmatched_frees"`
	LiveAllocations int            `json:"live_allocations"`
	LiveBytes       uint64         `json:"live_bytes"`
	TopSymbols      []SymbolEntry  `json:"top_symbols"`
}

// SymbolEntry is an innermost symbol ranked by the bytes it allocated.
// Realloc counts its new size.
type SymbolEntry struct {
	Symbol  string   `json:"symbol"`
	Bytes   uint64   `json:"bytes"`
	Count   int      `json:"count"`
	Percent float64  `json:"percent"`
	Stacks  []string `json:"stacks,omitempty"`
}

type blockKey struct {
	heap, address uint64
}

type symbolStats struct {
	bytes  uint64
	count  int
	stacks map[string]uint64
}

// Calculate walks events in order. Freed bytes are resolved from the live
// block at the freed address; frees of unknown blocks are only counted.
func (c *Calculator) Calculate(events []model.ParsedEvent) *Summary {
	s := &Summary{
		Events:     len(events),
		Counts:     make(map[string]int),
		TopSymbols: make([]SymbolEntry, 0),
	}
	for _, k := range []model.ActionKind{model.ActionCreate, model.ActionDestroy, model.ActionAlloc, model.ActionFree, model.ActionRealloc} {
		s.Counts[k.String()] = 0
	}

	heaps := make(map[uint64]struct{})
	live := make(map[blockKey]uint64)
	symbols := make(map[string]*symbolStats)

	record := func(stack model.Stack, size uint64) {
		leaf := stack.Leaf()
		if leaf == "" {
			return
		}
		st, ok := symbols[leaf]
		if !ok {
			st = &symbolStats{stacks: make(map[string]uint64)}
			symbols[leaf] = st
		}
		st.bytes += size
		st.count++
		st.stacks[strings.Join(stack, ";")] += size
	}

	for _, e := range events {
		if e.Action == nil {
			continue
		}
		s.Counts[e.Action.Kind().String()]++
		heaps[e.Action.HeapHandle()] = struct{}{}

		switch a := e.Action.(type) {
		case model.Alloc:
			s.AllocatedBytes += a.Size
			live[blockKey{a.Heap, a.Address}] = a.Size
			record(e.Stack, a.Size)
		case model.Free:
			key := blockKey{a.Heap, a.Address}
			size, ok := live[key]
			if !ok {
				s.UnmatchedFrees++
				continue
			}
			s.FreedBytes += size
			delete(live, key)
		case model.Realloc:
			s.ReallocBytes += a.NewSize
			delete(live, blockKey{a.Heap, a.OldAddress})
			live[blockKey{a.Heap, a.NewAddress}] = a.NewSize
			record(e.Stack, a.NewSize)
		case model.Destroy:
			for key := range live {
				if key.heap == a.Heap {
					delete(live, key)
				}
			}
		}
	}

	s.Heaps = len(heaps)
	s.LiveAllocations = len(live)
	for _, size := range live {
		s.LiveBytes += size
	}

	s.TopSymbols = c.rank(symbols, s.AllocatedBytes+s.ReallocBytes)
	return s
}

func (c *Calculator) rank(symbols map[string]*symbolStats, total uint64) []SymbolEntry {
	entries := make([]SymbolEntry, 0, len(symbols))
	for name, st := range symbols {
		pct := 0.0
		if total > 0 {
			pct = float64(st.bytes) / float64(total) * 100
		}
		entries = append(entries, SymbolEntry{
			Symbol:  name,
			Bytes:   st.bytes,
			Count:   st.count,
			Percent: pct,
			Stacks:  topStacks(st.stacks, c.maxStacks),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Bytes != entries[j].Bytes {
			return entries[i].Bytes > entries[j].Bytes
		}
		return entries[i].Symbol < entries[j].Symbol
	})

	topN := max(c.topN, 0)
	if topN > len(entries) {
		topN = len(entries)
	}
	return entries[:topN]
}

func topStacks(stacks map[string]uint64, n int) []string {
	type stackEntry struct {
		stack string
		bytes uint64
	}
	all := make([]stackEntry, 0, len(stacks))
	for stack, bytes := range stacks {
		all = append(all, stackEntry{stack, bytes})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].bytes != all[j].bytes {
			return all[i].bytes > all[j].bytes
		}
		return all[i].stack < all[j].stack
	})

	out := make([]string, 0, min(n, len(all)))
	for i := 0; i < len(all) && i < n; i++ {
		out = append(out, all[i].stack)
	}
	return out
}
