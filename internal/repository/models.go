// Package repository persists parsed heap traces.
package repository

import (
	"fmt"
	"time"

	"github.com/heaptrace/pkg/model"
)

// TraceRun represents the trace_runs table: one parsed trace.
type TraceRun struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string    `gorm:"column:run_id;type:varchar(64);uniqueIndex"`
	Source     string    `gorm:"column:source;type:varchar(512)"`
	EventCount int       `gorm:"column:event_count"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for TraceRun.
func (TraceRun) TableName() string {
	return "trace_runs"
}

// HeapEventRecord represents the heap_events table. Unused columns for a
// kind stay zero. Handles, addresses and sizes hold the uint64 bit pattern.
type HeapEventRecord struct {
	ID         int64              `gorm:"column:id;primaryKey;autoIncrement"`
	TraceRunID int64              `gorm:"column:trace_run_id;index:idx_heap_events_run_seq,priority:1"`
	Seq        int                `gorm:"column:seq;index:idx_heap_events_run_seq,priority:2"`
	Kind       string             `gorm:"column:kind;type:varchar(16)"`
	Heap       int64              `gorm:"column:heap"`
	Address    int64              `gorm:"column:address"`
	Size       int64              `gorm:"column:size"`
	OldAddress int64              `gorm:"column:old_address"`
	OldSize    int64              `gorm:"column:old_size"`
	Frames     []StackFrameRecord `gorm:"foreignKey:HeapEventID"`
}

// TableName returns the table name for HeapEventRecord.
func (HeapEventRecord) TableName() string {
	return "heap_events"
}

// StackFrameRecord represents the stack_frames table. Depth starts at 1 for
// the innermost frame.
type StackFrameRecord struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	HeapEventID int64  `gorm:"column:heap_event_id;index"`
	Depth       int    `gorm:"column:depth"`
	Symbol      string `gorm:"column:symbol;type:text"`
}

// TableName returns the table name for StackFrameRecord.
func (StackFrameRecord) TableName() string {
	return "stack_frames"
}

// NewHeapEventRecord flattens event into a row. Frames are not populated.
func NewHeapEventRecord(runID int64, seq int, event model.ParsedEvent) (HeapEventRecord, error) {
	r := HeapEventRecord{TraceRunID: runID, Seq: seq}
	if event.Action == nil {
		return r, fmt.Errorf("event %d has no action", seq)
	}

	r.Kind = event.Action.Kind().String()
	r.Heap = int64(event.Action.HeapHandle())

	switch a := event.Action.(type) {
	case model.Alloc:
		r.Address = int64(a.Address)
		r.Size = int64(a.Size)
	case model.Free:
		r.Address = int64(a.Address)
	case model.Realloc:
		r.Address = int64(a.NewAddress)
		r.Size = int64(a.NewSize)
		r.OldAddress = int64(a.OldAddress)
		r.OldSize = int64(a.OldSize)
	}
	return r, nil
}

// ToModel rebuilds the parsed event. Frames must be ordered by depth.
func (r *HeapEventRecord) ToModel() (model.ParsedEvent, error) {
	kind, err := model.ParseActionKind(r.Kind)
	if err != nil {
		return model.ParsedEvent{}, fmt.Errorf("heap event %d: %w", r.ID, err)
	}

	heap := uint64(r.Heap)
	var action model.HeapAction
	switch kind {
	case model.ActionCreate:
		action = model.Create{Heap: heap}
	case model.ActionDestroy:
		action = model.Destroy{Heap: heap}
	case model.ActionAlloc:
		action = model.Alloc{Heap: heap, Address: uint64(r.Address), Size: uint64(r.Size)}
	case model.ActionFree:
		action = model.Free{Heap: heap, Address: uint64(r.Address)}
	case model.ActionRealloc:
		action = model.Realloc{
			Heap:       heap,
			NewAddress: uint64(r.Address),
			OldAddress: uint64(r.OldAddress),
			NewSize:    uint64(r.Size),
			OldSize:    uint64(r.OldSize),
		}
	}

	stack := make(model.Stack, len(r.Frames))
	for i, f := range r.Frames {
		stack[i] = f.Symbol
	}
	return model.ParsedEvent{Action: action, Stack: stack}, nil
}
