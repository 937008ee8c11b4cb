package model

import (
	"encoding/json"
	"fmt"
)

// ActionKind identifies the variant of a HeapAction.
type ActionKind uint8

const (
	// ActionCreate is a HeapCreate event.
	ActionCreate ActionKind = iota
	// ActionDestroy is a HeapDestroy event.
	ActionDestroy
	// ActionAlloc is a HeapAlloc event.
	ActionAlloc
	// ActionFree is a HeapFree event.
	ActionFree
	// ActionRealloc is a HeapRealloc event.
	ActionRealloc
)

// String returns the string representation of ActionKind.
func (k ActionKind) String() string {
	switch k {
	case ActionCreate:
		return "create"
	case ActionDestroy:
		return "destroy"
	case ActionAlloc:
		return "alloc"
	case ActionFree:
		return "free"
	case ActionRealloc:
		return "realloc"
	default:
		return "unknown"
	}
}

// ParseActionKind parses the string form produced by ActionKind.String.
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "create":
		return ActionCreate, nil
	case "destroy":
		return ActionDestroy, nil
	case "alloc":
		return ActionAlloc, nil
	case "free":
		return ActionFree, nil
	case "realloc":
		return ActionRealloc, nil
	default:
		return 0, fmt.Errorf("unknown action kind: %s", s)
	}
}

// HeapAction is one observed heap operation.
// The set of implementations is closed: Create, Destroy, Alloc, Free and Realloc.
type HeapAction interface {
	// Kind returns the variant tag.
	Kind() ActionKind

	// HeapHandle returns the handle of the heap the action applies to.
	HeapHandle() uint64

	isHeapAction()
}

// Create records a heap being created.
type Create struct {
	Heap uint64 `json:"heap"`
}

// Destroy records a heap being destroyed.
type Destroy struct {
	Heap uint64 `json:"heap"`
}

// Alloc records an allocation of Size bytes at Address.
type Alloc struct {
	Heap    uint64 `json:"heap"`
	Address uint64 `json:"address"`
	Size    uint64 `json:"size"`
}

// Free records the release of the block at Address.
type Free struct {
	Heap    uint64 `json:"heap"`
	Address uint64 `json:"address"`
}

// Realloc records a block moving from OldAddress/OldSize to NewAddress/NewSize.
type Realloc struct {
	Heap       uint64 `json:"heap"`
	NewAddress uint64 `json:"new_address"`
	OldAddress uint64 `json:"old_address"`
	NewSize    uint64 `json:"new_size"`
	OldSize    uint64 `json:"old_size"`
}

func (Create) Kind() ActionKind  { return ActionCreate }
func (Destroy) Kind() ActionKind { return ActionDestroy }
func (Alloc) Kind() ActionKind   { return ActionAlloc }
func (Free) Kind() ActionKind    { return ActionFree }
func (Realloc) Kind() ActionKind { return ActionRealloc }

func (a Create) HeapHandle() uint64  { return a.Heap }
func (a Destroy) HeapHandle() uint64 { return a.Heap }
func (a Alloc) HeapHandle() uint64   { return a.Heap }
func (a Free) HeapHandle() uint64    { return a.Heap }
func (a Realloc) HeapHandle() uint64 { return a.Heap }

func (Create) isHeapAction()  {}
func (Destroy) isHeapAction() {}
func (Alloc) isHeapAction()   {}
func (Free) isHeapAction()    {}
func (Realloc) isHeapAction() {}

// Stack is a call stack, innermost frame first. Symbols are kept exactly as
// they appear in the trace (e.g. "ntdll.dll!RtlAllocateHeap").
type Stack []string

// Leaf returns the innermost symbol, or "" for an empty stack.
func (s Stack) Leaf() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// ParsedEvent pairs a heap action with the stack captured when it fired.
type ParsedEvent struct {
	Action HeapAction
	Stack  Stack
}

// MarshalJSON encodes the event as a flat object tagged with "kind".
func (e ParsedEvent) MarshalJSON() ([]byte, error) {
	if e.Action == nil {
		return nil, fmt.Errorf("parsed event has no action")
	}

	payload, err := json.Marshal(e.Action)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	kind, _ := json.Marshal(e.Action.Kind().String())
	fields["kind"] = kind

	stack := e.Stack
	if stack == nil {
		stack = Stack{}
	}
	stackJSON, err := json.Marshal(stack)
	if err != nil {
		return nil, err
	}
	fields["stack"] = stackJSON

	return json.Marshal(fields)
}
