package xperf

import (
	"fmt"

	"github.com/heaptrace/internal/parser"
	"github.com/heaptrace/pkg/model"
)

// Pair joins the i-th action with the i-th stack. The two lists are built by
// independent passes over the same rows, so a length difference means a
// stack boundary was missed and the whole result is rejected.
func Pair(actions []model.HeapAction, stacks []model.Stack) ([]model.ParsedEvent, error) {
	if len(actions) != len(stacks) {
		return nil, fmt.Errorf("%w: %d events, %d stacks", parser.ErrCountMismatch, len(actions), len(stacks))
	}

	events := make([]model.ParsedEvent, len(actions))
	for i, action := range actions {
		events[i] = model.ParsedEvent{Action: action, Stack: stacks[i]}
	}
	return events, nil
}
