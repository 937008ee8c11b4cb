package xperf

import "github.com/heaptrace/pkg/model"

// stackAccumulator groups consecutive Stack rows into call stacks.
// A frame with depth 1 seals the open stack and starts the next one.
type stackAccumulator struct {
	active    model.Stack
	completed []model.Stack
}

func (a *stackAccumulator) push(depth uint64, symbol string) {
	if depth == 1 {
		a.seal()
	}
	a.active = append(a.active, symbol)
}

// seal moves a non-empty active stack onto the completed list. Empty stacks
// are never recorded.
func (a *stackAccumulator) seal() {
	if len(a.active) == 0 {
		return
	}
	a.completed = append(a.completed, a.active)
	a.active = nil
}

// finish seals the trailing stack and returns every completed stack in order.
func (a *stackAccumulator) finish() []model.Stack {
	a.seal()
	return a.completed
}
