package xperf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heaptrace/internal/parser"
	apperrors "github.com/heaptrace/pkg/errors"
	"github.com/heaptrace/pkg/model"
)

func TestPair(t *testing.T) {
	actions := []model.HeapAction{
		model.Create{Heap: 0x10},
		model.Alloc{Heap: 0x10, Address: 0x2000, Size: 0x40},
		model.Free{Heap: 0x10, Address: 0x2000},
	}
	stacks := []model.Stack{{"a"}, {"b", "c"}, {"d"}}

	events, err := Pair(actions, stacks)
	require.NoError(t, err)
	require.Len(t, events, 3)

	for i := range events {
		assert.Equal(t, actions[i], events[i].Action)
		assert.Equal(t, stacks[i], events[i].Stack)
	}
}

func TestPair_Empty(t *testing.T) {
	events, err := Pair(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPair_CountMismatch(t *testing.T) {
	tests := []struct {
		name    string
		actions []model.HeapAction
		stacks  []model.Stack
	}{
		{
			name:    "event without stack",
			actions: []model.HeapAction{model.Alloc{Heap: 1, Address: 2, Size: 3}},
		},
		{
			name:   "stack without event",
			stacks: []model.Stack{{"a"}},
		},
		{
			name:    "more events than stacks",
			actions: []model.HeapAction{model.Create{Heap: 1}, model.Destroy{Heap: 1}},
			stacks:  []model.Stack{{"a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := Pair(tt.actions, tt.stacks)
			assert.Nil(t, events)
			require.ErrorIs(t, err, parser.ErrCountMismatch)
			assert.True(t, apperrors.IsConsistencyError(err))
		})
	}
}
