package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/heaptrace/internal/repository"
	"github.com/heaptrace/pkg/model"
)

// MockTraceRepository is a mock implementation of the TraceRepository interface.
type MockTraceRepository struct {
	mock.Mock
}

// SaveTrace mocks the SaveTrace method. A non-nil error from the expectation
// leaves run untouched; otherwise run.ID is set to the second return value.
func (m *MockTraceRepository) SaveTrace(ctx context.Context, run *repository.TraceRun, events []model.ParsedEvent) error {
	args := m.Called(ctx, run, events)
	if err := args.Error(0); err != nil {
		return err
	}
	run.EventCount = len(events)
	if len(args) > 1 {
		run.ID = args.Get(1).(int64)
	}
	return nil
}

// GetTrace mocks the GetTrace method.
func (m *MockTraceRepository) GetTrace(ctx context.Context, runID string) (*repository.TraceRun, []model.ParsedEvent, error) {
	args := m.Called(ctx, runID)
	var run *repository.TraceRun
	if v := args.Get(0); v != nil {
		run = v.(*repository.TraceRun)
	}
	var events []model.ParsedEvent
	if v := args.Get(1); v != nil {
		events = v.([]model.ParsedEvent)
	}
	return run, events, args.Error(2)
}

// ListRuns mocks the ListRuns method.
func (m *MockTraceRepository) ListRuns(ctx context.Context, limit int) ([]repository.TraceRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.TraceRun), args.Error(1)
}

// DeleteTrace mocks the DeleteTrace method.
func (m *MockTraceRepository) DeleteTrace(ctx context.Context, runID string) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

// ExpectSaveTrace sets up an expectation for SaveTrace of any run.
func (m *MockTraceRepository) ExpectSaveTrace(id int64, err error) *mock.Call {
	return m.On("SaveTrace", mock.Anything, mock.AnythingOfType("*repository.TraceRun"), mock.Anything).Return(err, id)
}

// ExpectGetTrace sets up an expectation for GetTrace.
func (m *MockTraceRepository) ExpectGetTrace(runID string, run *repository.TraceRun, events []model.ParsedEvent, err error) *mock.Call {
	return m.On("GetTrace", mock.Anything, runID).Return(run, events, err)
}

// ExpectListRuns sets up an expectation for ListRuns.
func (m *MockTraceRepository) ExpectListRuns(limit int, runs []repository.TraceRun, err error) *mock.Call {
	return m.On("ListRuns", mock.Anything, limit).Return(runs, err)
}
