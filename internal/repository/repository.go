package repository

import (
	"context"

	"github.com/heaptrace/pkg/model"
)

// TraceRepository stores parsed traces.
type TraceRepository interface {
	// SaveTrace stores a run and all of its events in one transaction.
	// run.ID and run.EventCount are filled in.
	SaveTrace(ctx context.Context, run *TraceRun, events []model.ParsedEvent) error

	// GetTrace loads a run and its events in their original order.
	GetTrace(ctx context.Context, runID string) (*TraceRun, []model.ParsedEvent, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]TraceRun, error)

	// DeleteTrace removes a run with its events and frames.
	DeleteTrace(ctx context.Context, runID string) error
}
