package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/heaptrace/pkg/errors"
	"github.com/heaptrace/pkg/model"
)

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 500

// GormTraceRepository implements TraceRepository using GORM.
type GormTraceRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewGormTraceRepository creates a new GormTraceRepository.
func NewGormTraceRepository(db *gorm.DB) *GormTraceRepository {
	return &GormTraceRepository{db: db, batchSize: DefaultBatchSize}
}

// WithBatchSize sets the rows per INSERT. Values below 1 are ignored.
func (r *GormTraceRepository) WithBatchSize(n int) *GormTraceRepository {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

// SaveTrace stores run, then events, then their frames.
func (r *GormTraceRepository) SaveTrace(ctx context.Context, run *TraceRun, events []model.ParsedEvent) error {
	records := make([]HeapEventRecord, len(events))
	for i, e := range events {
		rec, err := NewHeapEventRecord(0, i, e)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "cannot store trace", err)
		}
		records[i] = rec
	}

	run.EventCount = len(events)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		for i := range records {
			records[i].TraceRunID = run.ID
		}
		if err := tx.CreateInBatches(&records, r.batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert events: %w", err)
		}

		var frames []StackFrameRecord
		for i, e := range events {
			for depth, symbol := range e.Stack {
				frames = append(frames, StackFrameRecord{
					HeapEventID: records[i].ID,
					Depth:       depth + 1,
					Symbol:      symbol,
				})
			}
		}
		if len(frames) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&frames, r.batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert stack frames: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to save trace "+run.RunID, err)
	}
	return nil
}

// GetTrace loads a run by its run ID.
func (r *GormTraceRepository) GetTrace(ctx context.Context, runID string) (*TraceRun, []model.ParsedEvent, error) {
	db := r.db.WithContext(ctx)

	run, err := r.findRun(db, runID)
	if err != nil {
		return nil, nil, err
	}

	var records []HeapEventRecord
	err = db.
		Where("trace_run_id = ?", run.ID).
		Order("seq").
		Preload("Frames", func(db *gorm.DB) *gorm.DB {
			return db.Order("depth")
		}).
		Find(&records).Error
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to load events", err)
	}

	events := make([]model.ParsedEvent, len(records))
	for i := range records {
		if events[i], err = records[i].ToModel(); err != nil {
			return nil, nil, apperrors.Wrap(apperrors.CodeDatabaseError, "corrupt event row", err)
		}
	}
	return run, events, nil
}

// ListRuns returns up to limit runs, newest first.
func (r *GormTraceRepository) ListRuns(ctx context.Context, limit int) ([]TraceRun, error) {
	var runs []TraceRun
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to list runs", err)
	}
	return runs, nil
}

// DeleteTrace removes a run and everything stored under it.
func (r *GormTraceRepository) DeleteTrace(ctx context.Context, runID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run, err := r.findRun(tx, runID)
		if err != nil {
			return err
		}

		events := tx.Model(&HeapEventRecord{}).Select("id").Where("trace_run_id = ?", run.ID)
		if err := tx.Where("heap_event_id IN (?)", events).Delete(&StackFrameRecord{}).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to delete stack frames", err)
		}
		if err := tx.Where("trace_run_id = ?", run.ID).Delete(&HeapEventRecord{}).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to delete events", err)
		}
		if err := tx.Delete(run).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to delete run", err)
		}
		return nil
	})
}

func (r *GormTraceRepository) findRun(db *gorm.DB, runID string) (*TraceRun, error) {
	var run TraceRun
	err := db.Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, "trace run not found: "+runID, err)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to get run", err)
	}
	return &run, nil
}
