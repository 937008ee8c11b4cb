package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/heaptrace/pkg/errors"
	"github.com/heaptrace/pkg/model"
)

func newMockRepo(t *testing.T) (*GormTraceRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewGormTraceRepository(gdb), mock
}

func TestGormTraceRepository_SaveTrace_MySQL(t *testing.T) {
	repo, mock := newMockRepo(t)
	events := []model.ParsedEvent{
		{Action: model.Alloc{Heap: 16, Address: 8192, Size: 64}, Stack: model.Stack{"a!f", "a!g"}},
		{Action: model.Free{Heap: 16, Address: 8192}, Stack: model.Stack{"b!h"}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `trace_runs`").
		WithArgs("run-1", "trace.txt", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO `heap_events`").
		WithArgs(
			int64(7), 0, "alloc", int64(16), int64(8192), int64(64), int64(0), int64(0),
			int64(7), 1, "free", int64(16), int64(8192), int64(0), int64(0), int64(0),
		).
		WillReturnResult(sqlmock.NewResult(100, 2))
	mock.ExpectExec("INSERT INTO `stack_frames`").
		WithArgs(
			int64(100), 1, "a!f",
			int64(100), 2, "a!g",
			int64(101), 1, "b!h",
		).
		WillReturnResult(sqlmock.NewResult(1, 3))
	mock.ExpectCommit()

	run := &TraceRun{RunID: "run-1", Source: "trace.txt"}
	require.NoError(t, repo.SaveTrace(context.Background(), run, events))
	assert.Equal(t, int64(7), run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTraceRepository_SaveTrace_RollbackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `trace_runs`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO `heap_events`").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.SaveTrace(context.Background(), &TraceRun{RunID: "run-2"}, []model.ParsedEvent{
		{Action: model.Create{Heap: 1}, Stack: model.Stack{"a"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatabaseError)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTraceRepository_GetTrace_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `trace_runs`").WillReturnError(errors.New("server gone"))

	_, _, err := repo.GetTrace(context.Background(), "run-3")
	require.Error(t, err)
	assert.True(t, apperrors.IsDatabaseError(err))
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
