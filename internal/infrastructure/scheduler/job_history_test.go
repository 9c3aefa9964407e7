package scheduler

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newHistoryRepo(t *testing.T) *JobHistoryRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&JobRunRecord{}))
	return NewJobHistoryRepository(db)
}

func TestJobHistoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := newHistoryRepo(t)
	tenantID := uuid.New()

	runID, err := repo.RecordJobStart(ctx, tenantID, JobTypeMarkOverdue)
	require.NoError(t, err)

	last, err := repo.LastRun(ctx, tenantID, JobTypeMarkOverdue)
	require.NoError(t, err)
	assert.Equal(t, runID, last.ID)
	assert.Equal(t, string(JobStatusRunning), last.Status)
	assert.Nil(t, last.CompletedAt)

	require.NoError(t, repo.RecordJobComplete(ctx, runID, false, "timeout"))
	last, err = repo.LastRun(ctx, tenantID, JobTypeMarkOverdue)
	require.NoError(t, err)
	assert.Equal(t, string(JobStatusFailed), last.Status)
	assert.Equal(t, "timeout", last.Error)
	assert.NotNil(t, last.CompletedAt)

	_, err = repo.LastRun(ctx, tenantID, JobTypeRefreshSnapshots)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
