package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobRunRecord is one row of job history
type JobRunRecord struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	TenantID    uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	JobType     string     `gorm:"column:job_type;size:50;not null"`
	Status      string     `gorm:"column:status;size:20;not null"`
	Error       string     `gorm:"column:error;type:text"`
	StartedAt   time.Time  `gorm:"column:started_at;not null"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
}

// TableName returns the table name for GORM
func (JobRunRecord) TableName() string {
	return "scheduler_job_runs"
}

// JobHistoryRepository stores job runs with GORM
type JobHistoryRepository struct {
	db *gorm.DB
}

func NewJobHistoryRepository(db *gorm.DB) *JobHistoryRepository {
	return &JobHistoryRepository{db: db}
}

// RecordJobStart inserts a RUNNING row
func (r *JobHistoryRepository) RecordJobStart(ctx context.Context, tenantID uuid.UUID, jobType JobType) (uuid.UUID, error) {
	record := &JobRunRecord{
		ID:        uuid.New(),
		TenantID:  tenantID,
		JobType:   string(jobType),
		Status:    string(JobStatusRunning),
		StartedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return uuid.Nil, err
	}
	return record.ID, nil
}

// RecordJobComplete closes a run
func (r *JobHistoryRepository) RecordJobComplete(ctx context.Context, runID uuid.UUID, success bool, errMsg string) error {
	status := JobStatusSuccess
	if !success {
		status = JobStatusFailed
	}
	return r.db.WithContext(ctx).
		Model(&JobRunRecord{}).
		Where("id = ?", runID).
		Updates(map[string]any{
			"status":       string(status),
			"error":        errMsg,
			"completed_at": time.Now(),
		}).Error
}

// LastRun returns the most recent run of a job type for a tenant
func (r *JobHistoryRepository) LastRun(ctx context.Context, tenantID uuid.UUID, jobType JobType) (*JobRunRecord, error) {
	var record JobRunRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND job_type = ?", tenantID, string(jobType)).
		Order("started_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

var _ JobRecorder = (*JobHistoryRepository)(nil)
