package syncqueue

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMStore is a gorm implementation of Store.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore migrates the sync_jobs table and returns the store.
func NewGORMStore(db *gorm.DB) (*GORMStore, error) {
	if err := db.AutoMigrate(&Job{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sync_jobs: %w", err)
	}
	return &GORMStore{db: db}, nil
}

func (s *GORMStore) Put(ctx context.Context, job Job) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&job).Error; err != nil {
		return fmt.Errorf("failed to save sync job %s: %w", job.Key, err)
	}
	return nil
}

func (s *GORMStore) PutIfCurrent(ctx context.Context, job Job) (bool, error) {
	res := s.db.WithContext(ctx).Model(&Job{}).
		Where("job_key = ? AND id = ?", job.Key, job.ID).
		Updates(map[string]any{
			"state":      job.State,
			"attempts":   job.Attempts,
			"last_error": job.LastError,
			"updated_at": job.UpdatedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update sync job %s: %w", job.Key, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GORMStore) Get(ctx context.Context, key string) (Job, error) {
	var job Job
	if err := s.db.WithContext(ctx).First(&job, "job_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Job{}, ErrJobNotFound
		}
		return Job{}, fmt.Errorf("failed to get sync job %s: %w", key, err)
	}
	return job, nil
}

func (s *GORMStore) Pending(ctx context.Context) ([]Job, error) {
	var jobs []Job
	err := s.db.WithContext(ctx).Where("state = ?", StatePending).Order("created_at").Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending sync jobs: %w", err)
	}
	return jobs, nil
}
