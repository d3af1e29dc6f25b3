package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

// OptimizationRunRepository solver audit data access.
type OptimizationRunRepository interface {
	Create(ctx context.Context, run *model.OptimizationRun) error
	GetByID(ctx context.Context, id string) (*model.OptimizationRun, error)
	AttachSchedule(ctx context.Context, id, scheduleID string) error
}

type optimizationRunRepo struct {
	db *gorm.DB
}

// NewOptimizationRunRepo creates an OptimizationRunRepository.
func NewOptimizationRunRepo(db *gorm.DB) OptimizationRunRepository {
	return &optimizationRunRepo{db: db}
}

func (r *optimizationRunRepo) Create(ctx context.Context, run *model.OptimizationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *optimizationRunRepo) GetByID(ctx context.Context, id string) (*model.OptimizationRun, error) {
	var run model.OptimizationRun
	if err := r.db.WithContext(ctx).Where("optimization_run_id = ?", id).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *optimizationRunRepo) AttachSchedule(ctx context.Context, id, scheduleID string) error {
	return r.db.WithContext(ctx).
		Model(&model.OptimizationRun{}).
		Where("optimization_run_id = ?", id).
		Update("schedule_id", scheduleID).Error
}
