package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
)

// ScheduleFilter list filter. Empty fields are ignored.
type ScheduleFilter struct {
	StoreID string
	Status  model.ScheduleStatus
	From    *time.Time
	To      *time.Time
	Offset  int
	Limit   int
}

// ScheduleRepository store-week schedule data access.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	GetByStoreWeek(ctx context.Context, storeID string, weekStart time.Time) (*model.Schedule, error)
	List(ctx context.Context, f ScheduleFilter) ([]model.Schedule, int64, error)
	// Transition moves the schedule from one of from to the status in updates.
	Transition(ctx context.Context, id string, from []model.ScheduleStatus, updates map[string]interface{}) error
	// BumpVersion increments version if it still equals expected.
	BumpVersion(ctx context.Context, id string, expected int, updatedBy *string) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// ScheduleChangeLogRepository schedule audit log data access.
type ScheduleChangeLogRepository interface {
	Create(ctx context.Context, log *model.ScheduleChangeLog) error
	BatchCreate(ctx context.Context, logs []model.ScheduleChangeLog) error
	ListBySchedule(ctx context.Context, scheduleID string, offset, limit int) ([]model.ScheduleChangeLog, int64, error)
}

// ── Schedule ──

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo creates a ScheduleRepository.
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Preload("Store").
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) GetByStoreWeek(ctx context.Context, storeID string, weekStart time.Time) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND week_start_date = ?", storeID, weekStart).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) List(ctx context.Context, f ScheduleFilter) ([]model.Schedule, int64, error) {
	var schedules []model.Schedule
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Schedule{})
	if f.StoreID != "" {
		db = db.Where("store_id = ?", f.StoreID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.From != nil {
		db = db.Where("week_start_date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("week_start_date <= ?", *f.To)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit > 0 {
		db = db.Offset(f.Offset).Limit(f.Limit)
	}
	err := db.Order("week_start_date DESC, schedule_id ASC").Find(&schedules).Error
	return schedules, total, err
}

func (r *scheduleRepo) Transition(ctx context.Context, id string, from []model.ScheduleStatus, updates map[string]interface{}) error {
	return conditionalUpdate(ctx, r.db, &model.Schedule{}, "schedule_id", id, toStrings(from), updates)
}

func (r *scheduleRepo) BumpVersion(ctx context.Context, id string, expected int, updatedBy *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("schedule_id = ? AND version = ?", id, expected).
		Updates(map[string]interface{}{
			"version":    expected + 1,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Schedule{}).Where("schedule_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		if err := tx.Where("schedule_id = ?", id).Delete(&model.Shift{}).Error; err != nil {
			return err
		}
		return tx.Where("schedule_id = ?", id).Delete(&model.Schedule{}).Error
	})
}

// ── Change log ──

type scheduleChangeLogRepo struct {
	db *gorm.DB
}

// NewScheduleChangeLogRepo creates a ScheduleChangeLogRepository.
func NewScheduleChangeLogRepo(db *gorm.DB) ScheduleChangeLogRepository {
	return &scheduleChangeLogRepo{db: db}
}

func (r *scheduleChangeLogRepo) Create(ctx context.Context, log *model.ScheduleChangeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *scheduleChangeLogRepo) BatchCreate(ctx context.Context, logs []model.ScheduleChangeLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&logs, 200).Error
}

func (r *scheduleChangeLogRepo) ListBySchedule(ctx context.Context, scheduleID string, offset, limit int) ([]model.ScheduleChangeLog, int64, error) {
	var logs []model.ScheduleChangeLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ScheduleChangeLog{}).Where("schedule_id = ?", scheduleID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}
