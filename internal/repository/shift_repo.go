package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
)

// CalloutFilter lists called-out (and optionally covered) shifts of a store.
type CalloutFilter struct {
	StoreID        string
	From           time.Time
	To             time.Time
	IncludeCovered bool
}

// ShiftRepository shift data access.
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	BatchCreate(ctx context.Context, shifts []model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]model.Shift, error)
	// ListActiveByEmployees active shifts of the employees dated within [from, to].
	ListActiveByEmployees(ctx context.Context, employeeIDs []string, from, to time.Time) ([]model.Shift, error)
	ListCallouts(ctx context.Context, f CalloutFilter) ([]model.Shift, error)
	// Update writes the editable columns guarded by version.
	Update(ctx context.Context, shift *model.Shift) error
	// Transition applies updates while the shift is in one of from.
	Transition(ctx context.Context, id string, from []model.ShiftStatus, updates map[string]interface{}) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo creates a ShiftRepository.
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) BatchCreate(ctx context.Context, shifts []model.Shift) error {
	if len(shifts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&shifts, 200).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("Schedule").
		Preload("Employee").
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("schedule_id = ?", scheduleID).
		Order("date ASC, start_time ASC, employee_id ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) ListActiveByEmployees(ctx context.Context, employeeIDs []string, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	if len(employeeIDs) == 0 {
		return shifts, nil
	}
	err := r.db.WithContext(ctx).
		Where("employee_id IN ? AND date >= ? AND date <= ? AND status IN ?",
			employeeIDs, from, to, toStrings(model.ActiveShiftStatuses)).
		Order("date ASC, start_time ASC, shift_id ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) ListCallouts(ctx context.Context, f CalloutFilter) ([]model.Shift, error) {
	var shifts []model.Shift
	statuses := []string{string(model.ShiftCalledOut)}
	if f.IncludeCovered {
		statuses = append(statuses, string(model.ShiftCovered))
	}
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Joins("JOIN schedules ON schedules.schedule_id = shifts.schedule_id").
		Where("schedules.store_id = ? AND shifts.date >= ? AND shifts.date <= ? AND shifts.status IN ?",
			f.StoreID, f.From, f.To, statuses).
		Order("shifts.date ASC, shifts.start_time ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	oldVersion := shift.Version
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("shift_id = ? AND version = ?", shift.ShiftID, oldVersion).
		Updates(map[string]interface{}{
			"employee_id":   shift.EmployeeID,
			"date":          shift.Date,
			"start_time":    shift.StartTime,
			"end_time":      shift.EndTime,
			"break_minutes": shift.BreakMinutes,
			"updated_by":    shift.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Version = oldVersion + 1
	return nil
}

func (r *shiftRepo) Transition(ctx context.Context, id string, from []model.ShiftStatus, updates map[string]interface{}) error {
	return conditionalUpdate(ctx, r.db, &model.Shift{}, "shift_id", id, toStrings(from), updates)
}

func (r *shiftRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Shift{}).Where("shift_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("shift_id = ?", id).Delete(&model.Shift{}).Error
	})
}
