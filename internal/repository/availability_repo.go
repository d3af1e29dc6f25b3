package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

// AvailabilityRepository weekly availability data access.
type AvailabilityRepository interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]model.Availability, error)
	ListByEmployees(ctx context.Context, employeeIDs []string) ([]model.Availability, error)
	// Upsert inserts or replaces one row per (employee, day).
	Upsert(ctx context.Context, rows []model.Availability) error
}

type availabilityRepo struct {
	db *gorm.DB
}

// NewAvailabilityRepo creates an AvailabilityRepository.
func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) ListByEmployee(ctx context.Context, employeeID string) ([]model.Availability, error) {
	var rows []model.Availability
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("day_of_week ASC").
		Find(&rows).Error
	return rows, err
}

func (r *availabilityRepo) ListByEmployees(ctx context.Context, employeeIDs []string) ([]model.Availability, error) {
	var rows []model.Availability
	if len(employeeIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("employee_id IN ?", employeeIDs).
		Order("employee_id ASC, day_of_week ASC").
		Find(&rows).Error
	return rows, err
}

func (r *availabilityRepo) Upsert(ctx context.Context, rows []model.Availability) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "day_of_week"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_available", "preferred_start", "preferred_end", "updated_at", "updated_by"}),
		}).
		Create(&rows).Error
}
