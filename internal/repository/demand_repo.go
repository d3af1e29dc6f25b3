package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

// DemandRepository hourly demand data access.
type DemandRepository interface {
	// Upsert replaces required hours per (store, date, hour).
	Upsert(ctx context.Context, rows []model.DemandRequirement) error
	ListByStoreRange(ctx context.Context, storeID string, from, to time.Time) ([]model.DemandRequirement, error)
}

type demandRepo struct {
	db *gorm.DB
}

// NewDemandRepo creates a DemandRepository.
func NewDemandRepo(db *gorm.DB) DemandRepository {
	return &demandRepo{db: db}
}

func (r *demandRepo) Upsert(ctx context.Context, rows []model.DemandRequirement) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "date"}, {Name: "hour"}},
			DoUpdates: clause.AssignmentColumns([]string{"required_hours", "updated_at", "updated_by"}),
		}).
		CreateInBatches(&rows, 200).Error
}

func (r *demandRepo) ListByStoreRange(ctx context.Context, storeID string, from, to time.Time) ([]model.DemandRequirement, error) {
	var rows []model.DemandRequirement
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND date >= ? AND date <= ?", storeID, from, to).
		Order("date ASC, hour ASC").
		Find(&rows).Error
	return rows, err
}
