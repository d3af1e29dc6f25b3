package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

// TimeOffFilter list filter. Empty fields are ignored.
type TimeOffFilter struct {
	StoreID    string
	EmployeeID string
	Status     model.TimeOffStatus
	Offset     int
	Limit      int
}

// TimeOffRepository time-off request data access.
type TimeOffRepository interface {
	Create(ctx context.Context, req *model.TimeOffRequest) error
	GetByID(ctx context.Context, id string) (*model.TimeOffRequest, error)
	List(ctx context.Context, f TimeOffFilter) ([]model.TimeOffRequest, int64, error)
	// ListApprovedOverlapping approved requests of the employees touching [from, to].
	ListApprovedOverlapping(ctx context.Context, employeeIDs []string, from, to time.Time) ([]model.TimeOffRequest, error)
	// Transition moves the request from one of from to the status in updates.
	Transition(ctx context.Context, id string, from []model.TimeOffStatus, updates map[string]interface{}) error
}

type timeOffRepo struct {
	db *gorm.DB
}

// NewTimeOffRepo creates a TimeOffRepository.
func NewTimeOffRepo(db *gorm.DB) TimeOffRepository {
	return &timeOffRepo{db: db}
}

func (r *timeOffRepo) Create(ctx context.Context, req *model.TimeOffRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *timeOffRepo) GetByID(ctx context.Context, id string) (*model.TimeOffRequest, error) {
	var req model.TimeOffRequest
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("time_off_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *timeOffRepo) List(ctx context.Context, f TimeOffFilter) ([]model.TimeOffRequest, int64, error) {
	var reqs []model.TimeOffRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.TimeOffRequest{})
	if f.StoreID != "" {
		db = db.Where("employee_id IN (?)",
			r.db.Model(&model.Employee{}).Select("employee_id").Where("store_id = ?", f.StoreID))
	}
	if f.EmployeeID != "" {
		db = db.Where("employee_id = ?", f.EmployeeID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit > 0 {
		db = db.Offset(f.Offset).Limit(f.Limit)
	}
	err := db.Preload("Employee").Order("start_date DESC, time_off_request_id ASC").Find(&reqs).Error
	return reqs, total, err
}

func (r *timeOffRepo) ListApprovedOverlapping(ctx context.Context, employeeIDs []string, from, to time.Time) ([]model.TimeOffRequest, error) {
	var reqs []model.TimeOffRequest
	if len(employeeIDs) == 0 {
		return reqs, nil
	}
	err := r.db.WithContext(ctx).
		Where("employee_id IN ? AND status = ? AND start_date <= ? AND end_date >= ?",
			employeeIDs, model.TimeOffApproved, to, from).
		Order("start_date ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *timeOffRepo) Transition(ctx context.Context, id string, from []model.TimeOffStatus, updates map[string]interface{}) error {
	return conditionalUpdate(ctx, r.db, &model.TimeOffRequest{}, "time_off_request_id", id, toStrings(from), updates)
}
