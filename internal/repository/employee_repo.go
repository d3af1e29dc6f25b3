package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

// EmployeeFilter list filter. Empty fields are ignored.
type EmployeeFilter struct {
	StoreID string
	Status  model.EmployeeStatus
	Keyword string
	Offset  int
	Limit   int
}

// EmployeeRepository picker data access.
type EmployeeRepository interface {
	Create(ctx context.Context, emp *model.Employee) error
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	GetByUserID(ctx context.Context, userID string) (*model.Employee, error)
	// ListByStore returns employees ordered by id. activeOnly filters status=active.
	ListByStore(ctx context.Context, storeID string, activeOnly bool) ([]model.Employee, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Employee, error)
	List(ctx context.Context, f EmployeeFilter) ([]model.Employee, int64, error)
	Update(ctx context.Context, emp *model.Employee) error
}

type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo creates an EmployeeRepository.
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) Create(ctx context.Context, emp *model.Employee) error {
	return r.db.WithContext(ctx).Create(emp).Error
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var emp model.Employee
	if err := r.db.WithContext(ctx).Where("employee_id = ?", id).First(&emp).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) GetByUserID(ctx context.Context, userID string) (*model.Employee, error) {
	var emp model.Employee
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&emp).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) ListByStore(ctx context.Context, storeID string, activeOnly bool) ([]model.Employee, error) {
	var emps []model.Employee
	db := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if activeOnly {
		db = db.Where("status = ?", model.EmployeeActive)
	}
	err := db.Order("employee_id ASC").Find(&emps).Error
	return emps, err
}

func (r *employeeRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Employee, error) {
	var emps []model.Employee
	if len(ids) == 0 {
		return emps, nil
	}
	err := r.db.WithContext(ctx).Where("employee_id IN ?", ids).Order("employee_id ASC").Find(&emps).Error
	return emps, err
}

func (r *employeeRepo) List(ctx context.Context, f EmployeeFilter) ([]model.Employee, int64, error) {
	var emps []model.Employee
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Employee{})
	if f.StoreID != "" {
		db = db.Where("store_id = ?", f.StoreID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.Keyword != "" {
		like := "%" + strings.ToLower(f.Keyword) + "%"
		db = db.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit > 0 {
		db = db.Offset(f.Offset).Limit(f.Limit)
	}
	err := db.Order("last_name ASC, first_name ASC, employee_id ASC").Find(&emps).Error
	return emps, total, err
}

func (r *employeeRepo) Update(ctx context.Context, emp *model.Employee) error {
	return r.db.WithContext(ctx).Save(emp).Error
}
