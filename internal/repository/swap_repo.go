package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

// SwapFilter list filter. Empty fields are ignored.
type SwapFilter struct {
	StoreID    string
	EmployeeID string // requester or acceptor
	Status     model.SwapStatus
	Offset     int
	Limit      int
}

// SwapRepository shift swap data access.
type SwapRepository interface {
	Create(ctx context.Context, swap *model.ShiftSwap) error
	GetByID(ctx context.Context, id string) (*model.ShiftSwap, error)
	List(ctx context.Context, f SwapFilter) ([]model.ShiftSwap, int64, error)
	// ListAvailable open, undirected pending swaps of a store from other
	// employees whose requester shift is dated on or after since, newest first.
	ListAvailable(ctx context.Context, storeID, excludeEmployeeID string, since time.Time) ([]model.ShiftSwap, error)
	// CountOpenForShift open swaps naming the shift on either side.
	CountOpenForShift(ctx context.Context, shiftID string) (int64, error)
	// Transition applies updates while the swap is in one of from.
	Transition(ctx context.Context, id string, from []model.SwapStatus, updates map[string]interface{}) error
}

type swapRepo struct {
	db *gorm.DB
}

// NewSwapRepo creates a SwapRepository.
func NewSwapRepo(db *gorm.DB) SwapRepository {
	return &swapRepo{db: db}
}

func (r *swapRepo) Create(ctx context.Context, swap *model.ShiftSwap) error {
	return r.db.WithContext(ctx).Create(swap).Error
}

func (r *swapRepo) GetByID(ctx context.Context, id string) (*model.ShiftSwap, error) {
	var swap model.ShiftSwap
	err := r.db.WithContext(ctx).
		Preload("RequesterShift").Preload("RequesterShift.Employee").
		Preload("RequestedShift").Preload("RequestedShift.Employee").
		Where("shift_swap_id = ?", id).
		First(&swap).Error
	if err != nil {
		return nil, err
	}
	return &swap, nil
}

func (r *swapRepo) List(ctx context.Context, f SwapFilter) ([]model.ShiftSwap, int64, error) {
	var swaps []model.ShiftSwap
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ShiftSwap{}).
		Joins("JOIN shifts rs ON rs.shift_id = shift_swaps.requester_shift_id")
	if f.StoreID != "" {
		db = db.Joins("JOIN employees re ON re.employee_id = rs.employee_id").
			Where("re.store_id = ?", f.StoreID)
	}
	if f.EmployeeID != "" {
		db = db.Joins("LEFT JOIN shifts qs ON qs.shift_id = shift_swaps.requested_shift_id").
			Where("rs.employee_id = ? OR qs.employee_id = ?", f.EmployeeID, f.EmployeeID)
	}
	if f.Status != "" {
		db = db.Where("shift_swaps.status = ?", f.Status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit > 0 {
		db = db.Offset(f.Offset).Limit(f.Limit)
	}
	err := db.
		Preload("RequesterShift").Preload("RequesterShift.Employee").
		Preload("RequestedShift").Preload("RequestedShift.Employee").
		Order("shift_swaps.created_at DESC, shift_swaps.shift_swap_id ASC").
		Find(&swaps).Error
	return swaps, total, err
}

func (r *swapRepo) ListAvailable(ctx context.Context, storeID, excludeEmployeeID string, since time.Time) ([]model.ShiftSwap, error) {
	var swaps []model.ShiftSwap
	err := r.db.WithContext(ctx).
		Joins("JOIN shifts rs ON rs.shift_id = shift_swaps.requester_shift_id").
		Joins("JOIN employees re ON re.employee_id = rs.employee_id").
		Where("shift_swaps.status = ? AND shift_swaps.requested_shift_id IS NULL", model.SwapPending).
		Where("re.store_id = ? AND rs.employee_id <> ? AND rs.date >= ?", storeID, excludeEmployeeID, since).
		Preload("RequesterShift").Preload("RequesterShift.Employee").
		Order("shift_swaps.created_at DESC, shift_swaps.shift_swap_id ASC").
		Find(&swaps).Error
	return swaps, err
}

func (r *swapRepo) CountOpenForShift(ctx context.Context, shiftID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ShiftSwap{}).
		Where("(requester_shift_id = ? OR requested_shift_id = ?) AND status IN ?",
			shiftID, shiftID, toStrings(model.OpenSwapStatuses)).
		Count(&n).Error
	return n, err
}

func (r *swapRepo) Transition(ctx context.Context, id string, from []model.SwapStatus, updates map[string]interface{}) error {
	return conditionalUpdate(ctx, r.db, &model.ShiftSwap{}, "shift_swap_id", id, toStrings(from), updates)
}
