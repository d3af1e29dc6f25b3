package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
)

// Repository aggregates every table's repository.
type Repository struct {
	db *gorm.DB

	Store           StoreRepository
	User            UserRepository
	Employee        EmployeeRepository
	Availability    AvailabilityRepository
	TimeOff         TimeOffRepository
	Demand          DemandRepository
	Schedule        ScheduleRepository
	Shift           ShiftRepository
	Swap            SwapRepository
	ChangeLog       ScheduleChangeLogRepository
	Notification    NotificationRepository
	OptimizationRun OptimizationRunRepository
}

// NewRepository wires every repository onto db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		Store:           NewStoreRepo(db),
		User:            NewUserRepo(db),
		Employee:        NewEmployeeRepo(db),
		Availability:    NewAvailabilityRepo(db),
		TimeOff:         NewTimeOffRepo(db),
		Demand:          NewDemandRepo(db),
		Schedule:        NewScheduleRepo(db),
		Shift:           NewShiftRepo(db),
		Swap:            NewSwapRepo(db),
		ChangeLog:       NewScheduleChangeLogRepo(db),
		Notification:    NewNotificationRepo(db),
		OptimizationRun: NewOptimizationRunRepo(db),
	}
}

// BeginTx starts a transaction. Returns nil, nil when the repository has no
// database behind it (service tests with mock repositories).
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx returns a Repository bound to tx. A nil tx returns r unchanged.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction runs fn inside one transaction, committing on nil and rolling
// back on error or panic.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}
	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
	}
	return nil
}

// conditionalUpdate applies updates to the row whose idColumn equals id while
// its status is one of from, bumping version. No matching row is ErrStaleState.
func conditionalUpdate(ctx context.Context, db *gorm.DB, table interface{}, idColumn, id string, from []string, updates map[string]interface{}) error {
	values := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")

	result := db.WithContext(ctx).
		Model(table).
		Where(idColumn+" = ? AND status IN ?", id, from).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleState
	}
	return nil
}

func toStrings[S ~string](in []S) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
