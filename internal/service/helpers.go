package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/compliance"
	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
	"github.com/malamapl09/Picker-Scheduler/pkg/redis"
)

// ── Distributed lock ──

// Locker serializes work on one resource across instances.
type Locker interface {
	// Lock returns an unlock func. ErrBusy when another holder has it.
	Lock(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

type redisLocker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisLocker locks through Redis. A nil client yields a no-op locker;
// Redis errors other than contention are logged and the caller proceeds,
// relying on the conditional updates.
func NewRedisLocker(client *redis.Client, logger *zap.Logger) Locker {
	if client == nil {
		return noopLocker{}
	}
	return &redisLocker{client: client, logger: logger}
}

func (l *redisLocker) Lock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	lock, err := l.client.AcquireLock(ctx, name, ttl)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrLockNotAcquired) {
			return nil, ErrBusy
		}
		l.logger.Warn("redis lock unavailable, continuing without it", zap.String("lock", name), zap.Error(err))
		return func() {}, nil
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// ── Lookups ──

func loadEmployee(ctx context.Context, repo *repository.Repository, logger *zap.Logger, id string) (*model.Employee, error) {
	emp, err := repo.Employee.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		logger.Error("load employee failed", zap.String("employee_id", id), zap.Error(err))
		return nil, err
	}
	return emp, nil
}

func loadStore(ctx context.Context, repo *repository.Repository, logger *zap.Logger, id string) (*model.Store, error) {
	store, err := repo.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		logger.Error("load store failed", zap.String("store_id", id), zap.Error(err))
		return nil, err
	}
	return store, nil
}

// authorizeStore managers act on their own store only; admins without a
// store act on all stores.
func authorizeStore(caller jwt.Identity, storeID string) error {
	if caller.Role == model.RoleAdmin && caller.StoreID == "" {
		return nil
	}
	if caller.StoreID != storeID {
		return ErrForbidden
	}
	return nil
}

// authorizeEmployee the employee themself or a manager of their store.
func authorizeEmployee(caller jwt.Identity, emp *model.Employee) error {
	if caller.IsManager() {
		return authorizeStore(caller, emp.StoreID)
	}
	if caller.EmployeeID != emp.EmployeeID {
		return ErrForbidden
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return d, nil
}

func parseWeekStart(s string) (time.Time, error) {
	d, err := parseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if !model.IsMonday(d) {
		return time.Time{}, ErrInvalidWeekStart
	}
	return d, nil
}

// parseShiftTimes validates "HH:MM" bounds and the break.
func parseShiftTimes(start, end string, breakMinutes int) (int, int, error) {
	s, err := model.ParseClock(start)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidTimeRange, err)
	}
	e, err := model.ParseClock(end)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidTimeRange, err)
	}
	if e <= s {
		return 0, 0, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidTimeRange, end, start)
	}
	if breakMinutes < 0 || breakMinutes >= e-s {
		return 0, 0, fmt.Errorf("%w: break of %d minutes does not fit", ErrInvalidTimeRange, breakMinutes)
	}
	return s, e, nil
}

// ── Compliance inputs ──

// complianceWindow the dates whose shifts can affect a week's findings.
func complianceWindow(weekStart time.Time) (time.Time, time.Time) {
	return weekStart.AddDate(0, 0, -6), weekStart.AddDate(0, 0, 13)
}

func toComplianceShift(s *model.Shift) (compliance.Shift, bool) {
	start, end, err := s.Minutes()
	if err != nil {
		return compliance.Shift{}, false
	}
	return compliance.Shift{
		ID:           s.ShiftID,
		EmployeeID:   s.EmployeeID,
		Date:         s.Date,
		Start:        start,
		End:          end,
		BreakMinutes: s.BreakMinutes,
	}, true
}

// toComplianceShifts converts active shifts, skipping excluded ids.
func toComplianceShifts(shifts []model.Shift, exclude ...string) []compliance.Shift {
	out := make([]compliance.Shift, 0, len(shifts))
	for i := range shifts {
		if !shifts[i].Status.Active() || containsString(exclude, shifts[i].ShiftID) {
			continue
		}
		if cs, ok := toComplianceShift(&shifts[i]); ok {
			out = append(out, cs)
		}
	}
	return out
}

func shiftsByEmployee(shifts []compliance.Shift) map[string][]compliance.Shift {
	out := make(map[string][]compliance.Shift)
	for _, s := range shifts {
		out[s.EmployeeID] = append(out[s.EmployeeID], s)
	}
	return out
}

// loadEmployeeContexts availability and approved time off touching [from, to].
func loadEmployeeContexts(ctx context.Context, repo *repository.Repository, employeeIDs []string, from, to time.Time) (map[string]compliance.EmployeeContext, error) {
	out := make(map[string]compliance.EmployeeContext, len(employeeIDs))
	for _, id := range employeeIDs {
		out[id] = compliance.EmployeeContext{Availability: map[int]compliance.Availability{}}
	}
	if len(employeeIDs) == 0 {
		return out, nil
	}

	avail, err := repo.Availability.ListByEmployees(ctx, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	for _, a := range avail {
		ec := out[a.EmployeeID]
		ec.Availability[a.DayOfWeek] = toComplianceAvailability(a)
		out[a.EmployeeID] = ec
	}

	timeOff, err := repo.TimeOff.ListApprovedOverlapping(ctx, employeeIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("load time off: %w", err)
	}
	for _, t := range timeOff {
		ec := out[t.EmployeeID]
		ec.TimeOff = append(ec.TimeOff, compliance.TimeOff{Start: t.StartDate, End: t.EndDate})
		out[t.EmployeeID] = ec
	}
	return out, nil
}

func toComplianceAvailability(a model.Availability) compliance.Availability {
	out := compliance.Availability{DayOfWeek: a.DayOfWeek, IsAvailable: a.IsAvailable}
	if a.PreferredStart != nil {
		if m, err := model.ParseClock(*a.PreferredStart); err == nil {
			out.PreferredStart = &m
		}
	}
	if a.PreferredEnd != nil {
		if m, err := model.ParseClock(*a.PreferredEnd); err == nil {
			out.PreferredEnd = &m
		}
	}
	return out
}

// engineForStore applies the store's operating hours to the base rules.
func engineForStore(base *compliance.Engine, store *model.Store) *compliance.Engine {
	if store == nil {
		return base
	}
	rules := base.Rules()
	open, errOpen := model.ParseClock(store.OperatingStart)
	closing, errClose := model.ParseClock(store.OperatingEnd)
	if errOpen != nil || errClose != nil || closing <= open {
		return base
	}
	rules.OpenMinute, rules.CloseMinute = open, closing
	return compliance.NewEngine(rules)
}

// ── Response mapping ──

func toEmployeeBrief(e *model.Employee) *dto.EmployeeBrief {
	if e == nil {
		return nil
	}
	return &dto.EmployeeBrief{ID: e.EmployeeID, Name: e.FullName(), StoreID: e.StoreID}
}

func toShiftResponse(s *model.Shift) dto.ShiftResponse {
	return dto.ShiftResponse{
		ID:                 s.ShiftID,
		ScheduleID:         s.ScheduleID,
		EmployeeID:         s.EmployeeID,
		Employee:           toEmployeeBrief(s.Employee),
		Date:               s.Date.Format(model.DateLayout),
		StartTime:          trimClock(s.StartTime),
		EndTime:            trimClock(s.EndTime),
		BreakMinutes:       s.BreakMinutes,
		DurationHours:      s.DurationHours(),
		TotalHours:         s.TotalHours(),
		Status:             string(s.Status),
		CalloutReason:      s.CalloutReason,
		CalloutTime:        formatTimestampPtr(s.CalloutTime),
		OriginalEmployeeID: s.OriginalEmployeeID,
		CoveredByID:        s.CoveredByID,
		Version:            s.Version,
	}
}

func toShiftResponses(shifts []model.Shift) []dto.ShiftResponse {
	out := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		out = append(out, toShiftResponse(&shifts[i]))
	}
	return out
}

// trimClock renders "08:00:00" as "08:00".
func trimClock(s string) string {
	if m, err := model.ParseClock(s); err == nil {
		return model.FormatClock(m)
	}
	return s
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func employeeIDs(emps []model.Employee) []string {
	out := make([]string, len(emps))
	for i, e := range emps {
		out[i] = e.EmployeeID
	}
	return out
}
