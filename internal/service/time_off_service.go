package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// ── Time-off errors ──

var (
	ErrTimeOffNotFound = errors.New("time-off request not found")
	ErrTimeOffConflict = errors.New("time-off request was changed by another request")
	ErrTimeOffOverlap  = errors.New("overlaps an existing time-off request")
	ErrInvalidCalendar = errors.New("invalid calendar file")
)

// TimeOffService time-off requests and their calendar feeds.
type TimeOffService interface {
	Request(ctx context.Context, caller jwt.Identity, req *dto.CreateTimeOffRequest) (*dto.TimeOffResponse, error)
	// Approve also reports the active shifts the range overlaps; they are
	// left for the manager to reassign.
	Approve(ctx context.Context, caller jwt.Identity, id string) (*dto.ApproveTimeOffResponse, error)
	Deny(ctx context.Context, caller jwt.Identity, id string) (*dto.TimeOffResponse, error)
	Cancel(ctx context.Context, caller jwt.Identity, id string) (*dto.TimeOffResponse, error)
	List(ctx context.Context, caller jwt.Identity, req *dto.TimeOffListRequest) ([]dto.TimeOffResponse, int64, error)
	// ExportCalendar approved time off of one employee as ICS.
	ExportCalendar(ctx context.Context, caller jwt.Identity, employeeID string) ([]byte, string, error)
	// ImportCalendar files one pending request per calendar event.
	ImportCalendar(ctx context.Context, caller jwt.Identity, employeeID string, r io.Reader) (*dto.ImportTimeOffResponse, error)
}

type timeOffService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewTimeOffService creates a TimeOffService.
func NewTimeOffService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) TimeOffService {
	return &timeOffService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *timeOffService) Request(ctx context.Context, caller jwt.Identity, req *dto.CreateTimeOffRequest) (*dto.TimeOffResponse, error) {
	emp, err := s.targetEmployee(ctx, caller, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidDate, req.EndDate, req.StartDate)
	}

	existing, err := s.openRequests(ctx, emp.EmployeeID)
	if err != nil {
		return nil, err
	}
	if overlapsAny(existing, start, end) {
		return nil, ErrTimeOffOverlap
	}

	item := &model.TimeOffRequest{
		EmployeeID: emp.EmployeeID,
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
		Status:     model.TimeOffPending,
	}
	item.CreatedBy = actor(caller)
	if err := s.repo.TimeOff.Create(ctx, item); err != nil {
		s.logger.Error("create time-off request failed", zap.Error(err))
		return nil, err
	}
	item.Employee = emp

	s.logger.Info("time off requested",
		zap.String("time_off_id", item.TimeOffRequestID),
		zap.String("employee_id", emp.EmployeeID))
	resp := toTimeOffResponse(item)
	return &resp, nil
}

func (s *timeOffService) Approve(ctx context.Context, caller jwt.Identity, id string) (*dto.ApproveTimeOffResponse, error) {
	item, err := s.review(ctx, caller, id, model.TimeOffEventApprove)
	if err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shift.ListActiveByEmployees(ctx, []string{item.EmployeeID}, item.StartDate, item.EndDate)
	if err != nil {
		s.logger.Error("list shifts overlapping time off failed", zap.String("time_off_id", id), zap.Error(err))
		return nil, err
	}

	notify(ctx, s.notifier, s.logger, Event{
		Type:        model.NotifyTimeOffApproved,
		EmployeeIDs: []string{item.EmployeeID},
		Title:       "Time off approved",
		Message:     fmt.Sprintf("Your time off from %s to %s was approved.", item.StartDate.Format(model.DateLayout), item.EndDate.Format(model.DateLayout)),
		Payload:     map[string]interface{}{"conflicting_shifts": len(shifts)},
		RelatedType: "time_off",
		RelatedID:   item.TimeOffRequestID,
	})
	if len(shifts) > 0 {
		s.logger.Warn("approved time off overlaps scheduled shifts",
			zap.String("time_off_id", id),
			zap.Int("shifts", len(shifts)))
	}

	return &dto.ApproveTimeOffResponse{
		Request:           toTimeOffResponse(item),
		ConflictingShifts: toShiftResponses(shifts),
	}, nil
}

func (s *timeOffService) Deny(ctx context.Context, caller jwt.Identity, id string) (*dto.TimeOffResponse, error) {
	item, err := s.review(ctx, caller, id, model.TimeOffEventDeny)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, s.logger, Event{
		Type:        model.NotifyTimeOffDenied,
		EmployeeIDs: []string{item.EmployeeID},
		Title:       "Time off denied",
		Message:     fmt.Sprintf("Your time off from %s to %s was denied.", item.StartDate.Format(model.DateLayout), item.EndDate.Format(model.DateLayout)),
		RelatedType: "time_off",
		RelatedID:   item.TimeOffRequestID,
	})
	resp := toTimeOffResponse(item)
	return &resp, nil
}

func (s *timeOffService) Cancel(ctx context.Context, caller jwt.Identity, id string) (*dto.TimeOffResponse, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, item.Employee); err != nil {
		return nil, err
	}
	next, err := item.Status.Next(model.TimeOffEventCancel)
	if err != nil {
		return nil, err
	}

	err = s.repo.TimeOff.Transition(ctx, id, []model.TimeOffStatus{item.Status}, map[string]interface{}{
		"status":     next,
		"updated_by": actor(caller),
	})
	if err != nil {
		return nil, s.transitionError(id, err)
	}
	return s.reload(ctx, id)
}

func (s *timeOffService) List(ctx context.Context, caller jwt.Identity, req *dto.TimeOffListRequest) ([]dto.TimeOffResponse, int64, error) {
	f := repository.TimeOffFilter{
		StoreID:    req.StoreID,
		EmployeeID: req.EmployeeID,
		Status:     model.TimeOffStatus(req.Status),
		Offset:     req.GetOffset(),
		Limit:      req.GetPageSize(),
	}
	switch {
	case !caller.IsManager():
		if caller.EmployeeID == "" {
			return nil, 0, ErrNoEmployeeProfile
		}
		f.EmployeeID = caller.EmployeeID
		f.StoreID = ""
	case caller.StoreID != "":
		f.StoreID = caller.StoreID
	}

	items, total, err := s.repo.TimeOff.List(ctx, f)
	if err != nil {
		s.logger.Error("list time-off requests failed", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.TimeOffResponse, 0, len(items))
	for i := range items {
		out = append(out, toTimeOffResponse(&items[i]))
	}
	return out, total, nil
}

// ════════════════════════════════════════════════════════════
// Calendar
// ════════════════════════════════════════════════════════════

func (s *timeOffService) ExportCalendar(ctx context.Context, caller jwt.Identity, employeeID string) ([]byte, string, error) {
	emp, err := loadEmployee(ctx, s.repo, s.logger, employeeID)
	if err != nil {
		return nil, "", err
	}
	if err := authorizeEmployee(caller, emp); err != nil {
		return nil, "", err
	}

	items, _, err := s.repo.TimeOff.List(ctx, repository.TimeOffFilter{
		EmployeeID: emp.EmployeeID,
		Status:     model.TimeOffApproved,
	})
	if err != nil {
		s.logger.Error("list approved time off failed", zap.Error(err))
		return nil, "", err
	}

	cal := newCalendar(emp.FullName() + " time off")
	stamp := s.now().UTC()
	for _, item := range items {
		addAllDayEvent(cal, item.TimeOffRequestID, "Time off", item.Reason, item.StartDate, item.EndDate, stamp)
	}

	filename := fmt.Sprintf("time-off-%s.ics", emp.EmployeeID)
	return []byte(cal.Serialize()), filename, nil
}

func (s *timeOffService) ImportCalendar(ctx context.Context, caller jwt.Identity, employeeID string, r io.Reader) (*dto.ImportTimeOffResponse, error) {
	emp, err := s.targetEmployee(ctx, caller, employeeID)
	if err != nil {
		return nil, err
	}
	loc := time.UTC
	if store, err := s.repo.Store.GetByID(ctx, emp.StoreID); err == nil {
		loc = storeLocation(store.Timezone)
	}

	ranges, skipped, err := parseTimeOffCalendar(r, loc)
	if err != nil {
		return nil, err
	}
	existing, err := s.openRequests(ctx, emp.EmployeeID)
	if err != nil {
		return nil, err
	}

	today := model.DateOnly(s.now().In(loc))
	resp := &dto.ImportTimeOffResponse{Created: []dto.TimeOffResponse{}, Skipped: skipped}
	for _, rng := range ranges {
		if rng.End.Before(today) || overlapsAny(existing, rng.Start, rng.End) {
			resp.Skipped++
			continue
		}
		item := &model.TimeOffRequest{
			EmployeeID: emp.EmployeeID,
			StartDate:  rng.Start,
			EndDate:    rng.End,
			Reason:     truncate(rng.Summary, 500),
			Status:     model.TimeOffPending,
		}
		item.CreatedBy = actor(caller)
		if err := s.repo.TimeOff.Create(ctx, item); err != nil {
			s.logger.Error("import time-off request failed", zap.String("uid", rng.UID), zap.Error(err))
			return nil, err
		}
		item.Employee = emp
		existing = append(existing, *item)
		resp.Created = append(resp.Created, toTimeOffResponse(item))
	}

	s.logger.Info("time off imported",
		zap.String("employee_id", emp.EmployeeID),
		zap.Int("created", len(resp.Created)),
		zap.Int("skipped", resp.Skipped))
	return resp, nil
}

// ── Internal ──

// review moves a pending request along ev on behalf of a store manager.
func (s *timeOffService) review(ctx context.Context, caller jwt.Identity, id string, ev model.TimeOffEvent) (*model.TimeOffRequest, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeStore(caller, item.Employee.StoreID); err != nil {
		return nil, err
	}
	next, err := item.Status.Next(ev)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.repo.TimeOff.Transition(ctx, id, []model.TimeOffStatus{model.TimeOffPending}, map[string]interface{}{
		"status":      next,
		"reviewed_by": actor(caller),
		"reviewed_at": now,
		"updated_by":  actor(caller),
	})
	if err != nil {
		return nil, s.transitionError(id, err)
	}

	item.Status = next
	item.ReviewedBy = actor(caller)
	item.ReviewedAt = &now
	item.Version++
	return item, nil
}

// targetEmployee the caller's own profile, or employeeID for managers.
func (s *timeOffService) targetEmployee(ctx context.Context, caller jwt.Identity, employeeID string) (*model.Employee, error) {
	if employeeID == "" {
		if caller.EmployeeID == "" {
			return nil, ErrNoEmployeeProfile
		}
		employeeID = caller.EmployeeID
	}
	emp, err := loadEmployee(ctx, s.repo, s.logger, employeeID)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, emp); err != nil {
		return nil, err
	}
	return emp, nil
}

// openRequests pending and approved requests of the employee.
func (s *timeOffService) openRequests(ctx context.Context, employeeID string) ([]model.TimeOffRequest, error) {
	items, _, err := s.repo.TimeOff.List(ctx, repository.TimeOffFilter{EmployeeID: employeeID})
	if err != nil {
		s.logger.Error("list time-off requests failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if it.Status == model.TimeOffPending || it.Status == model.TimeOffApproved {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *timeOffService) load(ctx context.Context, id string) (*model.TimeOffRequest, error) {
	item, err := s.repo.TimeOff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeOffNotFound
		}
		s.logger.Error("load time-off request failed", zap.String("time_off_id", id), zap.Error(err))
		return nil, err
	}
	if item.Employee == nil {
		return nil, ErrEmployeeNotFound
	}
	return item, nil
}

func (s *timeOffService) reload(ctx context.Context, id string) (*dto.TimeOffResponse, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toTimeOffResponse(item)
	return &resp, nil
}

func (s *timeOffService) transitionError(id string, err error) error {
	if errors.Is(err, pkgerrors.ErrStaleState) {
		return ErrTimeOffConflict
	}
	s.logger.Error("time-off transition failed", zap.String("time_off_id", id), zap.Error(err))
	return err
}

func overlapsAny(items []model.TimeOffRequest, start, end time.Time) bool {
	for _, it := range items {
		if !model.DateOnly(it.StartDate).After(end) && !model.DateOnly(it.EndDate).Before(start) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func toTimeOffResponse(t *model.TimeOffRequest) dto.TimeOffResponse {
	return dto.TimeOffResponse{
		ID:         t.TimeOffRequestID,
		EmployeeID: t.EmployeeID,
		Employee:   toEmployeeBrief(t.Employee),
		StartDate:  t.StartDate.Format(model.DateLayout),
		EndDate:    t.EndDate.Format(model.DateLayout),
		Reason:     t.Reason,
		Status:     string(t.Status),
		ReviewedBy: t.ReviewedBy,
		ReviewedAt: formatTimestampPtr(t.ReviewedAt),
		Version:    t.Version,
		CreatedAt:  formatTimestamp(t.CreatedAt),
	}
}
