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
)

// ── Schedule errors ──

var (
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrScheduleAlreadyExists = errors.New("a schedule already exists for this store and week")
	ErrScheduleNotDraft      = errors.New("schedule is not a draft")
	ErrScheduleArchived      = errors.New("schedule is archived")
	ErrScheduleStateChanged  = errors.New("schedule changed state concurrently, refresh and retry")
	ErrInvalidWeekStart      = errors.New("week_start must be a Monday")
	ErrPublishWarnings       = errors.New("schedule has compliance warnings, publish with force to accept them")
	ErrShiftNotFound         = errors.New("shift not found")
	ErrShiftOutsideWeek      = errors.New("shift date is outside the schedule week")
	ErrShiftNotEditable      = errors.New("only scheduled shifts can be edited")
	ErrShiftInOpenSwap       = errors.New("shift is part of an open swap")
	ErrEmployeeOtherStore    = errors.New("employee belongs to another store")
)

// WarningsError non-blocking findings that the caller must acknowledge.
type WarningsError struct {
	Findings []compliance.Finding
}

func (e *WarningsError) Error() string {
	return fmt.Sprintf("%s (%d warnings)", ErrPublishWarnings, len(e.Findings))
}

// Unwrap lets errors.Is match ErrPublishWarnings.
func (e *WarningsError) Unwrap() error { return ErrPublishWarnings }

// ScheduleService week schedules and manual shift editing.
type ScheduleService interface {
	Create(ctx context.Context, caller jwt.Identity, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	Get(ctx context.Context, caller jwt.Identity, id string) (*dto.ScheduleResponse, error)
	List(ctx context.Context, caller jwt.Identity, req *dto.ScheduleListRequest) ([]dto.ScheduleResponse, int64, error)
	Delete(ctx context.Context, caller jwt.Identity, id string) error
	Publish(ctx context.Context, caller jwt.Identity, id string, req *dto.PublishScheduleRequest) (*dto.PublishResponse, error)
	Unpublish(ctx context.Context, caller jwt.Identity, id string) (*dto.ScheduleResponse, error)
	Archive(ctx context.Context, caller jwt.Identity, id string) (*dto.ScheduleResponse, error)

	CreateShift(ctx context.Context, caller jwt.Identity, req *dto.CreateShiftRequest) (*dto.ShiftMutationResponse, error)
	UpdateShift(ctx context.Context, caller jwt.Identity, id string, req *dto.UpdateShiftRequest) (*dto.ShiftMutationResponse, error)
	DeleteShift(ctx context.Context, caller jwt.Identity, id string) error

	// ListChangeLogs the call-out, cover, swap and apply history of a schedule.
	ListChangeLogs(ctx context.Context, caller jwt.Identity, id string, req *dto.ChangeLogListRequest) ([]dto.ChangeLogResponse, int64, error)
}

type scheduleService struct {
	repo     *repository.Repository
	engine   *compliance.Engine
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduleService creates a ScheduleService.
func NewScheduleService(repo *repository.Repository, engine *compliance.Engine, notifier Notifier, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, engine: engine, notifier: notifier, logger: logger, now: time.Now}
}

// ════════════════════════════════════════════════════════════
// Schedules
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Create(ctx context.Context, caller jwt.Identity, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	if err := authorizeStore(caller, req.StoreID); err != nil {
		return nil, err
	}
	ws, err := parseWeekStart(req.WeekStart)
	if err != nil {
		return nil, err
	}
	if _, err := loadStore(ctx, s.repo, s.logger, req.StoreID); err != nil {
		return nil, err
	}

	schedule, err := getOrCreateSchedule(ctx, s.repo, req.StoreID, ws, actor(caller), false)
	if err != nil {
		if !errors.Is(err, ErrScheduleAlreadyExists) {
			s.logger.Error("create schedule failed", zap.Error(err))
		}
		return nil, err
	}
	return s.buildResponse(ctx, schedule, false)
}

func (s *scheduleService) Get(ctx context.Context, caller jwt.Identity, id string) (*dto.ScheduleResponse, error) {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.StoreID != "" && caller.StoreID != schedule.StoreID {
		return nil, ErrForbidden
	}
	return s.buildResponse(ctx, schedule, true)
}

func (s *scheduleService) List(ctx context.Context, caller jwt.Identity, req *dto.ScheduleListRequest) ([]dto.ScheduleResponse, int64, error) {
	storeID := req.StoreID
	if caller.StoreID != "" {
		if storeID != "" && storeID != caller.StoreID {
			return nil, 0, ErrForbidden
		}
		storeID = caller.StoreID
	}

	schedules, total, err := s.repo.Schedule.List(ctx, repository.ScheduleFilter{
		StoreID: storeID,
		Status:  model.ScheduleStatus(req.Status),
		Offset:  req.GetOffset(),
		Limit:   req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("list schedules failed", zap.Error(err))
		return nil, 0, err
	}

	out := make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		resp, err := s.buildResponse(ctx, &schedules[i], false)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *resp)
	}
	return out, total, nil
}

func (s *scheduleService) Delete(ctx context.Context, caller jwt.Identity, id string) error {
	schedule, err := s.loadForManager(ctx, caller, id)
	if err != nil {
		return err
	}
	if schedule.Status != model.ScheduleDraft {
		return ErrScheduleNotDraft
	}
	if err := s.repo.Schedule.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete schedule failed", zap.Error(err))
		return err
	}
	return nil
}

// Publish validates the schedule and makes it visible. Violations always
// block; warnings block unless req.Force.
func (s *scheduleService) Publish(ctx context.Context, caller jwt.Identity, id string, req *dto.PublishScheduleRequest) (*dto.PublishResponse, error) {
	schedule, err := s.loadForManager(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if _, err := schedule.Status.Next(model.ScheduleEventPublish); err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shift.ListBySchedule(ctx, schedule.ScheduleID)
	if err != nil {
		s.logger.Error("list shifts failed", zap.Error(err))
		return nil, err
	}

	result := compliance.Result{Compliant: true, Violations: []compliance.Finding{}, Warnings: []compliance.Finding{}, Info: []compliance.Finding{}}
	if req.Validate == nil || *req.Validate {
		result, err = validateScheduleShifts(ctx, s.repo, s.engine, schedule, shifts)
		if err != nil {
			s.logger.Error("validate schedule failed", zap.Error(err))
			return nil, err
		}
		if !result.Compliant {
			return nil, newComplianceError(result)
		}
		if result.HasWarnings() && !req.Force {
			return nil, &WarningsError{Findings: result.Warnings}
		}
	}

	now := s.now()
	err = s.repo.Schedule.Transition(ctx, schedule.ScheduleID, []model.ScheduleStatus{model.ScheduleDraft}, map[string]interface{}{
		"status":       model.SchedulePublished,
		"published_at": now,
		"published_by": actor(caller),
		"updated_by":   actor(caller),
	})
	if err != nil {
		return nil, s.mapTransitionError(err)
	}

	recipients := make([]string, 0)
	for _, sh := range shifts {
		if sh.Status.Active() {
			recipients = append(recipients, sh.EmployeeID)
		}
	}
	recipients = uniqueStrings(recipients)
	ws := schedule.WeekStartDate.Format(model.DateLayout)
	notify(ctx, s.notifier, s.logger, Event{
		Type:        model.NotifySchedulePublished,
		EmployeeIDs: recipients,
		Title:       "Schedule published",
		Message:     fmt.Sprintf("Your schedule for the week of %s is available.", ws),
		Payload:     map[string]interface{}{"schedule_id": schedule.ScheduleID, "week_start": ws},
		RelatedType: "schedule",
		RelatedID:   schedule.ScheduleID,
	})

	s.logger.Info("schedule published",
		zap.String("schedule_id", schedule.ScheduleID),
		zap.Int("warnings", len(result.Warnings)),
		zap.Int("notified", len(recipients)))

	updated, err := s.load(ctx, schedule.ScheduleID)
	if err != nil {
		return nil, err
	}
	resp, err := s.buildResponse(ctx, updated, true)
	if err != nil {
		return nil, err
	}
	return &dto.PublishResponse{Schedule: *resp, Compliance: result, NotifiedEmployees: len(recipients)}, nil
}

func (s *scheduleService) Unpublish(ctx context.Context, caller jwt.Identity, id string) (*dto.ScheduleResponse, error) {
	return s.transition(ctx, caller, id, model.ScheduleEventUnpublish, []model.ScheduleStatus{model.SchedulePublished}, map[string]interface{}{
		"status":       model.ScheduleDraft,
		"published_at": nil,
		"published_by": nil,
	})
}

func (s *scheduleService) Archive(ctx context.Context, caller jwt.Identity, id string) (*dto.ScheduleResponse, error) {
	return s.transition(ctx, caller, id, model.ScheduleEventArchive,
		[]model.ScheduleStatus{model.ScheduleDraft, model.SchedulePublished},
		map[string]interface{}{"status": model.ScheduleArchived})
}

func (s *scheduleService) transition(ctx context.Context, caller jwt.Identity, id string, ev model.ScheduleEvent, from []model.ScheduleStatus, updates map[string]interface{}) (*dto.ScheduleResponse, error) {
	schedule, err := s.loadForManager(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if _, err := schedule.Status.Next(ev); err != nil {
		return nil, err
	}
	updates["updated_by"] = actor(caller)
	if err := s.repo.Schedule.Transition(ctx, id, from, updates); err != nil {
		return nil, s.mapTransitionError(err)
	}
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, updated, false)
}

// ════════════════════════════════════════════════════════════
// Shifts
// ════════════════════════════════════════════════════════════

func (s *scheduleService) CreateShift(ctx context.Context, caller jwt.Identity, req *dto.CreateShiftRequest) (*dto.ShiftMutationResponse, error) {
	schedule, err := s.loadForManager(ctx, caller, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status == model.ScheduleArchived {
		return nil, ErrScheduleArchived
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if !withinWeek(schedule, date) {
		return nil, ErrShiftOutsideWeek
	}
	emp, err := s.activeStoreEmployee(ctx, req.EmployeeID, schedule.StoreID)
	if err != nil {
		return nil, err
	}
	start, end, err := parseShiftTimes(req.StartTime, req.EndTime, req.BreakMinutes)
	if err != nil {
		return nil, err
	}

	result, err := checkProposedShift(ctx, s.repo, s.engine, emp, compliance.Shift{
		EmployeeID: emp.EmployeeID, Date: date, Start: start, End: end, BreakMinutes: req.BreakMinutes,
	})
	if err != nil {
		s.logger.Error("check shift failed", zap.Error(err))
		return nil, err
	}
	if !result.Compliant {
		return nil, newComplianceError(result)
	}

	shift := &model.Shift{
		ScheduleID:   schedule.ScheduleID,
		EmployeeID:   emp.EmployeeID,
		Date:         date,
		StartTime:    model.FormatClock(start),
		EndTime:      model.FormatClock(end),
		BreakMinutes: req.BreakMinutes,
		Status:       model.ShiftScheduled,
	}
	shift.CreatedBy = actor(caller)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Shift.Create(ctx, shift); err != nil {
			return err
		}
		return tx.Schedule.BumpVersion(ctx, schedule.ScheduleID, schedule.Version, actor(caller))
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("create shift failed", zap.Error(err))
		}
		return nil, err
	}
	shift.Employee = emp

	if schedule.Status == model.SchedulePublished {
		notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftAssigned, emp.EmployeeID, shift, "New shift assigned"))
	}
	s.warnCompliance(ctx, emp.EmployeeID, shift, result)

	return &dto.ShiftMutationResponse{Shift: toShiftResponse(shift), Warnings: result.Warnings}, nil
}

func (s *scheduleService) UpdateShift(ctx context.Context, caller jwt.Identity, id string, req *dto.UpdateShiftRequest) (*dto.ShiftMutationResponse, error) {
	shift, err := s.loadShift(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule, err := s.loadForManager(ctx, caller, shift.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status == model.ScheduleArchived {
		return nil, ErrScheduleArchived
	}
	if shift.Status != model.ShiftScheduled {
		return nil, ErrShiftNotEditable
	}
	if shift.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	previousEmployee := shift.EmployeeID

	if req.EmployeeID != nil {
		shift.EmployeeID = *req.EmployeeID
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		shift.Date = d
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if req.BreakMinutes != nil {
		shift.BreakMinutes = *req.BreakMinutes
	}
	if !withinWeek(schedule, shift.Date) {
		return nil, ErrShiftOutsideWeek
	}
	start, end, err := parseShiftTimes(shift.StartTime, shift.EndTime, shift.BreakMinutes)
	if err != nil {
		return nil, err
	}
	shift.StartTime, shift.EndTime = model.FormatClock(start), model.FormatClock(end)

	emp, err := s.activeStoreEmployee(ctx, shift.EmployeeID, schedule.StoreID)
	if err != nil {
		return nil, err
	}
	result, err := checkProposedShift(ctx, s.repo, s.engine, emp, compliance.Shift{
		ID: shift.ShiftID, EmployeeID: emp.EmployeeID, Date: shift.Date, Start: start, End: end, BreakMinutes: shift.BreakMinutes,
	})
	if err != nil {
		s.logger.Error("check shift failed", zap.Error(err))
		return nil, err
	}
	if !result.Compliant {
		return nil, newComplianceError(result)
	}

	shift.UpdatedBy = actor(caller)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Shift.Update(ctx, shift); err != nil {
			return err
		}
		return tx.Schedule.BumpVersion(ctx, schedule.ScheduleID, schedule.Version, actor(caller))
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("update shift failed", zap.Error(err))
		}
		return nil, err
	}
	shift.Employee = emp

	if schedule.Status == model.SchedulePublished {
		if previousEmployee != shift.EmployeeID {
			notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftChanged, previousEmployee, shift, "Shift reassigned"))
			notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftAssigned, shift.EmployeeID, shift, "New shift assigned"))
		} else {
			notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftChanged, shift.EmployeeID, shift, "Shift updated"))
		}
	}
	s.warnCompliance(ctx, emp.EmployeeID, shift, result)

	return &dto.ShiftMutationResponse{Shift: toShiftResponse(shift), Warnings: result.Warnings}, nil
}

func (s *scheduleService) DeleteShift(ctx context.Context, caller jwt.Identity, id string) error {
	shift, err := s.loadShift(ctx, id)
	if err != nil {
		return err
	}
	schedule, err := s.loadForManager(ctx, caller, shift.ScheduleID)
	if err != nil {
		return err
	}
	if schedule.Status == model.ScheduleArchived {
		return ErrScheduleArchived
	}
	open, err := s.repo.Swap.CountOpenForShift(ctx, shift.ShiftID)
	if err != nil {
		s.logger.Error("count open swaps failed", zap.Error(err))
		return err
	}
	if open > 0 {
		return ErrShiftInOpenSwap
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Shift.Delete(ctx, shift.ShiftID, caller.UserID); err != nil {
			return err
		}
		return tx.Schedule.BumpVersion(ctx, schedule.ScheduleID, schedule.Version, actor(caller))
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("delete shift failed", zap.Error(err))
		}
		return err
	}

	if schedule.Status == model.SchedulePublished && shift.Status.Active() {
		notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftChanged, shift.EmployeeID, shift, "Shift removed"))
	}
	return nil
}

// ── Change log ──

func (s *scheduleService) ListChangeLogs(ctx context.Context, caller jwt.Identity, id string, req *dto.ChangeLogListRequest) ([]dto.ChangeLogResponse, int64, error) {
	if _, err := s.loadForManager(ctx, caller, id); err != nil {
		return nil, 0, err
	}

	logs, total, err := s.repo.ChangeLog.ListBySchedule(ctx, id, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list change logs failed", zap.String("schedule_id", id), zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.ChangeLogResponse, 0, len(logs))
	for _, l := range logs {
		list = append(list, dto.ChangeLogResponse{
			ID:                 l.ScheduleChangeLogID,
			ScheduleID:         l.ScheduleID,
			ShiftID:            l.ShiftID,
			OriginalEmployeeID: l.OriginalEmployeeID,
			NewEmployeeID:      l.NewEmployeeID,
			ChangeType:         string(l.ChangeType),
			Reason:             l.Reason,
			OperatorID:         l.OperatorID,
			CreatedAt:          formatTimestamp(l.CreatedAt),
		})
	}
	return list, total, nil
}

// ── Helpers ──

func (s *scheduleService) load(ctx context.Context, id string) (*model.Schedule, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("load schedule failed", zap.Error(err))
		return nil, err
	}
	return schedule, nil
}

func (s *scheduleService) loadForManager(ctx context.Context, caller jwt.Identity, id string) (*model.Schedule, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	schedule, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeStore(caller, schedule.StoreID); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *scheduleService) loadShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("load shift failed", zap.Error(err))
		return nil, err
	}
	return shift, nil
}

func (s *scheduleService) activeStoreEmployee(ctx context.Context, id, storeID string) (*model.Employee, error) {
	emp, err := loadEmployee(ctx, s.repo, s.logger, id)
	if err != nil {
		return nil, err
	}
	if emp.StoreID != storeID {
		return nil, ErrEmployeeOtherStore
	}
	if emp.Status != model.EmployeeActive {
		return nil, ErrEmployeeInactive
	}
	return emp, nil
}

func (s *scheduleService) mapTransitionError(err error) error {
	if errors.Is(err, pkgerrors.ErrStaleState) {
		return ErrScheduleStateChanged
	}
	s.logger.Error("schedule transition failed", zap.Error(err))
	return err
}

func (s *scheduleService) warnCompliance(ctx context.Context, employeeID string, shift *model.Shift, result compliance.Result) {
	if !result.HasWarnings() {
		return
	}
	codes := make([]string, 0, len(result.Warnings))
	for _, f := range result.Warnings {
		codes = append(codes, string(f.Code))
	}
	notify(ctx, s.notifier, s.logger, Event{
		Type:        model.NotifyComplianceWarning,
		EmployeeIDs: []string{employeeID},
		Title:       "Shift needs review",
		Message:     fmt.Sprintf("Your shift on %s raised %d compliance warnings.", shift.Date.Format(model.DateLayout), len(codes)),
		Payload:     map[string]interface{}{"shift_id": shift.ShiftID, "codes": codes},
		RelatedType: "shift",
		RelatedID:   shift.ShiftID,
	})
}

func (s *scheduleService) buildResponse(ctx context.Context, schedule *model.Schedule, withShifts bool) (*dto.ScheduleResponse, error) {
	return buildScheduleResponse(ctx, s.repo, s.logger, schedule, withShifts)
}

func buildScheduleResponse(ctx context.Context, repo *repository.Repository, logger *zap.Logger, schedule *model.Schedule, withShifts bool) (*dto.ScheduleResponse, error) {
	resp := &dto.ScheduleResponse{
		ID:          schedule.ScheduleID,
		StoreID:     schedule.StoreID,
		WeekStart:   schedule.WeekStartDate.Format(model.DateLayout),
		WeekEnd:     schedule.WeekEnd().Format(model.DateLayout),
		Status:      string(schedule.Status),
		PublishedAt: formatTimestampPtr(schedule.PublishedAt),
		Version:     schedule.Version,
		CreatedAt:   formatTimestamp(schedule.CreatedAt),
		UpdatedAt:   formatTimestamp(schedule.UpdatedAt),
	}
	if schedule.Store != nil {
		resp.StoreName = schedule.Store.Name
	}
	if !withShifts {
		return resp, nil
	}

	shifts, err := repo.Shift.ListBySchedule(ctx, schedule.ScheduleID)
	if err != nil {
		logger.Error("list shifts failed", zap.Error(err))
		return nil, err
	}
	resp.Shifts = toShiftResponses(shifts)
	total := 0.0
	for i := range shifts {
		if shifts[i].Status.Active() {
			total += shifts[i].TotalHours()
		}
	}
	resp.TotalHours = compliance.RoundHours(total)
	return resp, nil
}

// getOrCreateSchedule returns the draft for store-week, creating it. With
// reuse false an existing schedule is ErrScheduleAlreadyExists.
func getOrCreateSchedule(ctx context.Context, repo *repository.Repository, storeID string, weekStart time.Time, by *string, reuse bool) (*model.Schedule, error) {
	existing, err := repo.Schedule.GetByStoreWeek(ctx, storeID, weekStart)
	if err == nil {
		if !reuse {
			return nil, ErrScheduleAlreadyExists
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	schedule := &model.Schedule{StoreID: storeID, WeekStartDate: weekStart, Status: model.ScheduleDraft}
	schedule.CreatedBy = by
	schedule.Version = 1
	if err := repo.Schedule.Create(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func withinWeek(schedule *model.Schedule, date time.Time) bool {
	d := model.DateOnly(date)
	ws := model.DateOnly(schedule.WeekStartDate)
	return !d.Before(ws) && d.Before(ws.AddDate(0, 0, 7))
}

func shiftEvent(t model.NotificationType, employeeID string, shift *model.Shift, title string) Event {
	date := shift.Date.Format(model.DateLayout)
	return Event{
		Type:        t,
		EmployeeIDs: []string{employeeID},
		Title:       title,
		Message:     fmt.Sprintf("%s %s-%s", date, trimClock(shift.StartTime), trimClock(shift.EndTime)),
		Payload: map[string]interface{}{
			"shift_id":   shift.ShiftID,
			"date":       date,
			"start_time": trimClock(shift.StartTime),
			"end_time":   trimClock(shift.EndTime),
		},
		RelatedType: "shift",
		RelatedID:   shift.ShiftID,
	}
}

func actor(caller jwt.Identity) *string {
	if caller.UserID == "" {
		return nil
	}
	id := caller.UserID
	return &id
}
