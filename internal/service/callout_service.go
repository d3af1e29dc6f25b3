package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/config"
	"github.com/malamapl09/Picker-Scheduler/internal/compliance"
	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// ── Call-out errors ──

var (
	ErrShiftNotScheduled     = errors.New("shift is not scheduled")
	ErrShiftNotStarted       = errors.New("shift has not started yet")
	ErrShiftNotCalledOut     = errors.New("shift is not called out")
	ErrShiftNotRevertable    = errors.New("shift has no call-out to revert")
	ErrRevertTooLate         = errors.New("shift starts too soon to revert the call-out")
	ErrDoubleBooking         = errors.New("employee is already scheduled at that time")
	ErrReplacementConflicts  = errors.New("replacement has scheduling conflicts")
	ErrReplacementIsOriginal = errors.New("the absent employee cannot cover their own shift")
)

// Replacement conflict codes.
const (
	ConflictAlreadyScheduled = "already_scheduled"
	ConflictTimeOff          = "time_off"
	ConflictWeeklyLimit      = "weekly_limit"
	ConflictDailyLimit       = "daily_limit"
	ConflictDaysLimit        = "days_limit"
)

var conflictCodes = map[compliance.Code]string{
	compliance.CodeShiftOverlap:        ConflictAlreadyScheduled,
	compliance.CodeTimeOffConflict:     ConflictTimeOff,
	compliance.CodeWeeklyHoursExceeded: ConflictWeeklyLimit,
	compliance.CodeDailyHoursExceeded:  ConflictDailyLimit,
	compliance.CodeNoDayOff:            ConflictDaysLimit,
}

// CalloutService absences and their replacements.
type CalloutService interface {
	MarkCallout(ctx context.Context, caller jwt.Identity, shiftID string, req *dto.CalloutRequest) (*dto.ShiftResponse, error)
	// FindReplacements ranks the store's active employees for the shift.
	FindReplacements(ctx context.Context, caller jwt.Identity, shiftID string) (*dto.ReplacementsResponse, error)
	// AssignReplacement covers a called-out shift. Conflicts other than a
	// double booking are accepted only with force.
	AssignReplacement(ctx context.Context, caller jwt.Identity, shiftID string, req *dto.AssignReplacementRequest, force bool) (*dto.ShiftResponse, error)
	RevertCallout(ctx context.Context, caller jwt.Identity, shiftID string) (*dto.ShiftResponse, error)
	// MarkNoShow closes a started shift whose employee never arrived.
	MarkNoShow(ctx context.Context, caller jwt.Identity, shiftID string, req *dto.NoShowRequest) (*dto.ShiftResponse, error)
	ListCallouts(ctx context.Context, caller jwt.Identity, req *dto.CalloutListRequest) ([]dto.ShiftResponse, error)
}

type calloutService struct {
	repo         *repository.Repository
	engine       *compliance.Engine
	locker       Locker
	notifier     Notifier
	logger       *zap.Logger
	revertCutoff time.Duration
	lockTTL      time.Duration
	now          func() time.Time
}

// NewCalloutService creates a CalloutService.
func NewCalloutService(cfg *config.Config, repo *repository.Repository, engine *compliance.Engine, locker Locker, notifier Notifier, logger *zap.Logger) CalloutService {
	ttl := cfg.Scheduling.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &calloutService{
		repo:         repo,
		engine:       engine,
		locker:       locker,
		notifier:     notifier,
		logger:       logger,
		revertCutoff: cfg.Scheduling.RevertCutoff,
		lockTTL:      ttl,
		now:          time.Now,
	}
}

func (s *calloutService) MarkCallout(ctx context.Context, caller jwt.Identity, shiftID string, req *dto.CalloutRequest) (*dto.ShiftResponse, error) {
	shift, err := s.loadShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	emp, err := loadEmployee(ctx, s.repo, s.logger, shift.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, emp); err != nil {
		return nil, err
	}
	if _, err := shift.Status.Next(model.ShiftEventCallout); err != nil {
		return nil, ErrShiftNotScheduled
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		err := tx.Shift.Transition(ctx, shift.ShiftID, []model.ShiftStatus{model.ShiftScheduled}, map[string]interface{}{
			"status":               model.ShiftCalledOut,
			"original_employee_id": shift.EmployeeID,
			"callout_reason":       req.Reason,
			"callout_time":         s.now(),
			"updated_by":           actor(caller),
		})
		if err != nil {
			return err
		}
		return tx.ChangeLog.Create(ctx, &model.ScheduleChangeLog{
			ScheduleID:         shift.ScheduleID,
			ShiftID:            strPtr(shift.ShiftID),
			OriginalEmployeeID: strPtr(shift.EmployeeID),
			ChangeType:         model.ChangeCallout,
			Reason:             req.Reason,
			OperatorID:         actor(caller),
		})
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return nil, ErrShiftNotScheduled
		}
		s.logger.Error("mark callout failed", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftChanged, shift.EmployeeID, shift, "Call-out recorded"))
	s.logger.Info("shift called out", zap.String("shift_id", shift.ShiftID), zap.String("employee_id", shift.EmployeeID))
	return s.reload(ctx, shift.ShiftID)
}

func (s *calloutService) FindReplacements(ctx context.Context, caller jwt.Identity, shiftID string) (*dto.ReplacementsResponse, error) {
	shift, storeID, err := s.loadForManager(ctx, caller, shiftID)
	if err != nil {
		return nil, err
	}
	absent := absentEmployee(shift)

	emps, err := s.repo.Employee.ListByStore(ctx, storeID, true)
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, err
	}
	pool := make([]model.Employee, 0, len(emps))
	for _, e := range emps {
		if e.EmployeeID != absent && e.Status == model.EmployeeActive {
			pool = append(pool, e)
		}
	}

	candidates, err := s.evaluate(ctx, shift, storeID, pool)
	if err != nil {
		s.logger.Error("evaluate candidates failed", zap.Error(err))
		return nil, err
	}
	sortCandidates(candidates)
	return &dto.ReplacementsResponse{Shift: toShiftResponse(shift), Candidates: candidates}, nil
}

func (s *calloutService) AssignReplacement(ctx context.Context, caller jwt.Identity, shiftID string, req *dto.AssignReplacementRequest, force bool) (*dto.ShiftResponse, error) {
	shift, storeID, err := s.loadForManager(ctx, caller, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != model.ShiftCalledOut {
		return nil, ErrShiftNotCalledOut
	}
	absent := absentEmployee(shift)
	if req.EmployeeID == absent {
		return nil, ErrReplacementIsOriginal
	}
	emp, err := loadEmployee(ctx, s.repo, s.logger, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp.StoreID != storeID {
		return nil, ErrEmployeeOtherStore
	}
	if emp.Status != model.EmployeeActive {
		return nil, ErrEmployeeInactive
	}

	unlock, err := s.lockShiftFor(ctx, shift, emp.EmployeeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	evaluated, err := s.evaluate(ctx, shift, storeID, []model.Employee{*emp})
	if err != nil {
		s.logger.Error("evaluate replacement failed", zap.Error(err))
		return nil, err
	}
	if conflicts := evaluated[0].Conflicts; len(conflicts) > 0 {
		detail := make([]Conflict, 0, len(conflicts))
		doubleBooked := false
		for _, c := range conflicts {
			detail = append(detail, Conflict{Code: c.Code, Message: c.Message})
			if c.Code == ConflictAlreadyScheduled {
				doubleBooked = true
			}
		}
		if doubleBooked {
			return nil, &ConflictError{Err: ErrDoubleBooking, Conflicts: detail}
		}
		if !force {
			return nil, &ConflictError{Err: ErrReplacementConflicts, Conflicts: detail}
		}
	}

	reason := ""
	if force && len(evaluated[0].Conflicts) > 0 {
		reason = "assigned with conflicts"
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := refuseSameDate(ctx, tx, emp.EmployeeID, shift); err != nil {
			return err
		}
		err := tx.Shift.Transition(ctx, shift.ShiftID, []model.ShiftStatus{model.ShiftCalledOut}, map[string]interface{}{
			"status":        model.ShiftCovered,
			"employee_id":   emp.EmployeeID,
			"covered_by_id": emp.EmployeeID,
			"updated_by":    actor(caller),
		})
		if err != nil {
			return err
		}
		return tx.ChangeLog.Create(ctx, &model.ScheduleChangeLog{
			ScheduleID:         shift.ScheduleID,
			ShiftID:            strPtr(shift.ShiftID),
			OriginalEmployeeID: strPtr(absent),
			NewEmployeeID:      strPtr(emp.EmployeeID),
			ChangeType:         model.ChangeCover,
			Reason:             reason,
			OperatorID:         actor(caller),
		})
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return nil, ErrShiftNotCalledOut
		}
		if errors.Is(err, ErrDoubleBooking) {
			return nil, err
		}
		s.logger.Error("assign replacement failed", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftAssigned, emp.EmployeeID, shift, "Covering shift assigned"))
	notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftChanged, absent, shift, "Your shift is covered"))
	s.logger.Info("replacement assigned",
		zap.String("shift_id", shift.ShiftID),
		zap.String("replacement", emp.EmployeeID),
		zap.Bool("forced", reason != ""))
	return s.reload(ctx, shift.ShiftID)
}

func (s *calloutService) RevertCallout(ctx context.Context, caller jwt.Identity, shiftID string) (*dto.ShiftResponse, error) {
	shift, storeID, err := s.loadForManager(ctx, caller, shiftID)
	if err != nil {
		return nil, err
	}
	if _, err := shift.Status.Next(model.ShiftEventRevert); err != nil {
		return nil, ErrShiftNotRevertable
	}
	store, err := loadStore(ctx, s.repo, s.logger, storeID)
	if err != nil {
		return nil, err
	}
	start := shift.StartAt(storeLocation(store.Timezone))
	if until := start.Sub(s.now()); until <= 0 || until < s.revertCutoff {
		return nil, ErrRevertTooLate
	}

	original := absentEmployee(shift)
	coveredBy := shift.CoveredByID
	emp, err := loadEmployee(ctx, s.repo, s.logger, original)
	if err != nil {
		return nil, err
	}
	proposed, ok := toComplianceShift(shift)
	if !ok {
		return nil, ErrInvalidTimeRange
	}
	proposed.EmployeeID = original

	unlock, err := s.lockShiftFor(ctx, shift, original)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// the original employee may have been rostered elsewhere since the call-out
		if err := refuseSameDate(ctx, tx, original, shift); err != nil {
			return err
		}
		result, err := checkProposedShift(ctx, tx, s.engine, emp, proposed, shift.ShiftID)
		if err != nil {
			return err
		}
		if !result.Compliant {
			return newComplianceError(result)
		}

		err = tx.Shift.Transition(ctx, shift.ShiftID, []model.ShiftStatus{model.ShiftCalledOut, model.ShiftCovered}, map[string]interface{}{
			"status":               model.ShiftScheduled,
			"employee_id":          original,
			"original_employee_id": nil,
			"covered_by_id":        nil,
			"callout_reason":       "",
			"callout_time":         nil,
			"updated_by":           actor(caller),
		})
		if err != nil {
			return err
		}
		return tx.ChangeLog.Create(ctx, &model.ScheduleChangeLog{
			ScheduleID:         shift.ScheduleID,
			ShiftID:            strPtr(shift.ShiftID),
			OriginalEmployeeID: strPtr(shift.EmployeeID),
			NewEmployeeID:      strPtr(original),
			ChangeType:         model.ChangeRevert,
			OperatorID:         actor(caller),
		})
	})
	if err != nil {
		var cv *ComplianceError
		switch {
		case errors.Is(err, pkgerrors.ErrStaleState):
			return nil, ErrShiftNotRevertable
		case errors.Is(err, ErrDoubleBooking), errors.As(err, &cv):
			return nil, err
		}
		s.logger.Error("revert callout failed", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftChanged, original, shift, "Shift restored"))
	if coveredBy != nil && *coveredBy != original {
		notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftChanged, *coveredBy, shift, "Cover no longer needed"))
	}
	return s.reload(ctx, shift.ShiftID)
}

func (s *calloutService) MarkNoShow(ctx context.Context, caller jwt.Identity, shiftID string, req *dto.NoShowRequest) (*dto.ShiftResponse, error) {
	shift, storeID, err := s.loadForManager(ctx, caller, shiftID)
	if err != nil {
		return nil, err
	}
	if _, err := shift.Status.Next(model.ShiftEventNoShow); err != nil {
		return nil, ErrShiftNotScheduled
	}
	store, err := loadStore(ctx, s.repo, s.logger, storeID)
	if err != nil {
		return nil, err
	}
	if s.now().Before(shift.StartAt(storeLocation(store.Timezone))) {
		return nil, ErrShiftNotStarted
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		err := tx.Shift.Transition(ctx, shift.ShiftID, []model.ShiftStatus{model.ShiftScheduled}, map[string]interface{}{
			"status":     model.ShiftNoShow,
			"updated_by": actor(caller),
		})
		if err != nil {
			return err
		}
		return tx.ChangeLog.Create(ctx, &model.ScheduleChangeLog{
			ScheduleID:         shift.ScheduleID,
			ShiftID:            strPtr(shift.ShiftID),
			OriginalEmployeeID: strPtr(shift.EmployeeID),
			ChangeType:         model.ChangeNoShow,
			Reason:             req.Reason,
			OperatorID:         actor(caller),
		})
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return nil, ErrShiftNotScheduled
		}
		s.logger.Error("mark no-show failed", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	notify(ctx, s.notifier, s.logger, shiftEvent(model.NotifyShiftChanged, shift.EmployeeID, shift, "Recorded as a no-show"))
	s.logger.Info("shift marked no-show", zap.String("shift_id", shift.ShiftID), zap.String("employee_id", shift.EmployeeID))
	return s.reload(ctx, shift.ShiftID)
}

func (s *calloutService) ListCallouts(ctx context.Context, caller jwt.Identity, req *dto.CalloutListRequest) ([]dto.ShiftResponse, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	if err := authorizeStore(caller, req.StoreID); err != nil {
		return nil, err
	}
	from := model.WeekStart(s.now())
	to := from.AddDate(0, 0, 13)
	var err error
	if req.From != "" {
		if from, err = parseDate(req.From); err != nil {
			return nil, err
		}
	}
	if req.To != "" {
		if to, err = parseDate(req.To); err != nil {
			return nil, err
		}
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to is before from", ErrInvalidDate)
	}

	shifts, err := s.repo.Shift.ListCallouts(ctx, repository.CalloutFilter{
		StoreID:        req.StoreID,
		From:           from,
		To:             to,
		IncludeCovered: req.IncludeCovered,
	})
	if err != nil {
		s.logger.Error("list callouts failed", zap.Error(err))
		return nil, err
	}
	return toShiftResponses(shifts), nil
}

// ── Candidate evaluation ──

// evaluate scores employees against shift using only persisted state, so
// repeated calls over unchanged data give identical output.
func (s *calloutService) evaluate(ctx context.Context, shift *model.Shift, storeID string, emps []model.Employee) ([]dto.ReplacementCandidate, error) {
	target, ok := toComplianceShift(shift)
	if !ok {
		return nil, ErrInvalidTimeRange
	}
	ids := employeeIDs(emps)
	ws := model.WeekStart(shift.Date)
	from, to := complianceWindow(ws)

	shifts, err := s.repo.Shift.ListActiveByEmployees(ctx, ids, from, to)
	if err != nil {
		return nil, err
	}
	contexts, err := loadEmployeeContexts(ctx, s.repo, ids, from, to)
	if err != nil {
		return nil, err
	}
	var store *model.Store
	if st, err := s.repo.Store.GetByID(ctx, storeID); err == nil {
		store = st
	}
	engine := engineForStore(s.engine, store)
	maxWeekly := float64(engine.Rules().MaxWeeklyMinutes) / 60
	byEmp := shiftsByEmployee(toComplianceShifts(shifts, shift.ShiftID))
	day := model.DayIndex(shift.Date)
	date := shift.Date.Format(model.DateLayout)

	out := make([]dto.ReplacementCandidate, 0, len(emps))
	for _, e := range emps {
		others := byEmp[e.EmployeeID]
		ec := contexts[e.EmployeeID]

		current := 0
		sameDay := false
		for _, o := range others {
			d := model.DateOnly(o.Date)
			if !d.Before(ws) && d.Before(ws.AddDate(0, 0, 7)) {
				current += o.WorkedMinutes()
			}
			if d.Format(model.DateLayout) == date {
				sameDay = true
			}
		}

		proposed := target
		proposed.EmployeeID = e.EmployeeID
		result := engine.CheckShift(proposed, others, ec)

		conflicts := make([]dto.ReplacementConflict, 0)
		seen := map[string]bool{}
		add := func(code, msg string) {
			if !seen[code] {
				seen[code] = true
				conflicts = append(conflicts, dto.ReplacementConflict{Code: code, Message: msg})
			}
		}
		if sameDay {
			add(ConflictAlreadyScheduled, fmt.Sprintf("already has a shift on %s", date))
		}
		for _, f := range append(append([]compliance.Finding{}, result.Violations...), result.Warnings...) {
			if code, ok := conflictCodes[f.Code]; ok {
				add(code, f.Message)
			}
		}

		currentHours := compliance.RoundHours(float64(current) / 60)
		cand := dto.ReplacementCandidate{
			EmployeeID:       e.EmployeeID,
			Name:             e.FullName(),
			CurrentWeekHours: currentHours,
			RemainingHours:   compliance.RoundHours(math.Max(0, maxWeekly-currentHours)),
			Conflicts:        conflicts,
		}
		avail, hasAvail := ec.Availability[day]
		prefers := true
		if hasAvail {
			if !avail.IsAvailable {
				prefers = false
			} else if avail.PreferredStart != nil && avail.PreferredEnd != nil {
				cand.PreferredHours = model.FormatClock(*avail.PreferredStart) + "-" + model.FormatClock(*avail.PreferredEnd)
				prefers = target.Start >= *avail.PreferredStart && target.End <= *avail.PreferredEnd
			}
		}
		cand.IsAvailable = prefers && len(conflicts) == 0
		out = append(out, cand)
	}
	return out, nil
}

// sortCandidates no-conflict first, then most remaining hours, then id.
func sortCandidates(cs []dto.ReplacementCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		ci, cj := len(cs[i].Conflicts) == 0, len(cs[j].Conflicts) == 0
		if ci != cj {
			return ci
		}
		if cs[i].RemainingHours != cs[j].RemainingHours {
			return cs[i].RemainingHours > cs[j].RemainingHours
		}
		return cs[i].EmployeeID < cs[j].EmployeeID
	})
}

// ── Helpers ──

func (s *calloutService) loadShift(ctx context.Context, id string) (*model.Shift, error) {
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

// loadForManager returns the shift and its store after the manager check.
func (s *calloutService) loadForManager(ctx context.Context, caller jwt.Identity, id string) (*model.Shift, string, error) {
	if !caller.IsManager() {
		return nil, "", ErrForbidden
	}
	shift, err := s.loadShift(ctx, id)
	if err != nil {
		return nil, "", err
	}
	storeID, err := s.shiftStore(ctx, shift)
	if err != nil {
		return nil, "", err
	}
	if err := authorizeStore(caller, storeID); err != nil {
		return nil, "", err
	}
	return shift, storeID, nil
}

func (s *calloutService) shiftStore(ctx context.Context, shift *model.Shift) (string, error) {
	if shift.Schedule != nil {
		return shift.Schedule.StoreID, nil
	}
	schedule, err := s.repo.Schedule.GetByID(ctx, shift.ScheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrScheduleNotFound
		}
		s.logger.Error("load schedule failed", zap.Error(err))
		return "", err
	}
	return schedule.StoreID, nil
}

func (s *calloutService) reload(ctx context.Context, id string) (*dto.ShiftResponse, error) {
	shift, err := s.loadShift(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toShiftResponse(shift)
	return &resp, nil
}

// lockShiftFor locks the shift and the employee's day it would land on, so two
// covers cannot book one employee twice on a date.
func (s *calloutService) lockShiftFor(ctx context.Context, shift *model.Shift, employeeID string) (func(), error) {
	unlockShift, err := s.locker.Lock(ctx, "shift:"+shift.ShiftID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	unlockDay, err := s.locker.Lock(ctx, fmt.Sprintf("employee:%s:%s", employeeID, shift.Date.Format(model.DateLayout)), s.lockTTL)
	if err != nil {
		unlockShift()
		return nil, err
	}
	return func() {
		unlockDay()
		unlockShift()
	}, nil
}

// refuseSameDate ErrDoubleBooking when the employee holds another active shift
// on the shift's date.
func refuseSameDate(ctx context.Context, repo *repository.Repository, employeeID string, shift *model.Shift) error {
	date := model.DateOnly(shift.Date)
	existing, err := repo.Shift.ListActiveByEmployees(ctx, []string{employeeID}, date, date)
	if err != nil {
		return err
	}
	var conflicts []Conflict
	for _, o := range existing {
		if o.ShiftID == shift.ShiftID {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Code:    ConflictAlreadyScheduled,
			Message: fmt.Sprintf("already has a shift on %s from %s to %s", date.Format(model.DateLayout), o.StartTime, o.EndTime),
		})
	}
	if len(conflicts) > 0 {
		return &ConflictError{Err: ErrDoubleBooking, Conflicts: conflicts}
	}
	return nil
}

// absentEmployee the employee originally rostered on the shift.
func absentEmployee(shift *model.Shift) string {
	if shift.OriginalEmployeeID != nil && *shift.OriginalEmployeeID != "" {
		return *shift.OriginalEmployeeID
	}
	return shift.EmployeeID
}
