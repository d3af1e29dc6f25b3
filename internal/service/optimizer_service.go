package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/config"
	"github.com/malamapl09/Picker-Scheduler/internal/compliance"
	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/optimizer"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// ── Optimizer errors ──

var (
	ErrApplyConflict      = errors.New("schedule changed since the proposal was generated")
	ErrInvalidProblem     = errors.New("optimization input is invalid")
	ErrEntryOutsideWeek   = errors.New("locked shift or override is outside the week")
	ErrDuplicateProposals = errors.New("proposal assigns an employee twice on one date")
)

// OptimizerService demand-driven schedule generation.
type OptimizerService interface {
	// Generate solves the store-week and optionally applies the result.
	Generate(ctx context.Context, caller jwt.Identity, req *dto.GenerateRequest) (*dto.OptimizationResult, error)
	// Preview solves with the preview timeout; never applies and records no run.
	Preview(ctx context.Context, caller jwt.Identity, req *dto.GenerateRequest) (*dto.OptimizationResult, error)
	// Apply writes proposed shifts into the week's draft, all or nothing.
	Apply(ctx context.Context, caller jwt.Identity, req *dto.ApplyRequest) (*dto.ApplyResponse, error)
	// FillGaps re-solves with every existing shift locked and applies the additions.
	FillGaps(ctx context.Context, caller jwt.Identity, scheduleID string, req *dto.FillGapsRequest) (*dto.FillGapsResponse, error)
	// Capacity bounds what a solve of the store-week could staff, without solving.
	Capacity(ctx context.Context, caller jwt.Identity, storeID, weekStart string) (*dto.CapacityResponse, error)
	ShiftTemplates(ctx context.Context, caller jwt.Identity, storeID string) ([]dto.ShiftTemplateResponse, error)
}

type optimizerService struct {
	cfg         *config.OptimizerConfig
	lockTimeout time.Duration
	repo        *repository.Repository
	engine      *compliance.Engine
	solver      optimizer.Solver
	locker      Locker
	logger      *zap.Logger
}

// NewOptimizerService creates an OptimizerService.
func NewOptimizerService(cfg *config.Config, repo *repository.Repository, engine *compliance.Engine, solver optimizer.Solver, locker Locker, logger *zap.Logger) OptimizerService {
	return &optimizerService{
		cfg:         &cfg.Optimizer,
		lockTimeout: cfg.Scheduling.LockTTL,
		repo:        repo,
		engine:      engine,
		solver:      solver,
		locker:      locker,
		logger:      logger,
	}
}

// snapshot everything one solve reads, taken before the solver runs.
type snapshot struct {
	store           *model.Store
	weekStart       time.Time
	schedule        *model.Schedule
	scheduleVersion int
	scheduleShifts  []model.Shift
	// retained active shifts of the schedule that a replacing apply keeps.
	retained  []model.Shift
	employees []model.Employee
	problem   *optimizer.Problem
}

func (s *optimizerService) Generate(ctx context.Context, caller jwt.Identity, req *dto.GenerateRequest) (*dto.OptimizationResult, error) {
	result, snap, err := s.generate(ctx, caller, req, s.cfg.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	s.recordRun(ctx, caller, snap, result)

	if req.ApplyImmediately && result.Status != string(optimizer.StatusError) && len(result.Shifts) > 0 {
		out, err := s.apply(ctx, caller, snap.store.StoreID, snap.weekStart, snap.scheduleVersion, result.Shifts, true)
		if err != nil {
			return nil, err
		}
		schedule := out.schedule
		result.ScheduleID = strPtr(schedule.ScheduleID)
		result.ScheduleVersion = schedule.Version
		result.Applied = true
		if result.RunID != "" {
			if err := s.repo.OptimizationRun.AttachSchedule(ctx, result.RunID, schedule.ScheduleID); err != nil {
				s.logger.Warn("attach schedule to run failed", zap.String("run_id", result.RunID), zap.Error(err))
			}
		}
	}
	return result, nil
}

func (s *optimizerService) Preview(ctx context.Context, caller jwt.Identity, req *dto.GenerateRequest) (*dto.OptimizationResult, error) {
	preview := *req
	preview.ApplyImmediately = false
	result, _, err := s.generate(ctx, caller, &preview, s.cfg.PreviewTimeout)
	return result, err
}

func (s *optimizerService) generate(ctx context.Context, caller jwt.Identity, req *dto.GenerateRequest, defaultTimeout time.Duration) (*dto.OptimizationResult, *snapshot, error) {
	if !caller.IsManager() {
		return nil, nil, ErrForbidden
	}
	if err := authorizeStore(caller, req.StoreID); err != nil {
		return nil, nil, err
	}
	ws, err := parseWeekStart(req.WeekStart)
	if err != nil {
		return nil, nil, err
	}

	snap, err := s.loadSnapshot(ctx, req.StoreID, ws, false)
	if err != nil {
		return nil, nil, err
	}
	p := snap.problem
	requested, err := toLocks(ws, p.Templates, req.LockedShifts)
	if err != nil {
		return nil, nil, err
	}
	p.Locks = append(existingLocks(ws, p.Templates, snap.retained), requested...)
	if p.Overrides, err = toOverrides(ws, req.ManualOverrides); err != nil {
		return nil, nil, err
	}
	if req.MinCoveragePercent != nil {
		p.MinCoveragePercent = *req.MinCoveragePercent
	}

	sol, err := s.solve(ctx, p, s.timeout(req.TimeoutSeconds, defaultTimeout))
	if err != nil {
		return nil, nil, err
	}
	return s.toResult(snap, sol), snap, nil
}

func (s *optimizerService) Apply(ctx context.Context, caller jwt.Identity, req *dto.ApplyRequest) (*dto.ApplyResponse, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	storeID, weekStart := req.StoreID, req.WeekStart
	if req.ScheduleID != "" {
		schedule, err := s.repo.Schedule.GetByID(ctx, req.ScheduleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrScheduleNotFound
			}
			s.logger.Error("load schedule failed", zap.Error(err))
			return nil, err
		}
		storeID, weekStart = schedule.StoreID, schedule.WeekStartDate.Format(model.DateLayout)
	}
	if err := authorizeStore(caller, storeID); err != nil {
		return nil, err
	}
	ws, err := parseWeekStart(weekStart)
	if err != nil {
		return nil, err
	}

	out, err := s.apply(ctx, caller, storeID, ws, req.ExpectedVersion, req.Shifts, !req.Append)
	if err != nil {
		return nil, err
	}
	resp, err := buildScheduleResponse(ctx, s.repo, s.logger, out.schedule, true)
	if err != nil {
		return nil, err
	}
	return &dto.ApplyResponse{
		Schedule:     *resp,
		CreatedCount: out.created,
		RemovedCount: out.removed,
		KeptCount:    out.kept,
	}, nil
}

func (s *optimizerService) FillGaps(ctx context.Context, caller jwt.Identity, scheduleID string, req *dto.FillGapsRequest) (*dto.FillGapsResponse, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	schedule, err := s.repo.Schedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("load schedule failed", zap.Error(err))
		return nil, err
	}
	if err := authorizeStore(caller, schedule.StoreID); err != nil {
		return nil, err
	}
	if schedule.Status != model.ScheduleDraft {
		return nil, ErrScheduleNotDraft
	}
	ws := model.DateOnly(schedule.WeekStartDate)

	snap, err := s.loadSnapshot(ctx, schedule.StoreID, ws, true)
	if err != nil {
		return nil, err
	}
	snap.problem.Locks = existingLocks(ws, snap.problem.Templates, snap.scheduleShifts)

	sol, err := s.solve(ctx, snap.problem, s.timeout(req.TimeoutSeconds, s.cfg.DefaultTimeout))
	if err != nil {
		return nil, err
	}
	result := s.toResult(snap, sol)
	s.recordRun(ctx, caller, snap, result)

	added := make([]dto.ProposedShift, 0)
	for _, p := range result.Shifts {
		if !p.Locked {
			added = append(added, p)
		}
	}
	out := &dto.FillGapsResponse{Result: *result, AddedCount: len(added)}
	if len(added) == 0 {
		return out, nil
	}

	applied, err := s.apply(ctx, caller, schedule.StoreID, ws, snap.scheduleVersion, added, false)
	if err != nil {
		return nil, err
	}
	updated := applied.schedule
	out.Result.Applied = true
	out.Result.ScheduleVersion = updated.Version
	resp, err := buildScheduleResponse(ctx, s.repo, s.logger, updated, true)
	if err != nil {
		return nil, err
	}
	out.Schedule = resp
	return out, nil
}

func (s *optimizerService) Capacity(ctx context.Context, caller jwt.Identity, storeID, weekStart string) (*dto.CapacityResponse, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	if err := authorizeStore(caller, storeID); err != nil {
		return nil, err
	}
	ws, err := parseWeekStart(weekStart)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, storeID, ws, false)
	if err != nil {
		return nil, err
	}
	p := snap.problem
	p.Locks = existingLocks(ws, p.Templates, snap.retained)

	est, err := optimizer.EstimateCapacity(p)
	if err != nil {
		if errors.Is(err, optimizer.ErrInvalidProblem) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
		}
		return nil, err
	}
	return &dto.CapacityResponse{
		StoreID:            storeID,
		WeekStart:          ws.Format(model.DateLayout),
		MinCoveragePercent: p.MinCoveragePercent,
		Capacity:           *est,
	}, nil
}

// ShiftTemplates lists the templates inside the store's operating hours, or
// inside the default hours when storeID is empty.
func (s *optimizerService) ShiftTemplates(ctx context.Context, caller jwt.Identity, storeID string) ([]dto.ShiftTemplateResponse, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	var store *model.Store
	if storeID != "" {
		if err := authorizeStore(caller, storeID); err != nil {
			return nil, err
		}
		var err error
		if store, err = loadStore(ctx, s.repo, s.logger, storeID); err != nil {
			return nil, err
		}
	}
	rules := engineForStore(s.engine, store).Rules()
	ts := optimizer.TemplatesWithin(optimizer.DefaultTemplates(), rules.OpenMinute, rules.CloseMinute)

	out := make([]dto.ShiftTemplateResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, dto.ShiftTemplateResponse{
			Index:         t.Index,
			StartTime:     model.FormatClock(t.Start),
			EndTime:       model.FormatClock(t.End),
			BreakMinutes:  t.BreakMinutes,
			DurationHours: float64(t.End-t.Start) / 60,
			WorkedHours:   float64(t.WorkedMinutes()) / 60,
		})
	}
	return out, nil
}

// ════════════════════════════════════════════════════════════
// Snapshot
// ════════════════════════════════════════════════════════════

// loadSnapshot reads the store-week. Shifts of the week's own schedule do not
// count against budgets: a replacing apply removes the plain scheduled ones and
// the retained ones enter the problem as locks.
func (s *optimizerService) loadSnapshot(ctx context.Context, storeID string, ws time.Time, requireSchedule bool) (*snapshot, error) {
	store, err := loadStore(ctx, s.repo, s.logger, storeID)
	if err != nil {
		return nil, err
	}
	snap := &snapshot{store: store, weekStart: ws}

	schedule, err := s.repo.Schedule.GetByStoreWeek(ctx, storeID, ws)
	switch {
	case err == nil:
		snap.schedule = schedule
		snap.scheduleVersion = schedule.Version
		if snap.scheduleShifts, err = s.repo.Shift.ListBySchedule(ctx, schedule.ScheduleID); err != nil {
			s.logger.Error("list schedule shifts failed", zap.Error(err))
			return nil, err
		}
		for i := range snap.scheduleShifts {
			sh := &snap.scheduleShifts[i]
			keep, err := retainsShift(ctx, s.repo, sh)
			if err != nil {
				s.logger.Error("count open swaps failed", zap.Error(err))
				return nil, err
			}
			if keep && sh.Status.Active() {
				snap.retained = append(snap.retained, *sh)
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if requireSchedule {
			return nil, ErrScheduleNotFound
		}
	default:
		s.logger.Error("load schedule failed", zap.Error(err))
		return nil, err
	}

	if snap.employees, err = s.repo.Employee.ListByStore(ctx, storeID, true); err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, err
	}
	ids := employeeIDs(snap.employees)
	from, to := complianceWindow(ws)

	shifts, err := s.repo.Shift.ListActiveByEmployees(ctx, ids, from, to)
	if err != nil {
		s.logger.Error("list shifts failed", zap.Error(err))
		return nil, err
	}
	contexts, err := loadEmployeeContexts(ctx, s.repo, ids, from, to)
	if err != nil {
		s.logger.Error("load employee contexts failed", zap.Error(err))
		return nil, err
	}
	demand, err := s.repo.Demand.ListByStoreRange(ctx, storeID, ws, ws.AddDate(0, 0, 6))
	if err != nil {
		s.logger.Error("load demand failed", zap.Error(err))
		return nil, err
	}

	rules := engineForStore(s.engine, store).Rules()
	p := &optimizer.Problem{
		WeekStart:          ws,
		Templates:          optimizer.TemplatesWithin(optimizer.DefaultTemplates(), rules.OpenMinute, rules.CloseMinute),
		Employees:          make([]optimizer.Employee, 0, len(snap.employees)),
		MinCoveragePercent: s.cfg.MinCoveragePercent,
		Weights:            optimizer.Weights{Under: s.cfg.UnderWeight, Over: s.cfg.OverWeight},
		MaxDailyMinutes:    rules.MaxDailyMinutes,
		MaxDaysPerWindow:   rules.MaxDaysPerWindow,
		Seed:               s.cfg.Seed,
		Restarts:           s.cfg.Restarts,
	}
	for _, d := range demand {
		day := int(model.DateOnly(d.Date).Sub(ws).Hours() / 24)
		if day >= 0 && day < optimizer.DaysPerWeek && d.Hour >= 0 && d.Hour < optimizer.HoursPerDay {
			p.Demand[day][d.Hour] = d.RequiredHours
		}
	}

	inSchedule := map[string]bool{}
	for _, sh := range snap.scheduleShifts {
		inSchedule[sh.ShiftID] = true
	}
	outside := map[string][]model.Shift{}
	for _, sh := range shifts {
		if !inSchedule[sh.ShiftID] {
			outside[sh.EmployeeID] = append(outside[sh.EmployeeID], sh)
		}
	}

	for _, e := range snap.employees {
		p.Employees = append(p.Employees, toOptimizerEmployee(e, ws, rules, contexts[e.EmployeeID], outside[e.EmployeeID]))
	}
	snap.problem = p
	return snap, nil
}

func toOptimizerEmployee(e model.Employee, ws time.Time, rules compliance.Rules, ec compliance.EmployeeContext, shifts []model.Shift) optimizer.Employee {
	out := optimizer.Employee{ID: e.EmployeeID, Name: e.FullName(), RemainingMinutes: rules.MaxWeeklyMinutes}
	for d := 0; d < optimizer.DaysPerWeek; d++ {
		date := ws.AddDate(0, 0, d)
		if a, ok := ec.Availability[d]; ok && !a.IsAvailable {
			out.Unavailable[d] = true
		}
		for _, t := range ec.TimeOff {
			if t.Covers(date) {
				out.TimeOff[d] = true
			}
		}
	}
	for i := range shifts {
		sh := &shifts[i]
		offset := int(model.DateOnly(sh.Date).Sub(ws).Hours() / 24)
		switch {
		case offset < 0 && offset >= -6:
			out.WorkedBefore[offset+6] = true
		case offset >= 0 && offset < optimizer.DaysPerWeek:
			out.Busy[offset] = true
			out.RemainingMinutes -= int(sh.TotalHours()*60 + 0.5)
		case offset >= 7 && offset < 13:
			out.WorkedAfter[offset-7] = true
		}
	}
	if out.RemainingMinutes < 0 {
		out.RemainingMinutes = 0
	}
	return out
}

// retainsShift reports whether a replacing apply must keep sh: anything past
// plain scheduled, or a shift an open swap still holds.
func retainsShift(ctx context.Context, repo *repository.Repository, sh *model.Shift) (bool, error) {
	if sh.Status != model.ShiftScheduled {
		return true, nil
	}
	open, err := repo.Swap.CountOpenForShift(ctx, sh.ShiftID)
	if err != nil {
		return false, err
	}
	return open > 0, nil
}

// existingLocks pins the active persisted shifts so the solver plans around them.
func existingLocks(ws time.Time, templates []optimizer.Template, shifts []model.Shift) []optimizer.Lock {
	out := make([]optimizer.Lock, 0, len(shifts))
	for i := range shifts {
		sh := &shifts[i]
		if !sh.Status.Active() {
			continue
		}
		day := int(model.DateOnly(sh.Date).Sub(ws).Hours() / 24)
		start, end, err := sh.Minutes()
		if err != nil || day < 0 || day >= optimizer.DaysPerWeek {
			continue
		}
		out = append(out, optimizer.Lock{
			EmployeeID:    sh.EmployeeID,
			Day:           day,
			Start:         start,
			End:           end,
			BreakMinutes:  sh.BreakMinutes,
			TemplateIndex: matchTemplate(templates, start, end, sh.BreakMinutes),
			Reason:        "existing shift",
			ShiftID:       sh.ShiftID,
		})
	}
	return out
}

func toLocks(ws time.Time, templates []optimizer.Template, in []dto.LockedShiftInput) ([]optimizer.Lock, error) {
	out := make([]optimizer.Lock, 0, len(in))
	for _, l := range in {
		day, err := dayOfWeek(ws, l.Date)
		if err != nil {
			return nil, err
		}
		start, end, err := parseShiftTimes(l.StartTime, l.EndTime, l.BreakMinutes)
		if err != nil {
			return nil, err
		}
		out = append(out, optimizer.Lock{
			EmployeeID:    l.EmployeeID,
			Day:           day,
			Start:         start,
			End:           end,
			BreakMinutes:  l.BreakMinutes,
			TemplateIndex: matchTemplate(templates, start, end, l.BreakMinutes),
			Reason:        l.Reason,
		})
	}
	return out, nil
}

func toOverrides(ws time.Time, in []dto.OverrideInput) ([]optimizer.Override, error) {
	out := make([]optimizer.Override, 0, len(in))
	for _, o := range in {
		day, err := dayOfWeek(ws, o.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, optimizer.Override{
			EmployeeID:        o.EmployeeID,
			Day:               day,
			MustWork:          o.MustWork,
			CannotWork:        o.CannotWork,
			PreferredTemplate: o.PreferredShiftIdx,
			Reason:            o.Reason,
		})
	}
	return out, nil
}

func dayOfWeek(ws time.Time, date string) (int, error) {
	d, err := parseDate(date)
	if err != nil {
		return 0, err
	}
	day := int(d.Sub(ws).Hours() / 24)
	if day < 0 || day >= optimizer.DaysPerWeek {
		return 0, fmt.Errorf("%w: %s", ErrEntryOutsideWeek, date)
	}
	return day, nil
}

// matchTemplate -1 when no template has this shape.
func matchTemplate(ts []optimizer.Template, start, end, brk int) int {
	for _, t := range ts {
		if t.Start == start && t.End == end && t.BreakMinutes == brk {
			return t.Index
		}
	}
	return -1
}

// ════════════════════════════════════════════════════════════
// Solve
// ════════════════════════════════════════════════════════════

func (s *optimizerService) timeout(seconds int, fallback time.Duration) time.Duration {
	d := fallback
	if seconds > 0 {
		d = time.Duration(seconds) * time.Second
	}
	if s.cfg.MaxTimeout > 0 && d > s.cfg.MaxTimeout {
		d = s.cfg.MaxTimeout
	}
	if d <= 0 {
		d = 60 * time.Second
	}
	return d
}

func (s *optimizerService) solve(ctx context.Context, p *optimizer.Problem, timeout time.Duration) (*optimizer.Solution, error) {
	solveCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sol, err := s.solver.Solve(solveCtx, p)
	if err != nil {
		if errors.Is(err, optimizer.ErrInvalidProblem) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
		}
		s.logger.Error("solver failed", zap.Error(err))
		return nil, err
	}
	s.logger.Info("optimization finished",
		zap.String("status", string(sol.Status)),
		zap.Int("shifts", sol.Stats.TotalShifts),
		zap.Float64("coverage", sol.Stats.CoveragePercent),
		zap.Float64("seconds", sol.Stats.SolveTimeSeconds))
	return sol, nil
}

func (s *optimizerService) toResult(snap *snapshot, sol *optimizer.Solution) *dto.OptimizationResult {
	names := make(map[string]string, len(snap.employees))
	for i := range snap.employees {
		names[snap.employees[i].EmployeeID] = snap.employees[i].FullName()
	}
	out := &dto.OptimizationResult{
		StoreID:         snap.store.StoreID,
		WeekStart:       snap.weekStart.Format(model.DateLayout),
		Status:          string(sol.Status),
		Shifts:          make([]dto.ProposedShift, 0, len(sol.Assignments)),
		Stats:           sol.Stats,
		Warnings:        sol.Warnings,
		ScheduleVersion: snap.scheduleVersion,
	}
	if snap.schedule != nil {
		out.ScheduleID = strPtr(snap.schedule.ScheduleID)
	}
	for _, a := range sol.Assignments {
		out.Shifts = append(out.Shifts, dto.ProposedShift{
			EmployeeID:    a.EmployeeID,
			EmployeeName:  names[a.EmployeeID],
			Date:          snap.weekStart.AddDate(0, 0, a.Day).Format(model.DateLayout),
			StartTime:     model.FormatClock(a.Start),
			EndTime:       model.FormatClock(a.End),
			BreakMinutes:  a.BreakMinutes,
			TotalHours:    compliance.RoundHours(float64(a.WorkedMinutes()) / 60),
			TemplateIndex: a.TemplateIndex,
			Locked:        a.Locked,
			ShiftID:       a.ShiftID,
		})
	}
	return out
}

func (s *optimizerService) recordRun(ctx context.Context, caller jwt.Identity, snap *snapshot, result *dto.OptimizationResult) {
	run := &model.OptimizationRun{
		StoreID:     snap.store.StoreID,
		WeekStart:   snap.weekStart,
		Status:      result.Status,
		RequestedBy: actor(caller),
	}
	if snap.schedule != nil {
		run.ScheduleID = strPtr(snap.schedule.ScheduleID)
	}
	if raw, err := json.Marshal(result.Stats); err == nil {
		run.Stats = datatypes.JSON(raw)
	}
	if raw, err := json.Marshal(result.Warnings); err == nil {
		run.Warnings = datatypes.JSON(raw)
	}
	if err := s.repo.OptimizationRun.Create(ctx, run); err != nil {
		s.logger.Warn("record optimization run failed", zap.Error(err))
		return
	}
	result.RunID = run.OptimizationRunID
}

// ════════════════════════════════════════════════════════════
// Apply
// ════════════════════════════════════════════════════════════

// applyOutcome what one apply wrote.
type applyOutcome struct {
	schedule *model.Schedule
	created  int
	removed  int
	kept     int
}

// apply writes proposed into the store-week draft in one transaction.
// Entries carrying a shift_id keep that persisted shift. With replace, the
// draft's other plain scheduled shifts are removed first.
// expectedVersion 0 means no schedule existed when the proposal was made.
func (s *optimizerService) apply(ctx context.Context, caller jwt.Identity, storeID string, ws time.Time, expectedVersion int, proposed []dto.ProposedShift, replace bool) (*applyOutcome, error) {
	shifts, kept, err := s.prepareShifts(ctx, storeID, ws, proposed)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, fmt.Sprintf("schedule:%s:%s", storeID, ws.Format(model.DateLayout)), s.lockTTL())
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := &applyOutcome{kept: len(kept)}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var schedule *model.Schedule
		existing, err := tx.Schedule.GetByStoreWeek(ctx, storeID, ws)
		switch {
		case err == nil:
			if existing.Version != expectedVersion {
				return &ConflictError{Err: ErrApplyConflict, Conflicts: []Conflict{{
					Code:    "version_mismatch",
					Message: fmt.Sprintf("schedule is at version %d, proposal was made at %d", existing.Version, expectedVersion),
				}}}
			}
			if existing.Status != model.ScheduleDraft {
				return ErrScheduleNotDraft
			}
			schedule = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if expectedVersion != 0 {
				return &ConflictError{Err: ErrApplyConflict, Conflicts: []Conflict{{
					Code: "schedule_missing", Message: "the schedule was deleted after the proposal was made",
				}}}
			}
			if schedule, err = getOrCreateSchedule(ctx, tx, storeID, ws, actor(caller), true); err != nil {
				return err
			}
		default:
			return err
		}
		out.schedule = schedule

		current, err := tx.Shift.ListBySchedule(ctx, schedule.ScheduleID)
		if err != nil {
			return err
		}
		active := make(map[string]bool, len(current))
		for _, sh := range current {
			if sh.Status.Active() {
				active[sh.ShiftID] = true
			}
		}
		keep := make(map[string]bool, len(kept))
		var slots []Slot
		for _, k := range kept {
			keep[k.ShiftID] = true
			if !active[k.ShiftID] {
				slots = append(slots, Slot{EmployeeID: k.EmployeeID, Date: k.Date, Reason: "shift_removed"})
			}
		}
		if len(slots) > 0 {
			return &ConflictError{Err: ErrApplyConflict, Slots: slots}
		}

		var removed []model.Shift
		if replace {
			for i := range current {
				sh := &current[i]
				if keep[sh.ShiftID] {
					continue
				}
				retain, err := retainsShift(ctx, tx, sh)
				if err != nil {
					return err
				}
				if retain {
					continue
				}
				if err := tx.Shift.Delete(ctx, sh.ShiftID, caller.UserID); err != nil {
					return err
				}
				removed = append(removed, *sh)
			}
		}

		ids := make([]string, 0, len(shifts))
		for i := range shifts {
			shifts[i].ScheduleID = schedule.ScheduleID
			ids = append(ids, shifts[i].EmployeeID)
		}
		occupied, err := tx.Shift.ListActiveByEmployees(ctx, uniqueStrings(ids), ws, ws.AddDate(0, 0, 6))
		if err != nil {
			return err
		}
		taken := map[string]bool{}
		for _, o := range occupied {
			taken[o.EmployeeID+"|"+o.Date.Format(model.DateLayout)] = true
		}
		for _, sh := range shifts {
			date := sh.Date.Format(model.DateLayout)
			if taken[sh.EmployeeID+"|"+date] {
				slots = append(slots, Slot{EmployeeID: sh.EmployeeID, Date: date, Reason: "already_scheduled"})
			}
		}
		if len(slots) > 0 {
			return &ConflictError{Err: ErrApplyConflict, Slots: slots}
		}

		if len(shifts) > 0 {
			result, err := validateScheduleShifts(ctx, tx, s.engine, schedule, shifts)
			if err != nil {
				return err
			}
			if !result.Compliant {
				return newComplianceError(result)
			}
			if err := tx.Shift.BatchCreate(ctx, shifts); err != nil {
				return err
			}
		}
		if len(shifts) == 0 && len(removed) == 0 {
			return nil
		}
		if err := tx.Schedule.BumpVersion(ctx, schedule.ScheduleID, schedule.Version, actor(caller)); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return &ConflictError{Err: ErrApplyConflict}
			}
			return err
		}
		schedule.Version++
		out.created, out.removed = len(shifts), len(removed)

		logs := make([]model.ScheduleChangeLog, 0, len(removed)+len(shifts))
		for i := range removed {
			logs = append(logs, model.ScheduleChangeLog{
				ScheduleID:         schedule.ScheduleID,
				ShiftID:            strPtr(removed[i].ShiftID),
				OriginalEmployeeID: strPtr(removed[i].EmployeeID),
				ChangeType:         model.ChangeApply,
				Reason:             "replaced by a generated schedule",
				OperatorID:         actor(caller),
			})
		}
		for i := range shifts {
			logs = append(logs, model.ScheduleChangeLog{
				ScheduleID:    schedule.ScheduleID,
				ShiftID:       strPtr(shifts[i].ShiftID),
				NewEmployeeID: strPtr(shifts[i].EmployeeID),
				ChangeType:    model.ChangeApply,
				OperatorID:    actor(caller),
			})
		}
		return tx.ChangeLog.BatchCreate(ctx, logs)
	})
	if err != nil {
		var ce *ConflictError
		var cv *ComplianceError
		if !errors.As(err, &ce) && !errors.As(err, &cv) && !errors.Is(err, ErrScheduleNotDraft) {
			s.logger.Error("apply proposal failed", zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("proposal applied",
		zap.String("schedule_id", out.schedule.ScheduleID),
		zap.Int("created", out.created),
		zap.Int("removed", out.removed),
		zap.Int("kept", out.kept),
		zap.Int("version", out.schedule.Version))
	return out, nil
}

// prepareShifts converts and checks proposals before anything is locked. The
// entries naming an existing shift come back separately.
func (s *optimizerService) prepareShifts(ctx context.Context, storeID string, ws time.Time, proposed []dto.ProposedShift) ([]model.Shift, []dto.ProposedShift, error) {
	ids := make([]string, 0, len(proposed))
	for _, p := range proposed {
		ids = append(ids, p.EmployeeID)
	}
	emps, err := s.repo.Employee.ListByIDs(ctx, uniqueStrings(ids))
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, nil, err
	}
	byID := make(map[string]*model.Employee, len(emps))
	for i := range emps {
		byID[emps[i].EmployeeID] = &emps[i]
	}

	seen := map[string]bool{}
	out := make([]model.Shift, 0, len(proposed))
	var kept []dto.ProposedShift
	for _, p := range proposed {
		emp, ok := byID[p.EmployeeID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, p.EmployeeID)
		}
		if emp.StoreID != storeID {
			return nil, nil, fmt.Errorf("%w: %s", ErrEmployeeOtherStore, p.EmployeeID)
		}
		if emp.Status != model.EmployeeActive {
			return nil, nil, fmt.Errorf("%w: %s", ErrEmployeeInactive, p.EmployeeID)
		}
		if _, err := dayOfWeek(ws, p.Date); err != nil {
			return nil, nil, err
		}
		date, _ := parseDate(p.Date)
		start, end, err := parseShiftTimes(p.StartTime, p.EndTime, p.BreakMinutes)
		if err != nil {
			return nil, nil, err
		}
		key := p.EmployeeID + "|" + p.Date
		if seen[key] {
			return nil, nil, fmt.Errorf("%w: %s on %s", ErrDuplicateProposals, p.EmployeeID, p.Date)
		}
		seen[key] = true
		if p.ShiftID != "" {
			kept = append(kept, p)
			continue
		}

		out = append(out, model.Shift{
			ShiftID:      uuid.NewString(),
			EmployeeID:   p.EmployeeID,
			Date:         date,
			StartTime:    model.FormatClock(start),
			EndTime:      model.FormatClock(end),
			BreakMinutes: p.BreakMinutes,
			Status:       model.ShiftScheduled,
		})
	}
	return out, kept, nil
}

func (s *optimizerService) lockTTL() time.Duration {
	if s.lockTimeout > 0 {
		return s.lockTimeout
	}
	return 30 * time.Second
}
