package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/compliance"
	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// ComplianceService labor rule checks over persisted data.
type ComplianceService interface {
	// ValidateShift checks a proposed shift without persisting it.
	ValidateShift(ctx context.Context, caller jwt.Identity, req *dto.ValidateShiftRequest) (*compliance.Result, error)
	// ValidateSchedule checks every shift of a schedule.
	ValidateSchedule(ctx context.Context, caller jwt.Identity, scheduleID string) (*compliance.Result, error)
	// ValidateExistingShift checks one persisted shift against the rest.
	ValidateExistingShift(ctx context.Context, caller jwt.Identity, shiftID string) (*compliance.Result, error)
	EmployeeStatus(ctx context.Context, caller jwt.Identity, employeeID, weekStart string) (*compliance.EmployeeStatus, error)
	StoreWeekSummary(ctx context.Context, caller jwt.Identity, storeID, weekStart string) (*dto.StoreComplianceSummary, error)
	Rules() dto.ComplianceRulesResponse
}

type complianceService struct {
	repo   *repository.Repository
	engine *compliance.Engine
	logger *zap.Logger
}

// NewComplianceService creates a ComplianceService.
func NewComplianceService(repo *repository.Repository, engine *compliance.Engine, logger *zap.Logger) ComplianceService {
	return &complianceService{repo: repo, engine: engine, logger: logger}
}

func (s *complianceService) ValidateShift(ctx context.Context, caller jwt.Identity, req *dto.ValidateShiftRequest) (*compliance.Result, error) {
	emp, err := loadEmployee(ctx, s.repo, s.logger, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, emp); err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	start, end, err := parseShiftTimes(req.StartTime, req.EndTime, req.BreakMinutes)
	if err != nil {
		return nil, err
	}

	proposed := compliance.Shift{
		ID:           req.ShiftID,
		EmployeeID:   emp.EmployeeID,
		Date:         date,
		Start:        start,
		End:          end,
		BreakMinutes: req.BreakMinutes,
	}
	result, err := checkProposedShift(ctx, s.repo, s.engine, emp, proposed)
	if err != nil {
		s.logger.Error("validate shift failed", zap.Error(err))
		return nil, err
	}
	return &result, nil
}

func (s *complianceService) ValidateExistingShift(ctx context.Context, caller jwt.Identity, shiftID string) (*compliance.Result, error) {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("load shift failed", zap.Error(err))
		return nil, err
	}
	emp, err := loadEmployee(ctx, s.repo, s.logger, shift.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, emp); err != nil {
		return nil, err
	}
	cs, ok := toComplianceShift(shift)
	if !ok {
		return nil, ErrInvalidTimeRange
	}
	result, err := checkProposedShift(ctx, s.repo, s.engine, emp, cs)
	if err != nil {
		s.logger.Error("validate shift failed", zap.Error(err))
		return nil, err
	}
	return &result, nil
}

func (s *complianceService) ValidateSchedule(ctx context.Context, caller jwt.Identity, scheduleID string) (*compliance.Result, error) {
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
	shifts, err := s.repo.Shift.ListBySchedule(ctx, schedule.ScheduleID)
	if err != nil {
		s.logger.Error("list shifts failed", zap.Error(err))
		return nil, err
	}
	result, err := validateScheduleShifts(ctx, s.repo, s.engine, schedule, shifts)
	if err != nil {
		s.logger.Error("validate schedule failed", zap.Error(err))
		return nil, err
	}
	return &result, nil
}

func (s *complianceService) EmployeeStatus(ctx context.Context, caller jwt.Identity, employeeID, weekStart string) (*compliance.EmployeeStatus, error) {
	ws, err := parseWeekStart(weekStart)
	if err != nil {
		return nil, err
	}
	emp, err := loadEmployee(ctx, s.repo, s.logger, employeeID)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, emp); err != nil {
		return nil, err
	}
	shifts, err := s.repo.Shift.ListActiveByEmployees(ctx, []string{emp.EmployeeID}, ws, ws.AddDate(0, 0, 6))
	if err != nil {
		s.logger.Error("list shifts failed", zap.Error(err))
		return nil, err
	}
	status := s.engine.Status(emp.EmployeeID, ws, toComplianceShifts(shifts))
	return &status, nil
}

func (s *complianceService) StoreWeekSummary(ctx context.Context, caller jwt.Identity, storeID, weekStart string) (*dto.StoreComplianceSummary, error) {
	ws, err := parseWeekStart(weekStart)
	if err != nil {
		return nil, err
	}
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	if err := authorizeStore(caller, storeID); err != nil {
		return nil, err
	}
	if _, err := loadStore(ctx, s.repo, s.logger, storeID); err != nil {
		return nil, err
	}

	emps, err := s.repo.Employee.ListByStore(ctx, storeID, true)
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, err
	}
	shifts, err := s.repo.Shift.ListActiveByEmployees(ctx, employeeIDs(emps), ws, ws.AddDate(0, 0, 6))
	if err != nil {
		s.logger.Error("list shifts failed", zap.Error(err))
		return nil, err
	}
	byEmp := shiftsByEmployee(toComplianceShifts(shifts))

	summary := &dto.StoreComplianceSummary{
		StoreID:   storeID,
		WeekStart: ws.Format(model.DateLayout),
		Employees: make([]dto.EmployeeComplianceStatus, 0, len(emps)),
	}
	for _, e := range emps {
		st := s.engine.Status(e.EmployeeID, ws, byEmp[e.EmployeeID])
		summary.Employees = append(summary.Employees, dto.EmployeeComplianceStatus{EmployeeStatus: st, EmployeeName: e.FullName()})
		summary.TotalHours += st.TotalHours
		if st.IsAtLimit {
			summary.AtLimitCount++
		} else if st.IsNearLimit {
			summary.NearLimitCount++
		}
	}
	sort.SliceStable(summary.Employees, func(i, j int) bool {
		return summary.Employees[i].TotalHours > summary.Employees[j].TotalHours
	})
	summary.TotalHours = compliance.RoundHours(summary.TotalHours)
	return summary, nil
}

func (s *complianceService) Rules() dto.ComplianceRulesResponse {
	r := s.engine.Rules()
	out := dto.ComplianceRulesResponse{
		MaxWeeklyHours:   float64(r.MaxWeeklyMinutes) / 60,
		MaxDailyHours:    float64(r.MaxDailyMinutes) / 60,
		MaxDaysPerWindow: r.MaxDaysPerWindow,
		NearLimitBuffer:  float64(r.NearLimitMinutes) / 60,
		BreakRules:       make([]dto.BreakRuleResponse, 0, len(r.BreakRules)),
		StoreOpenHour:    r.OpenMinute / 60,
		StoreCloseHour:   r.CloseMinute / 60,
	}
	for _, br := range r.BreakRules {
		out.BreakRules = append(out.BreakRules, dto.BreakRuleResponse{
			MinSpanHours:    float64(br.MinSpanMinutes) / 60,
			MinBreakMinutes: br.MinBreakMinutes,
		})
	}
	return out
}

// ── Shared checks ──

// checkProposedShift evaluates proposed against the employee's persisted
// active shifts around its week, minus exclude. A proposed ID equal to a
// persisted shift replaces that shift.
func checkProposedShift(ctx context.Context, repo *repository.Repository, engine *compliance.Engine, emp *model.Employee, proposed compliance.Shift, exclude ...string) (compliance.Result, error) {
	from, to := complianceWindow(compliance.WeekStart(proposed.Date))
	existing, err := repo.Shift.ListActiveByEmployees(ctx, []string{emp.EmployeeID}, from, to)
	if err != nil {
		return compliance.Result{}, err
	}
	contexts, err := loadEmployeeContexts(ctx, repo, []string{emp.EmployeeID}, from, to)
	if err != nil {
		return compliance.Result{}, err
	}
	store, err := repo.Store.GetByID(ctx, emp.StoreID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return compliance.Result{}, err
	}
	return engineForStore(engine, store).CheckShift(proposed, toComplianceShifts(existing, exclude...), contexts[emp.EmployeeID]), nil
}

// validateScheduleShifts checks a schedule's active shifts together with every
// other active shift of the same employees inside the rolling window.
func validateScheduleShifts(ctx context.Context, repo *repository.Repository, engine *compliance.Engine, schedule *model.Schedule, shifts []model.Shift) (compliance.Result, error) {
	ws := model.DateOnly(schedule.WeekStartDate)
	ids := make([]string, 0)
	seen := map[string]bool{}
	for _, sh := range shifts {
		if sh.Status.Active() && !seen[sh.EmployeeID] {
			seen[sh.EmployeeID] = true
			ids = append(ids, sh.EmployeeID)
		}
	}

	from, to := complianceWindow(ws)
	persisted, err := repo.Shift.ListActiveByEmployees(ctx, ids, from, to)
	if err != nil {
		return compliance.Result{}, err
	}
	// shifts may hold unsaved edits; they win over the persisted copies.
	inSchedule := make([]string, 0, len(shifts))
	for _, sh := range shifts {
		inSchedule = append(inSchedule, sh.ShiftID)
	}
	all := append(toComplianceShifts(persisted, inSchedule...), toComplianceShifts(shifts)...)

	contexts, err := loadEmployeeContexts(ctx, repo, ids, from, to)
	if err != nil {
		return compliance.Result{}, err
	}
	var store *model.Store
	if schedule.Store != nil {
		store = schedule.Store
	} else if st, err := repo.Store.GetByID(ctx, schedule.StoreID); err == nil {
		store = st
	}
	return engineForStore(engine, store).ValidateSchedule(ws, filterEmployees(all, seen), contexts), nil
}

func filterEmployees(shifts []compliance.Shift, keep map[string]bool) []compliance.Shift {
	out := shifts[:0:0]
	for _, s := range shifts {
		if keep[s.EmployeeID] {
			out = append(out, s)
		}
	}
	return out
}

// employeeWeekShifts active shifts of employees around the week of date.
func employeeWeekShifts(ctx context.Context, repo *repository.Repository, ids []string, date time.Time) ([]model.Shift, error) {
	from, to := complianceWindow(model.WeekStart(date))
	return repo.Shift.ListActiveByEmployees(ctx, ids, from, to)
}
