package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/compliance"
	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/optimizer"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// Coverage statuses of one store hour.
const (
	CoverageAdequate     = "adequate"
	CoverageUnderstaffed = "understaffed"
	CoverageOverstaffed  = "overstaffed"
)

const (
	// adequateBand staffing within this many picker-hours of demand is adequate.
	adequateBand = 0.5
	worstGaps    = 10
	// maxReportDays longest labor summary range.
	maxReportDays = 92
)

// ── Report errors ──

var (
	ErrReportRangeTooLong = errors.New("report range is too long")
)

// ReportService read-only staffing and labor reports for managers.
type ReportService interface {
	// Coverage compares the week's active shifts with demand, hour by hour.
	Coverage(ctx context.Context, caller jwt.Identity, storeID, weekStart string) (*dto.CoverageReport, error)
	LaborSummary(ctx context.Context, caller jwt.Identity, q *dto.LaborSummaryQuery) (*dto.LaborSummaryReport, error)
}

type reportService struct {
	repo   *repository.Repository
	engine *compliance.Engine
	logger *zap.Logger
}

// NewReportService creates a ReportService.
func NewReportService(repo *repository.Repository, engine *compliance.Engine, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, engine: engine, logger: logger}
}

func (s *reportService) Coverage(ctx context.Context, caller jwt.Identity, storeID, weekStart string) (*dto.CoverageReport, error) {
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
	store, err := loadStore(ctx, s.repo, s.logger, storeID)
	if err != nil {
		return nil, err
	}

	report := &dto.CoverageReport{
		StoreID:           storeID,
		WeekStart:         ws.Format(model.DateLayout),
		WorstUnderstaffed: []dto.CoverageGap{},
		WorstOverstaffed:  []dto.CoverageGap{},
		Days:              make([]dto.CoverageDay, 0, optimizer.DaysPerWeek),
	}

	var assignments []optimizer.Assignment
	schedule, err := s.repo.Schedule.GetByStoreWeek(ctx, storeID, ws)
	switch {
	case err == nil:
		report.ScheduleID = strPtr(schedule.ScheduleID)
		report.ScheduleStatus = string(schedule.Status)
		shifts, err := s.repo.Shift.ListBySchedule(ctx, schedule.ScheduleID)
		if err != nil {
			s.logger.Error("list schedule shifts failed", zap.Error(err))
			return nil, err
		}
		assignments = toAssignments(ws, shifts)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no schedule yet, nothing is staffed
	default:
		s.logger.Error("load schedule failed", zap.Error(err))
		return nil, err
	}

	rows, err := s.repo.Demand.ListByStoreRange(ctx, storeID, ws, ws.AddDate(0, 0, optimizer.DaysPerWeek-1))
	if err != nil {
		s.logger.Error("load demand failed", zap.Error(err))
		return nil, err
	}
	var demand [optimizer.DaysPerWeek][optimizer.HoursPerDay]float64
	for _, d := range rows {
		day := model.DayIndex(d.Date)
		if d.Hour >= 0 && d.Hour < optimizer.HoursPerDay {
			demand[day][d.Hour] = d.RequiredHours
		}
	}
	staffing := optimizer.Staffing(assignments)

	rules := engineForStore(s.engine, store).Rules()
	var matched float64
	for d := 0; d < optimizer.DaysPerWeek; d++ {
		date := ws.AddDate(0, 0, d).Format(model.DateLayout)
		day := dto.CoverageDay{Date: date, Hours: []dto.CoverageHour{}}
		lo, hi := reportHours(rules, demand[d], staffing[d])
		for h := lo; h < hi; h++ {
			req, got := demand[d][h], staffing[d][h]
			hour := dto.CoverageHour{
				Hour:      h,
				Required:  round2(req),
				Scheduled: round2(got),
				Delta:     round2(got - req),
				Status:    coverageStatus(req, got),
			}
			day.Hours = append(day.Hours, hour)
			day.RequiredHours += req
			day.ScheduledHours += got
			matched += math.Min(req, got)

			switch hour.Status {
			case CoverageUnderstaffed:
				report.UnderstaffedPeriods++
				report.WorstUnderstaffed = append(report.WorstUnderstaffed, dto.CoverageGap{Date: date, Hour: h, Hours: round2(req - got)})
			case CoverageOverstaffed:
				report.OverstaffedPeriods++
				report.WorstOverstaffed = append(report.WorstOverstaffed, dto.CoverageGap{Date: date, Hour: h, Hours: round2(got - req)})
			}
			if got < req {
				report.UnderstaffedHours += req - got
			} else {
				report.OverstaffedHours += got - req
			}
		}
		report.TotalRequiredHours += day.RequiredHours
		report.TotalScheduledHours += day.ScheduledHours
		day.RequiredHours, day.ScheduledHours = round2(day.RequiredHours), round2(day.ScheduledHours)
		report.Days = append(report.Days, day)
	}

	report.CoverageScore = 100
	if report.TotalRequiredHours > 0 {
		report.CoverageScore = math.Round(matched/report.TotalRequiredHours*1000) / 10
	}
	report.TotalRequiredHours = round2(report.TotalRequiredHours)
	report.TotalScheduledHours = round2(report.TotalScheduledHours)
	report.UnderstaffedHours = round2(report.UnderstaffedHours)
	report.OverstaffedHours = round2(report.OverstaffedHours)
	report.WorstUnderstaffed = worst(report.WorstUnderstaffed)
	report.WorstOverstaffed = worst(report.WorstOverstaffed)
	return report, nil
}

func (s *reportService) LaborSummary(ctx context.Context, caller jwt.Identity, q *dto.LaborSummaryQuery) (*dto.LaborSummaryReport, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	if err := authorizeStore(caller, q.StoreID); err != nil {
		return nil, err
	}
	from, err := parseDate(q.StartDate)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(q.EndDate)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, ErrInvalidTimeRange
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > maxReportDays {
		return nil, ErrReportRangeTooLong
	}
	if _, err := loadStore(ctx, s.repo, s.logger, q.StoreID); err != nil {
		return nil, err
	}

	emps, err := s.repo.Employee.ListByStore(ctx, q.StoreID, false)
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, err
	}
	shifts, err := s.repo.Shift.ListActiveByEmployees(ctx, employeeIDs(emps), from, to)
	if err != nil {
		s.logger.Error("list shifts failed", zap.Error(err))
		return nil, err
	}
	callouts, err := s.repo.Shift.ListCallouts(ctx, repository.CalloutFilter{StoreID: q.StoreID, From: from, To: to, IncludeCovered: true})
	if err != nil {
		s.logger.Error("list callouts failed", zap.Error(err))
		return nil, err
	}
	demand, err := s.repo.Demand.ListByStoreRange(ctx, q.StoreID, from, to)
	if err != nil {
		s.logger.Error("load demand failed", zap.Error(err))
		return nil, err
	}

	report := &dto.LaborSummaryReport{
		StoreID:      q.StoreID,
		StartDate:    from.Format(model.DateLayout),
		EndDate:      to.Format(model.DateLayout),
		ShiftCount:   len(shifts),
		CalloutCount: len(callouts),
		Employees:    []dto.EmployeeLabor{},
	}
	for _, sh := range callouts {
		if sh.Status == model.ShiftCovered {
			report.CoveredCount++
		}
	}
	for _, d := range demand {
		report.DemandHours += d.RequiredHours
	}

	maxHours := float64(s.engine.Rules().MaxWeeklyMinutes) / 60 * float64(days) / 7
	perEmp := map[string]*dto.EmployeeLabor{}
	for _, e := range emps {
		if e.Status == model.EmployeeActive {
			report.EmployeeCount++
		}
		perEmp[e.EmployeeID] = &dto.EmployeeLabor{EmployeeID: e.EmployeeID, EmployeeName: e.FullName(), MaxHours: round2(maxHours)}
	}
	for _, sh := range shifts {
		el := perEmp[sh.EmployeeID]
		if el == nil {
			continue
		}
		el.Shifts++
		el.Hours += sh.TotalHours()
		report.ScheduledHours += sh.TotalHours()
	}
	for _, e := range emps {
		el := perEmp[e.EmployeeID]
		if el.Shifts == 0 && e.Status != model.EmployeeActive {
			continue
		}
		if el.Shifts > 0 {
			report.EmployeesScheduled++
		}
		if maxHours > 0 {
			el.UtilizationPercent = math.Round(el.Hours/maxHours*1000) / 10
		}
		el.Hours = round2(el.Hours)
		report.Employees = append(report.Employees, *el)
	}
	sort.SliceStable(report.Employees, func(i, j int) bool {
		return report.Employees[i].Hours > report.Employees[j].Hours
	})

	if report.DemandHours > 0 {
		report.DemandRatioPercent = math.Round(report.ScheduledHours/report.DemandHours*1000) / 10
	}
	report.ScheduledHours = round2(report.ScheduledHours)
	report.DemandHours = round2(report.DemandHours)
	return report, nil
}

// toAssignments maps a week's active shifts onto the solver grid.
func toAssignments(ws time.Time, shifts []model.Shift) []optimizer.Assignment {
	out := make([]optimizer.Assignment, 0, len(shifts))
	for i := range shifts {
		sh := &shifts[i]
		if !sh.Status.Active() {
			continue
		}
		start, end, err := sh.Minutes()
		if err != nil {
			continue
		}
		day := int(model.DateOnly(sh.Date).Sub(ws).Hours() / 24)
		out = append(out, optimizer.Assignment{
			EmployeeID:   sh.EmployeeID,
			Day:          day,
			Start:        start,
			End:          end,
			BreakMinutes: sh.BreakMinutes,
			ShiftID:      sh.ShiftID,
		})
	}
	return out
}

// reportHours the operating hours, widened to any hour with demand or staffing.
func reportHours(rules compliance.Rules, demand, staffing [optimizer.HoursPerDay]float64) (int, int) {
	lo, hi := rules.OpenMinute/60, (rules.CloseMinute+59)/60
	for h := 0; h < optimizer.HoursPerDay; h++ {
		if demand[h] == 0 && staffing[h] == 0 {
			continue
		}
		if h < lo {
			lo = h
		}
		if h+1 > hi {
			hi = h + 1
		}
	}
	return lo, hi
}

func coverageStatus(required, scheduled float64) string {
	switch {
	case math.Abs(scheduled-required) < adequateBand:
		return CoverageAdequate
	case scheduled < required:
		return CoverageUnderstaffed
	default:
		return CoverageOverstaffed
	}
}

// worst the largest gaps first, earliest first on ties.
func worst(gaps []dto.CoverageGap) []dto.CoverageGap {
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].Hours > gaps[j].Hours })
	if len(gaps) > worstGaps {
		gaps = gaps[:worstGaps]
	}
	return gaps
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
