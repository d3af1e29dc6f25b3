// Package optimizer builds weekly picker schedules against an hourly demand grid.
//
// A Problem is an immutable snapshot; Solvers never touch storage. The shipped
// GreedySolver is an anytime search: it always holds a hard-feasible incumbent
// and returns it when the context expires.
package optimizer

import (
	"errors"
	"fmt"
	"time"
)

// Status outcome of a solve.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusTimeout    Status = "timeout"
	StatusError      Status = "error"
)

// ErrInvalidProblem the problem cannot be solved as given.
var ErrInvalidProblem = errors.New("invalid optimization problem")

// Days and hours of the demand grid.
const (
	DaysPerWeek  = 7
	HoursPerDay  = 24
	windowBefore = 6
	windowAfter  = 6
)

// Template a shift shape the solver may assign. Start and End are minutes after midnight.
type Template struct {
	Index        int `json:"index"`
	Start        int `json:"start"`
	End          int `json:"end"`
	BreakMinutes int `json:"break_minutes"`
}

// WorkedMinutes span minus break.
func (t Template) WorkedMinutes() int { return t.End - t.Start - t.BreakMinutes }

// DefaultTemplates 8-16, 9-17, 10-18, 11-19, 12-20 and 14-22, each with a 30 minute break.
func DefaultTemplates() []Template {
	starts := []int{8, 9, 10, 11, 12, 14}
	out := make([]Template, 0, len(starts))
	for i, h := range starts {
		out = append(out, Template{Index: i, Start: h * 60, End: (h + 8) * 60, BreakMinutes: 30})
	}
	return out
}

// TemplatesWithin keeps templates inside [open, close) and renumbers them.
func TemplatesWithin(ts []Template, openMinute, closeMinute int) []Template {
	out := make([]Template, 0, len(ts))
	for _, t := range ts {
		if t.Start >= openMinute && t.End <= closeMinute {
			t.Index = len(out)
			out = append(out, t)
		}
	}
	return out
}

// Employee per-employee context for one week. Day arrays are indexed 0 = Monday.
type Employee struct {
	ID   string
	Name string
	// Unavailable days are skipped unless a must_work override says otherwise.
	Unavailable [DaysPerWeek]bool
	// TimeOff days are never assigned.
	TimeOff [DaysPerWeek]bool
	// Busy days already hold an active shift outside this problem.
	Busy [DaysPerWeek]bool
	// RemainingMinutes worked minutes still allowed this week.
	RemainingMinutes int
	// WorkedBefore[i] is weekStart-6+i, WorkedAfter[i] is weekStart+7+i.
	WorkedBefore [windowBefore]bool
	WorkedAfter  [windowAfter]bool
}

// Lock an assignment that must appear in the solution unchanged.
type Lock struct {
	EmployeeID   string `json:"employee_id"`
	Day          int    `json:"day_index"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	BreakMinutes int    `json:"break_minutes"`
	// TemplateIndex is -1 for shapes that match no template.
	TemplateIndex int    `json:"template_index"`
	Reason        string `json:"reason,omitempty"`
	// ShiftID names the persisted shift the lock stands for, if any.
	ShiftID string `json:"shift_id,omitempty"`
}

// Override a manager instruction for one employee-day.
type Override struct {
	EmployeeID        string `json:"employee_id"`
	Day               int    `json:"day_index"`
	MustWork          bool   `json:"must_work"`
	CannotWork        bool   `json:"cannot_work"`
	PreferredTemplate *int   `json:"preferred_shift_idx,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

// Weights objective coefficients per picker-hour.
type Weights struct {
	Under float64
	Over  float64
}

// DefaultWeights 10 per understaffed hour, 1 per overstaffed hour.
func DefaultWeights() Weights { return Weights{Under: 10, Over: 1} }

// Problem one store-week to schedule.
type Problem struct {
	WeekStart          time.Time
	Demand             [DaysPerWeek][HoursPerDay]float64
	Templates          []Template
	Employees          []Employee
	Locks              []Lock
	Overrides          []Override
	MinCoveragePercent float64
	Weights            Weights
	MaxDailyMinutes    int
	MaxDaysPerWindow   int
	Seed               int64
	// Restarts rounds without improvement before the search stops.
	Restarts int
}

// Validate rejects malformed problems.
func (p *Problem) Validate() error {
	if len(p.Templates) == 0 {
		return fmt.Errorf("%w: no shift templates", ErrInvalidProblem)
	}
	for i, t := range p.Templates {
		if t.Start < 0 || t.End > 24*60 || t.End <= t.Start || t.BreakMinutes < 0 || t.WorkedMinutes() <= 0 {
			return fmt.Errorf("%w: template %d has an invalid shape", ErrInvalidProblem, i)
		}
	}
	for d := 0; d < DaysPerWeek; d++ {
		for h := 0; h < HoursPerDay; h++ {
			if p.Demand[d][h] < 0 {
				return fmt.Errorf("%w: negative demand on day %d hour %d", ErrInvalidProblem, d, h)
			}
		}
	}
	seen := map[string]bool{}
	for _, e := range p.Employees {
		if e.ID == "" || seen[e.ID] {
			return fmt.Errorf("%w: missing or duplicate employee id %q", ErrInvalidProblem, e.ID)
		}
		seen[e.ID] = true
	}
	for _, o := range p.Overrides {
		if o.PreferredTemplate != nil && (*o.PreferredTemplate < 0 || *o.PreferredTemplate >= len(p.Templates)) {
			return fmt.Errorf("%w: preferred template %d out of range", ErrInvalidProblem, *o.PreferredTemplate)
		}
		if o.MustWork && o.CannotWork {
			return fmt.Errorf("%w: override for %s day %d is both must_work and cannot_work", ErrInvalidProblem, o.EmployeeID, o.Day)
		}
	}
	for _, l := range p.Locks {
		if l.TemplateIndex >= len(p.Templates) {
			return fmt.Errorf("%w: locked template %d out of range", ErrInvalidProblem, l.TemplateIndex)
		}
	}
	return nil
}

// TotalDemand sum of the grid in picker-hours.
func (p *Problem) TotalDemand() float64 {
	total := 0.0
	for d := 0; d < DaysPerWeek; d++ {
		for h := 0; h < HoursPerDay; h++ {
			total += p.Demand[d][h]
		}
	}
	return total
}

// Assignment one shift in a solution.
type Assignment struct {
	EmployeeID    string `json:"employee_id"`
	Day           int    `json:"day_index"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	BreakMinutes  int    `json:"break_minutes"`
	TemplateIndex int    `json:"template_index"`
	Locked        bool   `json:"locked"`
	ShiftID       string `json:"shift_id,omitempty"`
}

// WorkedMinutes span minus break.
func (a Assignment) WorkedMinutes() int { return a.End - a.Start - a.BreakMinutes }

// Stats solution metrics. Hour values are rounded to two decimals.
type Stats struct {
	TotalShifts          int     `json:"total_shifts"`
	TotalHours           float64 `json:"total_hours"`
	EmployeesScheduled   int     `json:"employees_scheduled"`
	TotalEmployees       int     `json:"total_employees"`
	CoveragePercent      float64 `json:"coverage_percent"`
	TotalDemandHours     float64 `json:"total_demand_hours"`
	ScheduledDemandHours float64 `json:"scheduled_demand_hours"`
	UnderstaffedHours    float64 `json:"understaffed_hours"`
	OverstaffedHours     float64 `json:"overstaffed_hours"`
	FairnessStdDev       float64 `json:"fairness_stddev"`
	Objective            float64 `json:"objective"`
	SolveTimeSeconds     float64 `json:"solve_time_seconds"`
	Iterations           int     `json:"iterations"`
	LockedShiftsCount    int     `json:"locked_shifts_count"`
	ManualOverridesCount int     `json:"manual_overrides_count"`
}

// Solution solver output. Assignments are sorted by day, start and employee.
type Solution struct {
	Status      Status       `json:"status"`
	Assignments []Assignment `json:"assignments"`
	Stats       Stats        `json:"stats"`
	Warnings    []string     `json:"warnings"`
}
