// Package compliance evaluates labor rules over an employee's shifts.
// It performs no I/O: callers load shifts, availability and time off and
// pass them in as plain values.
package compliance

import (
	"time"

	"github.com/malamapl09/Picker-Scheduler/config"
)

// Severity of a finding.
type Severity string

const (
	SeverityViolation Severity = "violation"
	SeverityWarning   Severity = "warning"
	SeverityInfo      Severity = "info"
)

// Code identifies the rule a finding comes from.
type Code string

const (
	CodeWeeklyHoursExceeded   Code = "WEEKLY_HOURS_EXCEEDED"
	CodeDailyHoursExceeded    Code = "DAILY_HOURS_EXCEEDED"
	CodeNoDayOff              Code = "NO_DAY_OFF"
	CodeBreakInsufficient     Code = "BREAK_INSUFFICIENT"
	CodeShiftOverlap          Code = "SHIFT_OVERLAP"
	CodeTimeOffConflict       Code = "TIME_OFF_CONFLICT"
	CodeAvailabilityMismatch  Code = "AVAILABILITY_MISMATCH"
	CodeOutsideOperatingHours Code = "OUTSIDE_OPERATING_HOURS"
	CodeWeeklyHoursNearLimit  Code = "WEEKLY_HOURS_NEAR_LIMIT"
)

// codeOrder fixes the output order of findings.
var codeOrder = map[Code]int{
	CodeWeeklyHoursExceeded:   0,
	CodeDailyHoursExceeded:    1,
	CodeNoDayOff:              2,
	CodeBreakInsufficient:     3,
	CodeShiftOverlap:          4,
	CodeTimeOffConflict:       5,
	CodeAvailabilityMismatch:  6,
	CodeOutsideOperatingHours: 7,
	CodeWeeklyHoursNearLimit:  8,
}

// Finding one rule outcome. Date is empty for week-level findings.
type Finding struct {
	Code       Code                   `json:"code"`
	Severity   Severity               `json:"severity"`
	EmployeeID string                 `json:"employee_id"`
	Date       string                 `json:"date,omitempty"`
	ShiftIDs   []string               `json:"shift_ids,omitempty"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Result findings split by severity. Compliant is false when any violation exists.
type Result struct {
	Compliant  bool      `json:"compliant"`
	Violations []Finding `json:"violations"`
	Warnings   []Finding `json:"warnings"`
	Info       []Finding `json:"info"`
}

// HasWarnings reports whether any warning was raised.
func (r Result) HasWarnings() bool { return len(r.Warnings) > 0 }

// Shift the minimal view of a shift the rules need. Start and End are
// minutes after midnight of Date.
type Shift struct {
	ID           string
	EmployeeID   string
	Date         time.Time
	Start        int
	End          int
	BreakMinutes int
}

// SpanMinutes end minus start.
func (s Shift) SpanMinutes() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// WorkedMinutes span minus break.
func (s Shift) WorkedMinutes() int {
	w := s.SpanMinutes() - s.BreakMinutes
	if w < 0 {
		return 0
	}
	return w
}

// Availability weekly preference for one day, 0 = Monday.
type Availability struct {
	DayOfWeek      int
	IsAvailable    bool
	PreferredStart *int
	PreferredEnd   *int
}

// TimeOff an approved inclusive date range.
type TimeOff struct {
	Start time.Time
	End   time.Time
}

// Covers reports whether d is inside the range.
func (t TimeOff) Covers(d time.Time) bool {
	day := dateOnly(d)
	return !day.Before(dateOnly(t.Start)) && !day.After(dateOnly(t.End))
}

// EmployeeContext the per-employee facts besides shifts.
type EmployeeContext struct {
	Availability map[int]Availability
	TimeOff      []TimeOff
}

// BreakRule MinBreakMinutes required once the span reaches MinSpanMinutes.
type BreakRule struct {
	MinSpanMinutes  int
	MinBreakMinutes int
}

// Rules limits, in minutes.
type Rules struct {
	MaxWeeklyMinutes int
	MaxDailyMinutes  int
	MaxDaysPerWindow int
	NearLimitMinutes int
	BreakRules       []BreakRule
	OpenMinute       int
	CloseMinute      int
}

// DefaultRules 44 h week, 8 h day, 6 of 7 days, breaks at 8 h and 9 h, store 08-22.
func DefaultRules() Rules {
	return Rules{
		MaxWeeklyMinutes: 44 * 60,
		MaxDailyMinutes:  8 * 60,
		MaxDaysPerWindow: 6,
		NearLimitMinutes: 4 * 60,
		BreakRules: []BreakRule{
			{MinSpanMinutes: 8 * 60, MinBreakMinutes: 30},
			{MinSpanMinutes: 9 * 60, MinBreakMinutes: 60},
		},
		OpenMinute:  8 * 60,
		CloseMinute: 22 * 60,
	}
}

// RulesFromConfig converts configured hour values to Rules.
func RulesFromConfig(cfg *config.ComplianceConfig) Rules {
	r := Rules{
		MaxWeeklyMinutes: hoursToMinutes(cfg.MaxWeeklyHours),
		MaxDailyMinutes:  hoursToMinutes(cfg.MaxDailyHours),
		MaxDaysPerWindow: cfg.MaxDaysPerWindow,
		NearLimitMinutes: hoursToMinutes(cfg.NearLimitBuffer),
		OpenMinute:       cfg.StoreOpenHour * 60,
		CloseMinute:      cfg.StoreCloseHour * 60,
	}
	for _, br := range cfg.BreakRules {
		r.BreakRules = append(r.BreakRules, BreakRule{
			MinSpanMinutes:  hoursToMinutes(br.MinSpanHours),
			MinBreakMinutes: br.MinBreakMinutes,
		})
	}
	return r
}

// RequiredBreak the largest break any rule demands for a span.
func (r Rules) RequiredBreak(spanMinutes int) int {
	required := 0
	for _, br := range r.BreakRules {
		if spanMinutes >= br.MinSpanMinutes && br.MinBreakMinutes > required {
			required = br.MinBreakMinutes
		}
	}
	return required
}

// EmployeeStatus hour and day budget of one employee for one week.
type EmployeeStatus struct {
	EmployeeID     string  `json:"employee_id"`
	WeekStart      string  `json:"week_start"`
	TotalHours     float64 `json:"total_hours"`
	HoursRemaining float64 `json:"hours_remaining"`
	DaysWorked     int     `json:"days_worked"`
	DaysRemaining  int     `json:"days_remaining"`
	IsNearLimit    bool    `json:"is_near_limit"`
	IsAtLimit      bool    `json:"is_at_limit"`
}

func hoursToMinutes(h float64) int {
	return int(h*60 + 0.5)
}

func minutesToHours(m int) float64 {
	return float64(m) / 60
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekStart the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	d := dateOnly(t)
	return d.AddDate(0, 0, -dayIndex(d))
}

const dateLayout = "2006-01-02"
