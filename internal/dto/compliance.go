package dto

import "github.com/malamapl09/Picker-Scheduler/internal/compliance"

// ── Compliance ──

// ValidateShiftRequest a proposed shift that is not persisted. ShiftID, when
// set, names the persisted shift the proposal would replace.
type ValidateShiftRequest struct {
	ShiftID      string `json:"shift_id"      binding:"omitempty,uuid"`
	EmployeeID   string `json:"employee_id"   binding:"required,uuid"`
	Date         string `json:"date"          binding:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time"    binding:"required,hhmm"`
	EndTime      string `json:"end_time"      binding:"required,hhmm"`
	BreakMinutes int    `json:"break_minutes" binding:"min=0,max=240"`
}

// WeekQuery selects a week by its Monday.
type WeekQuery struct {
	WeekStart string `form:"week_start" binding:"required,monday"`
}

// EmployeeComplianceStatus one employee's budget for the week.
type EmployeeComplianceStatus struct {
	compliance.EmployeeStatus
	EmployeeName string `json:"employee_name"`
}

// StoreComplianceSummary every active employee of a store for one week.
type StoreComplianceSummary struct {
	StoreID        string                     `json:"store_id"`
	WeekStart      string                     `json:"week_start"`
	Employees      []EmployeeComplianceStatus `json:"employees"`
	AtLimitCount   int                        `json:"at_limit_count"`
	NearLimitCount int                        `json:"near_limit_count"`
	TotalHours     float64                    `json:"total_hours"`
}

// BreakRuleResponse one configured break rule.
type BreakRuleResponse struct {
	MinSpanHours    float64 `json:"min_span_hours"`
	MinBreakMinutes int     `json:"min_break_minutes"`
}

// ComplianceRulesResponse the rule values in force.
type ComplianceRulesResponse struct {
	MaxWeeklyHours   float64             `json:"max_weekly_hours"`
	MaxDailyHours    float64             `json:"max_daily_hours"`
	MaxDaysPerWindow int                 `json:"max_days_per_window"`
	NearLimitBuffer  float64             `json:"near_limit_buffer"`
	BreakRules       []BreakRuleResponse `json:"break_rules"`
	StoreOpenHour    int                 `json:"store_open_hour"`
	StoreCloseHour   int                 `json:"store_close_hour"`
}
