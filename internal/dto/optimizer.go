package dto

import "github.com/malamapl09/Picker-Scheduler/internal/optimizer"

// ── Optimizer ──

// LockedShiftInput an assignment the solver must keep.
type LockedShiftInput struct {
	EmployeeID   string `json:"employee_id"   binding:"required,uuid"`
	Date         string `json:"date"          binding:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time"    binding:"required,hhmm"`
	EndTime      string `json:"end_time"      binding:"required,hhmm"`
	BreakMinutes int    `json:"break_minutes" binding:"min=0,max=240"`
	Reason       string `json:"reason"        binding:"max=200"`
}

// OverrideInput a manager instruction for one employee-day.
type OverrideInput struct {
	EmployeeID        string `json:"employee_id"         binding:"required,uuid"`
	Date              string `json:"date"                binding:"required,datetime=2006-01-02"`
	MustWork          bool   `json:"must_work"`
	CannotWork        bool   `json:"cannot_work"`
	PreferredShiftIdx *int   `json:"preferred_shift_idx" binding:"omitempty,min=0"`
	Reason            string `json:"reason"              binding:"max=200"`
}

// GenerateRequest solves one store-week. Zero values fall back to configuration.
type GenerateRequest struct {
	StoreID            string             `json:"store_id"             binding:"required,uuid"`
	WeekStart          string             `json:"week_start"           binding:"required,monday"`
	TimeoutSeconds     int                `json:"timeout_seconds"      binding:"omitempty,min=1,max=300"`
	MinCoveragePercent *float64           `json:"min_coverage_percent" binding:"omitempty,min=0,max=100"`
	LockedShifts       []LockedShiftInput `json:"locked_shifts"        binding:"omitempty,dive"`
	ManualOverrides    []OverrideInput    `json:"manual_overrides"     binding:"omitempty,dive"`
	ApplyImmediately   bool               `json:"apply_immediately"`
}

// ProposedShift one solver assignment in wire form.
type ProposedShift struct {
	EmployeeID    string  `json:"employee_id"    binding:"required,uuid"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	Date          string  `json:"date"           binding:"required,datetime=2006-01-02"`
	StartTime     string  `json:"start_time"     binding:"required,hhmm"`
	EndTime       string  `json:"end_time"       binding:"required,hhmm"`
	BreakMinutes  int     `json:"break_minutes"  binding:"min=0,max=240"`
	TotalHours    float64 `json:"total_hours"`
	TemplateIndex int     `json:"template_index"`
	Locked        bool    `json:"locked"`
	// ShiftID is set when the entry is an existing shift kept as is.
	ShiftID string `json:"shift_id,omitempty" binding:"omitempty,uuid"`
}

// OptimizationResult solver outcome. ScheduleVersion is the version of the
// week's schedule when the snapshot was taken, 0 when none existed.
type OptimizationResult struct {
	RunID           string          `json:"run_id,omitempty"`
	StoreID         string          `json:"store_id"`
	WeekStart       string          `json:"week_start"`
	Status          string          `json:"status"`
	Shifts          []ProposedShift `json:"shifts"`
	Stats           optimizer.Stats `json:"stats"`
	Warnings        []string        `json:"warnings"`
	ScheduleID      *string         `json:"schedule_id,omitempty"`
	ScheduleVersion int             `json:"schedule_version"`
	Applied         bool            `json:"applied"`
}

// ApplyRequest persists generated shifts. Without schedule_id the draft for
// store_id and week_start is used, created when missing. The shifts replace
// the draft's plain scheduled shifts unless append is set.
type ApplyRequest struct {
	ScheduleID      string          `json:"schedule_id"      binding:"omitempty,uuid"`
	StoreID         string          `json:"store_id"         binding:"required_without=ScheduleID,omitempty,uuid"`
	WeekStart       string          `json:"week_start"       binding:"required_without=ScheduleID,omitempty,monday"`
	ExpectedVersion int             `json:"expected_version" binding:"min=0"`
	Append          bool            `json:"append"`
	Shifts          []ProposedShift `json:"shifts"           binding:"required,min=1,dive"`
}

// ApplyResponse the schedule after apply.
type ApplyResponse struct {
	Schedule     ScheduleResponse `json:"schedule"`
	CreatedCount int              `json:"created_count"`
	RemovedCount int              `json:"removed_count"`
	KeptCount    int              `json:"kept_count"`
}

// FillGapsRequest re-solves around the existing shifts.
type FillGapsRequest struct {
	TimeoutSeconds int `json:"timeout_seconds" binding:"omitempty,min=1,max=300"`
}

// FillGapsResponse the added shifts and the solver outcome.
type FillGapsResponse struct {
	Result     OptimizationResult `json:"result"`
	AddedCount int                `json:"added_count"`
	Schedule   *ScheduleResponse  `json:"schedule,omitempty"`
}

// StoreWeekQuery a store and the Monday of a week.
type StoreWeekQuery struct {
	StoreID   string `form:"store_id"   binding:"required,uuid"`
	WeekStart string `form:"week_start" binding:"required,monday"`
}

// CapacityResponse demand against what the roster could staff.
type CapacityResponse struct {
	StoreID            string  `json:"store_id"`
	WeekStart          string  `json:"week_start"`
	MinCoveragePercent float64 `json:"min_coverage_percent"`
	optimizer.Capacity
}

// ShiftTemplatesQuery narrows the templates to a store's operating hours.
type ShiftTemplatesQuery struct {
	StoreID string `form:"store_id" binding:"omitempty,uuid"`
}

// ShiftTemplateResponse one shape the solver may assign.
type ShiftTemplateResponse struct {
	Index         int     `json:"index"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	BreakMinutes  int     `json:"break_minutes"`
	DurationHours float64 `json:"duration_hours"`
	WorkedHours   float64 `json:"worked_hours"`
}
