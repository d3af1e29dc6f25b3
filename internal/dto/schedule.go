package dto

import "github.com/malamapl09/Picker-Scheduler/internal/compliance"

// ── Schedules ──

// CreateScheduleRequest opens a draft week.
type CreateScheduleRequest struct {
	StoreID   string `json:"store_id"   binding:"required,uuid"`
	WeekStart string `json:"week_start" binding:"required,monday"`
}

// ScheduleListRequest list query.
type ScheduleListRequest struct {
	StoreID string `form:"store_id" binding:"omitempty,uuid"`
	Status  string `form:"status"   binding:"omitempty,oneof=draft published archived"`
	PaginationRequest
}

// PublishScheduleRequest publish options. Validate defaults to true.
type PublishScheduleRequest struct {
	Validate *bool `json:"validate"`
	Force    bool  `json:"force"`
}

// ScheduleResponse a week schedule with its shifts.
type ScheduleResponse struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	StoreName   string          `json:"store_name,omitempty"`
	WeekStart   string          `json:"week_start"`
	WeekEnd     string          `json:"week_end"`
	Status      string          `json:"status"`
	PublishedAt *string         `json:"published_at,omitempty"`
	Version     int             `json:"version"`
	TotalHours  float64         `json:"total_hours"`
	Shifts      []ShiftResponse `json:"shifts,omitempty"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// PublishResponse the published schedule and the findings that were accepted.
type PublishResponse struct {
	Schedule          ScheduleResponse  `json:"schedule"`
	Compliance        compliance.Result `json:"compliance"`
	NotifiedEmployees int               `json:"notified_employees"`
}

// ── Shifts ──

// CreateShiftRequest adds a shift to a schedule.
type CreateShiftRequest struct {
	ScheduleID   string `json:"schedule_id"   binding:"required,uuid"`
	EmployeeID   string `json:"employee_id"   binding:"required,uuid"`
	Date         string `json:"date"          binding:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time"    binding:"required,hhmm"`
	EndTime      string `json:"end_time"      binding:"required,hhmm"`
	BreakMinutes int    `json:"break_minutes" binding:"min=0,max=240"`
}

// UpdateShiftRequest edits a shift guarded by version.
type UpdateShiftRequest struct {
	EmployeeID   *string `json:"employee_id"   binding:"omitempty,uuid"`
	Date         *string `json:"date"          binding:"omitempty,datetime=2006-01-02"`
	StartTime    *string `json:"start_time"    binding:"omitempty,hhmm"`
	EndTime      *string `json:"end_time"      binding:"omitempty,hhmm"`
	BreakMinutes *int    `json:"break_minutes" binding:"omitempty,min=0,max=240"`
	Version      int     `json:"version"       binding:"required,min=1"`
}

// ShiftMutationResponse the stored shift plus non-blocking findings.
type ShiftMutationResponse struct {
	Shift    ShiftResponse        `json:"shift"`
	Warnings []compliance.Finding `json:"warnings"`
}

// ── Change log ──

// ChangeLogListRequest paging for a schedule's audit log.
type ChangeLogListRequest struct {
	PaginationRequest
}

// ChangeLogResponse one audit entry, newest first.
type ChangeLogResponse struct {
	ID                 string  `json:"id"`
	ScheduleID         string  `json:"schedule_id"`
	ShiftID            *string `json:"shift_id,omitempty"`
	OriginalEmployeeID *string `json:"original_employee_id,omitempty"`
	NewEmployeeID      *string `json:"new_employee_id,omitempty"`
	ChangeType         string  `json:"change_type"`
	Reason             string  `json:"reason,omitempty"`
	OperatorID         *string `json:"operator_id,omitempty"`
	CreatedAt          string  `json:"created_at"`
}
