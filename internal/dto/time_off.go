package dto

// ── Time off ──

// CreateTimeOffRequest requests days off. Managers may set EmployeeID.
type CreateTimeOffRequest struct {
	EmployeeID string `json:"employee_id" binding:"omitempty,uuid"`
	StartDate  string `json:"start_date"  binding:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date"    binding:"required,datetime=2006-01-02"`
	Reason     string `json:"reason"      binding:"max=500"`
}

// TimeOffListRequest list query.
type TimeOffListRequest struct {
	StoreID    string `form:"store_id"    binding:"omitempty,uuid"`
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=pending approved denied cancelled"`
	PaginationRequest
}

// TimeOffResponse one request.
type TimeOffResponse struct {
	ID         string         `json:"id"`
	EmployeeID string         `json:"employee_id"`
	Employee   *EmployeeBrief `json:"employee,omitempty"`
	StartDate  string         `json:"start_date"`
	EndDate    string         `json:"end_date"`
	Reason     string         `json:"reason,omitempty"`
	Status     string         `json:"status"`
	ReviewedBy *string        `json:"reviewed_by,omitempty"`
	ReviewedAt *string        `json:"reviewed_at,omitempty"`
	Version    int            `json:"version"`
	CreatedAt  string         `json:"created_at"`
}

// ApproveTimeOffResponse the approved request and the active shifts it overlaps.
type ApproveTimeOffResponse struct {
	Request           TimeOffResponse `json:"request"`
	ConflictingShifts []ShiftResponse `json:"conflicting_shifts"`
}

// ImportTimeOffResponse outcome of a calendar import.
type ImportTimeOffResponse struct {
	Created []TimeOffResponse `json:"created"`
	Skipped int               `json:"skipped"`
}
