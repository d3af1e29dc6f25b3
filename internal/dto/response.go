package dto

// ── Pagination ──

// PaginationRequest common paging query.
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage page number with default.
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize page size with default.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset row offset of the page.
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── Shared briefs ──

// EmployeeBrief minimal employee info embedded in other responses.
type EmployeeBrief struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	StoreID string `json:"store_id"`
}

// ShiftResponse one shift. TotalHours excludes the break.
type ShiftResponse struct {
	ID                 string         `json:"id"`
	ScheduleID         string         `json:"schedule_id"`
	EmployeeID         string         `json:"employee_id"`
	Employee           *EmployeeBrief `json:"employee,omitempty"`
	Date               string         `json:"date"`
	StartTime          string         `json:"start_time"`
	EndTime            string         `json:"end_time"`
	BreakMinutes       int            `json:"break_minutes"`
	DurationHours      float64        `json:"duration_hours"`
	TotalHours         float64        `json:"total_hours"`
	Status             string         `json:"status"`
	CalloutReason      string         `json:"callout_reason,omitempty"`
	CalloutTime        *string        `json:"callout_time,omitempty"`
	OriginalEmployeeID *string        `json:"original_employee_id,omitempty"`
	CoveredByID        *string        `json:"covered_by_id,omitempty"`
	Version            int            `json:"version"`
}
