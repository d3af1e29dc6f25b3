package dto

// ── Availability ──

// AvailabilityDay preference for one weekday, 0 = Monday.
type AvailabilityDay struct {
	DayOfWeek      int     `json:"day_of_week"     binding:"min=0,max=6"`
	IsAvailable    bool    `json:"is_available"`
	PreferredStart *string `json:"preferred_start" binding:"omitempty,hhmm"`
	PreferredEnd   *string `json:"preferred_end"   binding:"omitempty,hhmm"`
}

// SetAvailabilityRequest replaces the given days.
type SetAvailabilityRequest struct {
	Days []AvailabilityDay `json:"days" binding:"required,min=1,max=7,dive"`
}

// AvailabilityResponse the full week; days without a row default to available.
type AvailabilityResponse struct {
	EmployeeID string            `json:"employee_id"`
	Days       []AvailabilityDay `json:"days"`
}
