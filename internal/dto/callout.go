package dto

// ── Call-outs ──

// CalloutRequest marks a shift as called out.
type CalloutRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// NoShowRequest records that the rostered employee never arrived.
type NoShowRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// AssignReplacementRequest picks the covering employee.
type AssignReplacementRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
}

// CalloutListRequest query for called-out shifts.
type CalloutListRequest struct {
	StoreID        string `form:"store_id"        binding:"required,uuid"`
	From           string `form:"from"            binding:"omitempty,datetime=2006-01-02"`
	To             string `form:"to"              binding:"omitempty,datetime=2006-01-02"`
	IncludeCovered bool   `form:"include_covered"`
}

// ReplacementConflict one reason a candidate should not cover a shift.
type ReplacementConflict struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReplacementCandidate a ranked employee for a called-out shift.
type ReplacementCandidate struct {
	EmployeeID       string                `json:"employee_id"`
	Name             string                `json:"name"`
	IsAvailable      bool                  `json:"is_available"`
	CurrentWeekHours float64               `json:"current_week_hours"`
	RemainingHours   float64               `json:"remaining_hours"`
	PreferredHours   string                `json:"preferred_hours,omitempty"`
	Conflicts        []ReplacementConflict `json:"conflicts"`
}

// ReplacementsResponse candidates for one shift, best first.
type ReplacementsResponse struct {
	Shift      ShiftResponse          `json:"shift"`
	Candidates []ReplacementCandidate `json:"candidates"`
}
