package dto

// ── Reports ──

// LaborSummaryQuery a store and an inclusive date range.
type LaborSummaryQuery struct {
	StoreID   string `form:"store_id"   binding:"required,uuid"`
	StartDate string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   binding:"required,datetime=2006-01-02"`
}

// CoverageHour demand against staffing for one store hour.
type CoverageHour struct {
	Hour      int     `json:"hour"`
	Required  float64 `json:"required"`
	Scheduled float64 `json:"scheduled"`
	Delta     float64 `json:"delta"`
	Status    string  `json:"status"`
}

// CoverageDay one day of the coverage grid.
type CoverageDay struct {
	Date           string         `json:"date"`
	RequiredHours  float64        `json:"required_hours"`
	ScheduledHours float64        `json:"scheduled_hours"`
	Hours          []CoverageHour `json:"hours"`
}

// CoverageGap an hour staffed above or below demand.
type CoverageGap struct {
	Date  string  `json:"date"`
	Hour  int     `json:"hour"`
	Hours float64 `json:"hours"`
}

// CoverageReport a week's staffing against demand, hour by hour.
// CoverageScore is the share of demand met, excess staffing not counted.
type CoverageReport struct {
	StoreID             string        `json:"store_id"`
	WeekStart           string        `json:"week_start"`
	ScheduleID          *string       `json:"schedule_id,omitempty"`
	ScheduleStatus      string        `json:"schedule_status,omitempty"`
	CoverageScore       float64       `json:"coverage_score"`
	TotalRequiredHours  float64       `json:"total_required_hours"`
	TotalScheduledHours float64       `json:"total_scheduled_hours"`
	UnderstaffedHours   float64       `json:"understaffed_hours"`
	OverstaffedHours    float64       `json:"overstaffed_hours"`
	UnderstaffedPeriods int           `json:"understaffed_periods"`
	OverstaffedPeriods  int           `json:"overstaffed_periods"`
	WorstUnderstaffed   []CoverageGap `json:"worst_understaffed"`
	WorstOverstaffed    []CoverageGap `json:"worst_overstaffed"`
	Days                []CoverageDay `json:"days"`
}

// EmployeeLabor one employee's scheduled work in a labor summary.
type EmployeeLabor struct {
	EmployeeID         string  `json:"employee_id"`
	EmployeeName       string  `json:"employee_name"`
	Shifts             int     `json:"shifts"`
	Hours              float64 `json:"hours"`
	MaxHours           float64 `json:"max_hours"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// LaborSummaryReport scheduled labor of a store over a date range.
type LaborSummaryReport struct {
	StoreID            string          `json:"store_id"`
	StartDate          string          `json:"start_date"`
	EndDate            string          `json:"end_date"`
	ScheduledHours     float64         `json:"scheduled_hours"`
	ShiftCount         int             `json:"shift_count"`
	DemandHours        float64         `json:"demand_hours"`
	DemandRatioPercent float64         `json:"demand_ratio_percent"`
	EmployeeCount      int             `json:"employee_count"`
	EmployeesScheduled int             `json:"employees_scheduled"`
	CalloutCount       int             `json:"callout_count"`
	CoveredCount       int             `json:"covered_count"`
	Employees          []EmployeeLabor `json:"employees"`
}
