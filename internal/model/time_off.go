package model

import "time"

// TimeOffRequest an employee asking to be off for an inclusive date range.
// Approved ranges are hard exclusions for scheduling.
type TimeOffRequest struct {
	TimeOffRequestID string        `gorm:"type:uuid;primaryKey"                        json:"time_off_request_id"`
	EmployeeID       string        `gorm:"type:uuid;not null;index"                    json:"employee_id"`
	StartDate        time.Time     `gorm:"type:date;not null"                          json:"start_date"`
	EndDate          time.Time     `gorm:"type:date;not null"                          json:"end_date"`
	Reason           string        `gorm:"type:varchar(500)"                           json:"reason,omitempty"`
	Status           TimeOffStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ReviewedBy       *string       `gorm:"type:uuid"                                   json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time    `json:"reviewed_at,omitempty"`
	VersionedModel

	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName maps to time_off_requests.
func (TimeOffRequest) TableName() string { return "time_off_requests" }

// Covers reports whether d falls inside the request range.
func (r *TimeOffRequest) Covers(d time.Time) bool {
	day := DateOnly(d)
	return !day.Before(DateOnly(r.StartDate)) && !day.After(DateOnly(r.EndDate))
}
