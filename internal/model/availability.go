package model

// Availability a weekly, soft preference of an employee for one day.
// DayOfWeek is 0 for Monday through 6 for Sunday.
type Availability struct {
	AvailabilityID string  `gorm:"type:uuid;primaryKey"                                       json:"availability_id"`
	EmployeeID     string  `gorm:"type:uuid;not null;uniqueIndex:uq_availability_employee_day" json:"employee_id"`
	DayOfWeek      int     `gorm:"type:smallint;not null;uniqueIndex:uq_availability_employee_day" json:"day_of_week"`
	IsAvailable    bool    `gorm:"not null;default:true"                                      json:"is_available"`
	PreferredStart *string `gorm:"type:varchar(8)"                                            json:"preferred_start,omitempty"`
	PreferredEnd   *string `gorm:"type:varchar(8)"                                            json:"preferred_end,omitempty"`
	BaseModel
}

// TableName maps to availability.
func (Availability) TableName() string { return "availability" }
