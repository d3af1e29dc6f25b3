package model

import "time"

// Shift one employee's work block on one date.
// StartTime and EndTime are "HH:MM" wall-clock values in store time.
type Shift struct {
	ShiftID            string      `gorm:"type:uuid;primaryKey"                          json:"shift_id"`
	ScheduleID         string      `gorm:"type:uuid;not null;index"                      json:"schedule_id"`
	EmployeeID         string      `gorm:"type:uuid;not null;index:idx_shift_employee_date" json:"employee_id"`
	Date               time.Time   `gorm:"type:date;not null;index:idx_shift_employee_date" json:"date"`
	StartTime          string      `gorm:"type:varchar(8);not null"                      json:"start_time"`
	EndTime            string      `gorm:"type:varchar(8);not null"                      json:"end_time"`
	BreakMinutes       int         `gorm:"not null;default:0"                            json:"break_minutes"`
	Status             ShiftStatus `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	CalloutReason      string      `gorm:"type:varchar(500)"                             json:"callout_reason,omitempty"`
	CalloutTime        *time.Time  `json:"callout_time,omitempty"`
	OriginalEmployeeID *string     `gorm:"type:uuid"                                     json:"original_employee_id,omitempty"`
	CoveredByID        *string     `gorm:"type:uuid"                                     json:"covered_by_id,omitempty"`
	VersionedModel

	Schedule *Schedule `gorm:"foreignKey:ScheduleID;references:ScheduleID" json:"schedule,omitempty"`
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName maps to shifts.
func (Shift) TableName() string { return "shifts" }

// Minutes start and end as minutes after midnight.
func (s *Shift) Minutes() (start, end int, err error) {
	if start, err = ParseClock(s.StartTime); err != nil {
		return 0, 0, err
	}
	if end, err = ParseClock(s.EndTime); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// DurationHours span from start to end.
func (s *Shift) DurationHours() float64 {
	start, end, err := s.Minutes()
	if err != nil || end < start {
		return 0
	}
	return float64(end-start) / 60
}

// TotalHours worked hours: span minus break.
func (s *Shift) TotalHours() float64 {
	h := s.DurationHours() - float64(s.BreakMinutes)/60
	if h < 0 {
		return 0
	}
	return h
}

// StartAt absolute start in loc.
func (s *Shift) StartAt(loc *time.Location) time.Time {
	start, _, _ := s.Minutes()
	return clockOn(s.Date, start, loc)
}

// EndAt absolute end in loc.
func (s *Shift) EndAt(loc *time.Location) time.Time {
	_, end, _ := s.Minutes()
	return clockOn(s.Date, end, loc)
}

func clockOn(date time.Time, minutes int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(minutes) * time.Minute)
}
