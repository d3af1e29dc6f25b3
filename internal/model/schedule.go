package model

import "time"

// Schedule one store-week of shifts.
type Schedule struct {
	ScheduleID    string         `gorm:"type:uuid;primaryKey"                                  json:"schedule_id"`
	StoreID       string         `gorm:"type:uuid;not null;uniqueIndex:uq_schedule_store_week" json:"store_id"`
	WeekStartDate time.Time      `gorm:"type:date;not null;uniqueIndex:uq_schedule_store_week" json:"week_start_date"`
	Status        ScheduleStatus `gorm:"type:varchar(20);not null;default:'draft'"             json:"status"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	PublishedBy   *string        `gorm:"type:uuid"                                             json:"published_by,omitempty"`
	VersionedModel

	Store  *Store  `gorm:"foreignKey:StoreID;references:StoreID" json:"store,omitempty"`
	Shifts []Shift `gorm:"foreignKey:ScheduleID"                 json:"shifts,omitempty"`
}

// TableName maps to schedules.
func (Schedule) TableName() string { return "schedules" }

// WeekEnd the Sunday of the schedule week.
func (s *Schedule) WeekEnd() time.Time {
	return DateOnly(s.WeekStartDate).AddDate(0, 0, 6)
}
