package model

import (
	"time"

	"gorm.io/datatypes"
)

// OptimizationRun audit row for one solver invocation.
type OptimizationRun struct {
	OptimizationRunID string         `gorm:"type:uuid;primaryKey"       json:"optimization_run_id"`
	StoreID           string         `gorm:"type:uuid;not null;index"   json:"store_id"`
	WeekStart         time.Time      `gorm:"type:date;not null"         json:"week_start"`
	Status            string         `gorm:"type:varchar(20);not null"  json:"status"`
	Stats             datatypes.JSON `json:"stats,omitempty"`
	Warnings          datatypes.JSON `json:"warnings,omitempty"`
	ScheduleID        *string        `gorm:"type:uuid"                  json:"schedule_id,omitempty"`
	RequestedBy       *string        `gorm:"type:uuid"                  json:"requested_by,omitempty"`
	BaseModel
}

// TableName maps to optimization_runs.
func (OptimizationRun) TableName() string { return "optimization_runs" }

// AllModels every table, in dependency order, for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Store{}, &User{}, &Employee{}, &Availability{}, &TimeOffRequest{},
		&DemandRequirement{}, &Schedule{}, &Shift{}, &ShiftSwap{},
		&ScheduleChangeLog{}, &Notification{}, &OptimizationRun{},
	}
}
