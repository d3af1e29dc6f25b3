package model

import "time"

// DemandRequirement forecaster output: picker-hours required for one store hour.
type DemandRequirement struct {
	DemandRequirementID string    `gorm:"type:uuid;primaryKey"                                     json:"demand_requirement_id"`
	StoreID             string    `gorm:"type:uuid;not null;uniqueIndex:uq_demand_store_date_hour" json:"store_id"`
	Date                time.Time `gorm:"type:date;not null;uniqueIndex:uq_demand_store_date_hour" json:"date"`
	Hour                int       `gorm:"type:smallint;not null;uniqueIndex:uq_demand_store_date_hour" json:"hour"`
	RequiredHours       float64   `gorm:"not null;default:0"                                       json:"required_hours"`
	BaseModel
}

// TableName maps to demand_requirements.
func (DemandRequirement) TableName() string { return "demand_requirements" }
