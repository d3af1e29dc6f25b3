package model

// ChangeType kind of schedule mutation recorded in the audit log.
type ChangeType string

const (
	ChangeCallout ChangeType = "callout"
	ChangeCover   ChangeType = "cover"
	ChangeRevert  ChangeType = "revert"
	ChangeSwap    ChangeType = "swap"
	ChangeApply   ChangeType = "apply"
	ChangeNoShow  ChangeType = "no_show"
)

// ScheduleChangeLog append-only record of who changed which shift.
type ScheduleChangeLog struct {
	ScheduleChangeLogID string     `gorm:"type:uuid;primaryKey"       json:"schedule_change_log_id"`
	ScheduleID          string     `gorm:"type:uuid;not null;index"   json:"schedule_id"`
	ShiftID             *string    `gorm:"type:uuid;index"            json:"shift_id,omitempty"`
	OriginalEmployeeID  *string    `gorm:"type:uuid"                  json:"original_employee_id,omitempty"`
	NewEmployeeID       *string    `gorm:"type:uuid"                  json:"new_employee_id,omitempty"`
	ChangeType          ChangeType `gorm:"type:varchar(20);not null"  json:"change_type"`
	Reason              string     `gorm:"type:varchar(500)"          json:"reason,omitempty"`
	OperatorID          *string    `gorm:"type:uuid"                  json:"operator_id,omitempty"`
	BaseModel
}

// TableName maps to schedule_change_logs.
func (ScheduleChangeLog) TableName() string { return "schedule_change_logs" }
