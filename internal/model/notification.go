package model

import "gorm.io/datatypes"

// NotificationType event names recorded for employees.
type NotificationType string

const (
	NotifySchedulePublished NotificationType = "schedule_published"
	NotifyShiftAssigned     NotificationType = "shift_assigned"
	NotifyShiftChanged      NotificationType = "shift_changed"
	NotifySwapRequested     NotificationType = "swap_requested"
	NotifySwapApproved      NotificationType = "swap_approved"
	NotifySwapDenied        NotificationType = "swap_denied"
	NotifyTimeOffApproved   NotificationType = "time_off_approved"
	NotifyTimeOffDenied     NotificationType = "time_off_denied"
	NotifyComplianceWarning NotificationType = "compliance_warning"
	NotifyGeneral           NotificationType = "general"
)

// Notification one recorded event for one employee. Delivery happens elsewhere.
type Notification struct {
	NotificationID string           `gorm:"type:uuid;primaryKey"      json:"notification_id"`
	EmployeeID     string           `gorm:"type:uuid;not null;index"  json:"employee_id"`
	UserID         *string          `gorm:"type:uuid;index"           json:"user_id,omitempty"`
	Type           NotificationType `gorm:"type:varchar(50);not null" json:"type"`
	Title          string           `gorm:"type:varchar(200);not null" json:"title"`
	Message        string           `gorm:"type:text;not null"        json:"message"`
	Payload        datatypes.JSON   `json:"payload,omitempty"`
	IsRead         bool             `gorm:"not null;default:false"    json:"is_read"`
	RelatedType    *string          `gorm:"type:varchar(20)"          json:"related_type,omitempty"` // schedule | shift | shift_swap | time_off
	RelatedID      *string          `gorm:"type:uuid"                 json:"related_id,omitempty"`
	BaseModel
}

// TableName maps to notifications.
func (Notification) TableName() string { return "notifications" }
