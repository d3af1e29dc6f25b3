package model

import "time"

// ShiftSwap a trade between a requester shift and, once accepted, a requested shift.
type ShiftSwap struct {
	ShiftSwapID      string     `gorm:"type:uuid;primaryKey"                        json:"shift_swap_id"`
	RequesterShiftID string     `gorm:"type:uuid;not null;index"                    json:"requester_shift_id"`
	RequestedShiftID *string    `gorm:"type:uuid;index"                             json:"requested_shift_id,omitempty"`
	Notes            string     `gorm:"type:varchar(500)"                           json:"notes,omitempty"`
	Status           SwapStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	ReviewedBy       *string    `gorm:"type:uuid"                                   json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	DenyReason       string     `gorm:"type:varchar(500)"                           json:"deny_reason,omitempty"`
	VersionedModel

	RequesterShift *Shift `gorm:"foreignKey:RequesterShiftID;references:ShiftID" json:"requester_shift,omitempty"`
	RequestedShift *Shift `gorm:"foreignKey:RequestedShiftID;references:ShiftID" json:"requested_shift,omitempty"`
}

// TableName maps to shift_swaps.
func (ShiftSwap) TableName() string { return "shift_swaps" }
