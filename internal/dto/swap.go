package dto

import "github.com/malamapl09/Picker-Scheduler/internal/compliance"

// ── Shift swaps ──

// CreateSwapRequest offers a shift. RequestedShiftID makes it a directed request.
type CreateSwapRequest struct {
	RequesterShiftID string  `json:"requester_shift_id" binding:"required,uuid"`
	RequestedShiftID *string `json:"requested_shift_id" binding:"omitempty,uuid"`
	Notes            string  `json:"notes"              binding:"max=500"`
}

// AcceptSwapRequest the shift the acceptor gives in exchange.
type AcceptSwapRequest struct {
	ShiftID string `json:"shift_id" binding:"required,uuid"`
}

// DenySwapRequest manager denial.
type DenySwapRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SwapListRequest list query.
type SwapListRequest struct {
	StoreID    string `form:"store_id"    binding:"omitempty,uuid"`
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=pending accepted approved denied cancelled"`
	PaginationRequest
}

// SwapResponse a swap with both shifts.
type SwapResponse struct {
	ID             string         `json:"id"`
	Status         string         `json:"status"`
	Notes          string         `json:"notes,omitempty"`
	RequesterShift *ShiftResponse `json:"requester_shift,omitempty"`
	RequestedShift *ShiftResponse `json:"requested_shift,omitempty"`
	AcceptedAt     *string        `json:"accepted_at,omitempty"`
	ReviewedBy     *string        `json:"reviewed_by,omitempty"`
	ReviewedAt     *string        `json:"reviewed_at,omitempty"`
	DenyReason     string         `json:"deny_reason,omitempty"`
	Version        int            `json:"version"`
	CreatedAt      string         `json:"created_at"`
}

// AcceptSwapResponse the accepted swap and the projected findings of the exchange.
type AcceptSwapResponse struct {
	Swap     SwapResponse         `json:"swap"`
	Warnings []compliance.Finding `json:"warnings"`
}
