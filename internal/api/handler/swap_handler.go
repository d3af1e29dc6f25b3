package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// SwapHandler shift-swap workflow.
type SwapHandler struct {
	swapSvc service.SwapService
}

// NewSwapHandler creates a SwapHandler.
func NewSwapHandler(swapSvc service.SwapService) *SwapHandler {
	return &SwapHandler{swapSvc: swapSvc}
}

// Create offers the caller's shift for swap.
// POST /api/v1/swaps
func (h *SwapHandler) Create(c *gin.Context) {
	var req dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 18001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.Created(c, swap)
}

// Accept POST /api/v1/swaps/:id/accept
func (h *SwapHandler) Accept(c *gin.Context) {
	var req dto.AcceptSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 18001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.swapSvc.Accept(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, resp)
}

// Approve POST /api/v1/swaps/:id/approve
func (h *SwapHandler) Approve(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.Approve(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, swap)
}

// Deny POST /api/v1/swaps/:id/deny
func (h *SwapHandler) Deny(c *gin.Context) {
	var req dto.DenySwapRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, 18001, err)
			return
		}
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.Deny(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, swap)
}

// Cancel POST /api/v1/swaps/:id/cancel
func (h *SwapHandler) Cancel(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.Cancel(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, swap)
}

// ListAvailable open swaps the caller could accept.
// GET /api/v1/swaps/available
func (h *SwapHandler) ListAvailable(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.swapSvc.ListAvailable(c.Request.Context(), caller)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// List GET /api/v1/swaps
func (h *SwapHandler) List(c *gin.Context) {
	var req dto.SwapListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, 18001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, total, err := h.swapSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get GET /api/v1/swaps/:id
func (h *SwapHandler) Get(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, swap)
}

func (h *SwapHandler) handleSwapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSwapNotFound):
		response.NotFound(c, 18101, "swap not found")
	case errors.Is(err, service.ErrSwapNotPending):
		response.Conflict(c, 18102, "swap is not pending", nil)
	case errors.Is(err, service.ErrSwapNotAccepted):
		response.Conflict(c, 18103, "swap is not accepted", nil)
	case errors.Is(err, service.ErrSwapConflict):
		writeConflict(c, 18104, "swap was changed by another request", err)
	case errors.Is(err, service.ErrSwapDirected):
		response.BadRequest(c, 18105, "swap is directed at another shift")
	case errors.Is(err, service.ErrSwapSameEmployee):
		response.BadRequest(c, 18106, "both shifts belong to the same employee")
	case errors.Is(err, service.ErrShiftInPast):
		response.BadRequest(c, 18107, "shift has already started")
	case errors.Is(err, service.ErrShiftNotActive):
		response.Conflict(c, 18108, "shift is not active", nil)
	case errors.Is(err, service.ErrShiftInOpenSwap):
		response.Conflict(c, 18109, "shift is already part of an open swap", nil)
	default:
		handleCommonError(c, err)
	}
}
