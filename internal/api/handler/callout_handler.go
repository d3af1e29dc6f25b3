package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// CalloutHandler call-outs and replacement assignment.
type CalloutHandler struct {
	calloutSvc service.CalloutService
}

// NewCalloutHandler creates a CalloutHandler.
func NewCalloutHandler(calloutSvc service.CalloutService) *CalloutHandler {
	return &CalloutHandler{calloutSvc: calloutSvc}
}

// MarkCallout POST /api/v1/shifts/:id/callout
func (h *CalloutHandler) MarkCallout(c *gin.Context) {
	var req dto.CalloutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 17001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	shift, err := h.calloutSvc.MarkCallout(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, shift)
}

// FindReplacements GET /api/v1/shifts/:id/replacements
func (h *CalloutHandler) FindReplacements(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.calloutSvc.FindReplacements(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, resp)
}

// AssignReplacement POST /api/v1/shifts/:id/assign-replacement?force=
func (h *CalloutHandler) AssignReplacement(c *gin.Context) {
	var req dto.AssignReplacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 17001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	shift, err := h.calloutSvc.AssignReplacement(c.Request.Context(), caller, c.Param("id"), &req, queryBool(c, "force"))
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, shift)
}

// RevertCallout POST /api/v1/shifts/:id/revert-callout
func (h *CalloutHandler) RevertCallout(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	shift, err := h.calloutSvc.RevertCallout(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, shift)
}

// MarkNoShow POST /api/v1/shifts/:id/no-show
func (h *CalloutHandler) MarkNoShow(c *gin.Context) {
	var req dto.NoShowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, 17001, err)
			return
		}
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	shift, err := h.calloutSvc.MarkNoShow(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, shift)
}

// ListCallouts GET /api/v1/shifts/callouts
func (h *CalloutHandler) ListCallouts(c *gin.Context) {
	var req dto.CalloutListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, 17001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.calloutSvc.ListCallouts(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

func (h *CalloutHandler) handleCalloutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShiftNotScheduled):
		response.Conflict(c, 17101, "shift is not scheduled", nil)
	case errors.Is(err, service.ErrShiftNotCalledOut):
		response.Conflict(c, 17102, "shift is not called out", nil)
	case errors.Is(err, service.ErrShiftNotRevertable):
		response.Conflict(c, 17103, "shift has no call-out to revert", nil)
	case errors.Is(err, service.ErrRevertTooLate):
		response.Conflict(c, 17104, "shift starts too soon to revert the call-out", nil)
	case errors.Is(err, service.ErrDoubleBooking):
		writeConflict(c, 17105, "employee is already scheduled at that time", err)
	case errors.Is(err, service.ErrReplacementConflicts):
		writeConflict(c, 17106, "replacement has scheduling conflicts, retry with force to accept them", err)
	case errors.Is(err, service.ErrReplacementIsOriginal):
		response.BadRequest(c, 17107, "the absent employee cannot cover their own shift")
	case errors.Is(err, service.ErrShiftNotStarted):
		response.Conflict(c, 17108, "shift has not started yet", nil)
	default:
		handleCommonError(c, err)
	}
}
