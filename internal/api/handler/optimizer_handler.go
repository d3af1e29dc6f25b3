package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// OptimizerHandler schedule generation.
type OptimizerHandler struct {
	optimizerSvc service.OptimizerService
}

// NewOptimizerHandler creates an OptimizerHandler.
func NewOptimizerHandler(optimizerSvc service.OptimizerService) *OptimizerHandler {
	return &OptimizerHandler{optimizerSvc: optimizerSvc}
}

// Generate POST /api/v1/optimizer/generate
func (h *OptimizerHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 15001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	// infeasible and timed-out runs are still a 200 carrying their status
	result, err := h.optimizerSvc.Generate(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleOptimizerError(c, err)
		return
	}

	response.OK(c, result)
}

// Preview POST /api/v1/optimizer/preview
func (h *OptimizerHandler) Preview(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 15001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.optimizerSvc.Preview(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleOptimizerError(c, err)
		return
	}

	response.OK(c, result)
}

// Apply POST /api/v1/optimizer/apply
func (h *OptimizerHandler) Apply(c *gin.Context) {
	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 15001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.optimizerSvc.Apply(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleOptimizerError(c, err)
		return
	}

	response.OK(c, resp)
}

// FillGaps POST /api/v1/optimizer/schedules/:id/fill-gaps
func (h *OptimizerHandler) FillGaps(c *gin.Context) {
	var req dto.FillGapsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, 15001, err)
			return
		}
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.optimizerSvc.FillGaps(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleOptimizerError(c, err)
		return
	}

	response.OK(c, resp)
}

// Capacity GET /api/v1/optimizer/capacity?store_id=&week_start=
func (h *OptimizerHandler) Capacity(c *gin.Context) {
	var q dto.StoreWeekQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, 15001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.optimizerSvc.Capacity(c.Request.Context(), caller, q.StoreID, q.WeekStart)
	if err != nil {
		h.handleOptimizerError(c, err)
		return
	}

	response.OK(c, resp)
}

// ShiftTemplates GET /api/v1/optimizer/shift-templates?store_id=
func (h *OptimizerHandler) ShiftTemplates(c *gin.Context) {
	var q dto.ShiftTemplatesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, 15001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	templates, err := h.optimizerSvc.ShiftTemplates(c.Request.Context(), caller, q.StoreID)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"templates": templates})
}

func (h *OptimizerHandler) handleOptimizerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrApplyConflict):
		writeConflict(c, 15101, "schedule changed since the proposal was generated", err)
	case errors.Is(err, service.ErrInvalidProblem):
		response.BadRequest(c, 15102, err.Error())
	case errors.Is(err, service.ErrEntryOutsideWeek):
		response.BadRequest(c, 15103, "locked shift or override is outside the week")
	case errors.Is(err, service.ErrDuplicateProposals):
		response.BadRequest(c, 15104, "proposal assigns an employee twice on one date")
	case errors.Is(err, service.ErrScheduleNotDraft):
		response.Conflict(c, 15105, "schedule is not a draft", nil)
	default:
		handleCommonError(c, err)
	}
}
