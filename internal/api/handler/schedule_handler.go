package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// ScheduleHandler weekly schedules and their shifts.
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler creates a ScheduleHandler.
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// Create opens a draft for a store-week.
// POST /api/v1/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 13001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, schedule)
}

// List GET /api/v1/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	var req dto.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, 13001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, total, err := h.scheduleSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get GET /api/v1/schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// Delete removes a draft and its shifts.
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// Publish POST /api/v1/schedules/:id/publish
func (h *ScheduleHandler) Publish(c *gin.Context) {
	var req dto.PublishScheduleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, 13001, err)
			return
		}
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.scheduleSvc.Publish(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, resp)
}

// Unpublish POST /api/v1/schedules/:id/unpublish
func (h *ScheduleHandler) Unpublish(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Unpublish(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// Archive POST /api/v1/schedules/:id/archive
func (h *ScheduleHandler) Archive(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	schedule, err := h.scheduleSvc.Archive(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, schedule)
}

// ── Shifts ──

// CreateShift POST /api/v1/shifts
func (h *ScheduleHandler) CreateShift(c *gin.Context) {
	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 13001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.scheduleSvc.CreateShift(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, resp)
}

// UpdateShift PUT /api/v1/shifts/:id
func (h *ScheduleHandler) UpdateShift(c *gin.Context) {
	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 13001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.scheduleSvc.UpdateShift(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, resp)
}

// DeleteShift DELETE /api/v1/shifts/:id
func (h *ScheduleHandler) DeleteShift(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.DeleteShift(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ChangeLogs GET /api/v1/schedules/:id/change-logs
func (h *ScheduleHandler) ChangeLogs(c *gin.Context) {
	var req dto.ChangeLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, 13001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, total, err := h.scheduleSvc.ListChangeLogs(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	var we *service.WarningsError
	switch {
	case errors.As(err, &we):
		response.Conflict(c, 13101, "schedule has compliance warnings, publish with force to accept them", gin.H{"warnings": we.Findings})
	case errors.Is(err, service.ErrScheduleAlreadyExists):
		response.Conflict(c, 13102, "a schedule already exists for this store and week", nil)
	case errors.Is(err, service.ErrScheduleNotDraft):
		response.Conflict(c, 13103, "schedule is not a draft", nil)
	case errors.Is(err, service.ErrScheduleArchived):
		response.Conflict(c, 13104, "schedule is archived", nil)
	case errors.Is(err, service.ErrScheduleStateChanged):
		response.Conflict(c, 13105, "schedule changed state, refresh and retry", nil)
	case errors.Is(err, service.ErrShiftOutsideWeek):
		response.BadRequest(c, 13106, "shift date is outside the schedule week")
	case errors.Is(err, service.ErrShiftNotEditable):
		response.Conflict(c, 13107, "only scheduled shifts can be edited", nil)
	case errors.Is(err, service.ErrShiftInOpenSwap):
		response.Conflict(c, 13108, "shift is part of an open swap", nil)
	default:
		handleCommonError(c, err)
	}
}
