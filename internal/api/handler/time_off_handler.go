package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// TimeOffHandler time-off requests and calendar exchange.
type TimeOffHandler struct {
	timeOffSvc service.TimeOffService
}

// NewTimeOffHandler creates a TimeOffHandler.
func NewTimeOffHandler(timeOffSvc service.TimeOffService) *TimeOffHandler {
	return &TimeOffHandler{timeOffSvc: timeOffSvc}
}

// Request POST /api/v1/time-off
func (h *TimeOffHandler) Request(c *gin.Context) {
	var req dto.CreateTimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 19001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.timeOffSvc.Request(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.Created(c, resp)
}

// List GET /api/v1/time-off
func (h *TimeOffHandler) List(c *gin.Context) {
	var req dto.TimeOffListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, 19001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, total, err := h.timeOffSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Approve POST /api/v1/time-off/:id/approve
func (h *TimeOffHandler) Approve(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.timeOffSvc.Approve(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OK(c, resp)
}

// Deny POST /api/v1/time-off/:id/deny
func (h *TimeOffHandler) Deny(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.timeOffSvc.Deny(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OK(c, resp)
}

// Cancel POST /api/v1/time-off/:id/cancel
func (h *TimeOffHandler) Cancel(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.timeOffSvc.Cancel(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.OK(c, resp)
}

// ExportCalendar GET /api/v1/time-off/employees/:id/calendar.ics
func (h *TimeOffHandler) ExportCalendar(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	data, filename, err := h.timeOffSvc.ExportCalendar(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	attachment(c, filename, contentTypeICS, data)
}

// ImportCalendar files pending requests from an uploaded .ics.
// POST /api/v1/time-off/import (multipart: file, employee_id)
func (h *TimeOffHandler) ImportCalendar(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 19101, "upload the calendar as form field \"file\"")
		return
	}
	defer file.Close()

	resp, err := h.timeOffSvc.ImportCalendar(c.Request.Context(), caller, c.PostForm("employee_id"), file)
	if err != nil {
		h.handleTimeOffError(c, err)
		return
	}

	response.Created(c, resp)
}

func (h *TimeOffHandler) handleTimeOffError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimeOffNotFound):
		response.NotFound(c, 19102, "time-off request not found")
	case errors.Is(err, service.ErrTimeOffConflict):
		response.Conflict(c, 19103, "time-off request was changed by another request", nil)
	case errors.Is(err, service.ErrTimeOffOverlap):
		response.Conflict(c, 19104, "overlaps an existing time-off request", nil)
	case errors.Is(err, service.ErrInvalidCalendar):
		response.BadRequest(c, 19105, "invalid calendar file")
	default:
		handleCommonError(c, err)
	}
}
