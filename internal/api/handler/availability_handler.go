package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// AvailabilityHandler weekly availability per employee.
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler creates an AvailabilityHandler.
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// Get GET /api/v1/employees/:id/availability
func (h *AvailabilityHandler) Get(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.availabilitySvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, resp)
}

// Set PUT /api/v1/employees/:id/availability
func (h *AvailabilityHandler) Set(c *gin.Context) {
	var req dto.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 19001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.availabilitySvc.Set(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, resp)
}

func (h *AvailabilityHandler) handleAvailabilityError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrDuplicateDay) {
		response.BadRequest(c, 19201, "day_of_week listed more than once")
		return
	}
	handleCommonError(c, err)
}
