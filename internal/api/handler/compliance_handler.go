package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// ComplianceHandler labor-rule checks. Every endpoint is read-only.
type ComplianceHandler struct {
	complianceSvc service.ComplianceService
}

// NewComplianceHandler creates a ComplianceHandler.
func NewComplianceHandler(complianceSvc service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{complianceSvc: complianceSvc}
}

// ValidateShift checks a proposed shift without saving it.
// POST /api/v1/compliance/validate-shift
func (h *ComplianceHandler) ValidateShift(c *gin.Context) {
	var req dto.ValidateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 14001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.complianceSvc.ValidateShift(c.Request.Context(), caller, &req)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}

// ValidateSchedule GET /api/v1/compliance/schedules/:id
func (h *ComplianceHandler) ValidateSchedule(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.complianceSvc.ValidateSchedule(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}

// ValidateExistingShift GET /api/v1/shifts/:id/compliance
func (h *ComplianceHandler) ValidateExistingShift(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.complianceSvc.ValidateExistingShift(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}

// EmployeeStatus GET /api/v1/compliance/employees/:id/status?week_start=
func (h *ComplianceHandler) EmployeeStatus(c *gin.Context) {
	var q dto.WeekQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, 14001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	status, err := h.complianceSvc.EmployeeStatus(c.Request.Context(), caller, c.Param("id"), q.WeekStart)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, status)
}

// StoreSummary GET /api/v1/compliance/stores/:id/summary?week_start=
func (h *ComplianceHandler) StoreSummary(c *gin.Context) {
	var q dto.WeekQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, 14001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	summary, err := h.complianceSvc.StoreWeekSummary(c.Request.Context(), caller, c.Param("id"), q.WeekStart)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, summary)
}

// Rules the configured limits.
// GET /api/v1/compliance/rules
func (h *ComplianceHandler) Rules(c *gin.Context) {
	response.OK(c, h.complianceSvc.Rules())
}
