package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// EmployeeHandler employee administration and roster import.
type EmployeeHandler struct {
	employeeSvc service.EmployeeService
}

// NewEmployeeHandler creates an EmployeeHandler.
func NewEmployeeHandler(employeeSvc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeSvc: employeeSvc}
}

// Create POST /api/v1/employees
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 10001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.employeeSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.Created(c, resp)
}

// List GET /api/v1/employees
func (h *EmployeeHandler) List(c *gin.Context) {
	var req dto.EmployeeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, 10001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, total, err := h.employeeSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get GET /api/v1/employees/:id
func (h *EmployeeHandler) Get(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	emp, err := h.employeeSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.OK(c, emp)
}

// Update PUT /api/v1/employees/:id
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req dto.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 10001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	emp, err := h.employeeSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.OK(c, emp)
}

// ResetPassword issues a new temporary password.
// POST /api/v1/employees/:id/reset-password
func (h *EmployeeHandler) ResetPassword(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.employeeSvc.ResetPassword(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.OK(c, resp)
}

// Import creates employees from an uploaded xlsx roster.
// POST /api/v1/employees/import (multipart: file, store_id)
func (h *EmployeeHandler) Import(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 12101, "upload the roster as form field \"file\"")
		return
	}
	defer file.Close()

	rows, err := h.employeeSvc.ParseRosterFile(file)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	resp, err := h.employeeSvc.ImportRoster(c.Request.Context(), caller, c.PostForm("store_id"), rows)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}

	response.Created(c, resp)
}

func (h *EmployeeHandler) handleEmployeeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 12003, "email already registered", nil)
	case errors.Is(err, service.ErrNoLoginAccount):
		response.BadRequest(c, 12004, "employee has no login account")
	case errors.Is(err, service.ErrRosterNoData),
		errors.Is(err, service.ErrRosterTooManyRows),
		errors.Is(err, service.ErrRosterBadHeader),
		errors.Is(err, service.ErrRosterUnreadable):
		response.BadRequest(c, 12102, err.Error())
	default:
		handleCommonError(c, err)
	}
}
