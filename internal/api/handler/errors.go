package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// ── Business codes ──
//
//	10xxx common      11xxx auth        12xxx stores/employees
//	13xxx schedules   14xxx compliance  15xxx optimizer
//	16xxx export      17xxx call-outs   18xxx swaps
//	19xxx time off, availability and demand
//	20xxx notifications     21xxx reports

// handleCommonError maps the errors every module can return. Anything it
// does not recognize is a 500.
func handleCommonError(c *gin.Context, err error) {
	var ce *service.ComplianceError
	switch {
	case errors.As(err, &ce):
		response.Unprocessable(c, 10101, "labor rule violation", gin.H{"violations": ce.Findings})
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10004, "operation not permitted")
	case errors.Is(err, service.ErrNoEmployeeProfile):
		response.Forbidden(c, 10005, "user has no employee profile")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10102, err.Error())
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 10103, err.Error())
	case errors.Is(err, service.ErrInvalidWeekStart):
		response.BadRequest(c, 10104, "week_start must be a Monday")
	case errors.Is(err, service.ErrStoreNotFound):
		response.NotFound(c, 10105, "store not found")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 10106, "employee not found")
	case errors.Is(err, service.ErrEmployeeInactive):
		response.BadRequest(c, 10107, "employee is not active")
	case errors.Is(err, service.ErrEmployeeOtherStore):
		response.BadRequest(c, 10108, "employee belongs to another store")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 10109, "shift not found")
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 10110, "schedule not found")
	case errors.Is(err, model.ErrIllegalTransition):
		response.Conflict(c, 10111, err.Error(), nil)
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10112, "record was modified, refresh and retry", nil)
	case errors.Is(err, pkgerrors.ErrStaleState):
		response.Conflict(c, 10113, "record changed state, refresh and retry", nil)
	case errors.Is(err, service.ErrBusy):
		response.Conflict(c, 10114, "another operation on this resource is in progress", nil)
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// writeConflict a 409 carrying the slots or conflicts of a ConflictError.
func writeConflict(c *gin.Context, code int, message string, err error) {
	var ce *service.ConflictError
	if errors.As(err, &ce) {
		response.Conflict(c, code, message, ce)
		return
	}
	response.Conflict(c, code, message, nil)
}
