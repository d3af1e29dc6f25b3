package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// DemandHandler hourly staffing forecast.
type DemandHandler struct {
	demandSvc service.DemandService
}

// NewDemandHandler creates a DemandHandler.
func NewDemandHandler(demandSvc service.DemandService) *DemandHandler {
	return &DemandHandler{demandSvc: demandSvc}
}

// Upsert PUT /api/v1/demand
func (h *DemandHandler) Upsert(c *gin.Context) {
	var req dto.UpsertDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 19001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	resp, err := h.demandSvc.Upsert(c.Request.Context(), caller, &req)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, resp)
}

// Get GET /api/v1/demand?store_id=&week_start=
func (h *DemandHandler) Get(c *gin.Context) {
	var q dto.DemandQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, 19001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	grid, err := h.demandSvc.Get(c.Request.Context(), caller, &q)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, grid)
}
