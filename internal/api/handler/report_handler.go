package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// ReportHandler staffing and labor reports.
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Coverage GET /api/v1/reports/coverage?store_id=&week_start=
func (h *ReportHandler) Coverage(c *gin.Context) {
	var q dto.StoreWeekQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, 21001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Coverage(c.Request.Context(), caller, q.StoreID, q.WeekStart)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// LaborSummary GET /api/v1/reports/labor-summary?store_id=&start_date=&end_date=
func (h *ReportHandler) LaborSummary(c *gin.Context) {
	var q dto.LaborSummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, 21001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.LaborSummary(c.Request.Context(), caller, &q)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrReportRangeTooLong) {
		response.BadRequest(c, 21101, "report range may span at most 92 days")
		return
	}
	handleCommonError(c, err)
}
