package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler schedule downloads.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ScheduleXLSX GET /api/v1/schedules/:id/export.xlsx
func (h *ExportHandler) ScheduleXLSX(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ScheduleXLSX(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ScheduleICS GET /api/v1/schedules/:id/export.ics
func (h *ExportHandler) ScheduleICS(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.ScheduleICS(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename, contentTypeICS, data)
}

// attachment writes a file download.
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportGenerateFail):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, 16101, "failed to generate export file")
	default:
		handleCommonError(c, err)
	}
}
