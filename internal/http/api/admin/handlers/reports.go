package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventhub/eventhub-backend/internal/http/api"
	"github.com/eventhub/eventhub-backend/internal/reports"
)

// ReportHandler serves the admin reporting endpoints.
type ReportHandler struct {
	svc *reports.Service
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(svc *reports.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Dashboard returns the operational overview.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, errCompute := h.svc.ComputeDashboard(c.Request.Context())
	if errCompute != nil {
		api.Fail(c, http.StatusInternalServerError, "report failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"dashboard": dashboard})
}

// Events returns the event calendar report.
func (h *ReportHandler) Events(c *gin.Context) {
	report, errCompute := h.svc.ComputeEventReport(c.Request.Context())
	if errCompute != nil {
		api.Fail(c, http.StatusInternalServerError, "report failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"report": report})
}

// Users returns the user base report.
func (h *ReportHandler) Users(c *gin.Context) {
	report, errCompute := h.svc.ComputeUserReport(c.Request.Context())
	if errCompute != nil {
		api.Fail(c, http.StatusInternalServerError, "report failed")
		return
	}
	api.OK(c, http.StatusOK, gin.H{"report": report})
}
