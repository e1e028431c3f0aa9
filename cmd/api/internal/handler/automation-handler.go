package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/cmd/api/internal/services"
	"github.com/wmorato/ZapSign/middlewares"
	"github.com/wmorato/ZapSign/pkg/types"
)

// AutomationHandler serves the API-key surface used by n8n-style
// integrations: analysis reads, reanalysis triggers and reports.
type AutomationHandler struct {
	analysis  *services.AnalysisService
	documents *services.DocumentService
}

func NewAutomationHandler(analysis *services.AnalysisService, documents *services.DocumentService) *AutomationHandler {
	return &AutomationHandler{analysis: analysis, documents: documents}
}

func (h *AutomationHandler) GetAnalysis(c *gin.Context) {
	companyID, _ := middlewares.CompanyID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	analysis, err := h.analysis.Get(companyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.Success(analysis, "analysis"))
}

func (h *AutomationHandler) Reanalyze(c *gin.Context) {
	companyID, _ := middlewares.CompanyID(c)
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.analysis.Reanalyze(c.Request.Context(), companyID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, types.Success(gin.H{"document_id": id}, "analysis scheduled"))
}

func (h *AutomationHandler) Report(c *gin.Context) {
	var req types.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ReportType != "monthly_summary" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported report_type"})
		return
	}

	from, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date precedes start_date"})
		return
	}
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id must be a UUID"})
		return
	}

	// The key's company wins over the body: an automation may never
	// report on another tenant.
	if authCompany, ok := middlewares.CompanyID(c); ok && authCompany != companyID {
		c.JSON(http.StatusForbidden, gin.H{"error": "company_id does not match API key"})
		return
	}

	// Reports are inclusive of the whole end day.
	summary, err := h.documents.MonthlyReport(companyID, from, to.Add(24*time.Hour))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.Success(summary, "monthly summary"))
}
