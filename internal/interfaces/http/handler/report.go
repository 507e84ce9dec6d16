package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	reportapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/scheduler"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/http/dto"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// SummaryReader aggregates and exports report summaries
type SummaryReader interface {
	Summary(ctx context.Context, tenantID uuid.UUID, q reportapp.SummaryQuery) (*report.Summary, error)
	Consolidated(ctx context.Context, tenantID uuid.UUID, f report.RangeFilter) (*report.ConsolidatedSummary, error)
	Export(ctx context.Context, tenantID uuid.UUID, q reportapp.SummaryQuery, f rendering.Format) (*rendering.Artifact, error)
}

// SavedReportManager reads saved reports and edits their schedules
type SavedReportManager interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]reportapp.SavedReportResponse, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*reportapp.SavedReportResponse, error)
	UpdateSchedule(ctx context.Context, tenantID, id uuid.UUID, req reportapp.UpdateScheduleRequest) (*reportapp.SavedReportResponse, error)
	RecentRuns(ctx context.Context, tenantID, id uuid.UUID, limit int) ([]reportapp.ScheduleRunResponse, error)
}

// SchedulerStatusProvider reports on the schedule dispatcher
type SchedulerStatusProvider interface {
	Status() scheduler.DispatcherStatus
}

// ReportHandler serves the report REST routes
type ReportHandler struct {
	BaseHandler
	summaries SummaryReader
	saved     SavedReportManager
	scheduler SchedulerStatusProvider
}

// NewReportHandler creates a ReportHandler. status may be nil when the
// dispatcher is not running in this process.
func NewReportHandler(summaries SummaryReader, saved SavedReportManager, status SchedulerStatusProvider) *ReportHandler {
	return &ReportHandler{
		summaries: summaries,
		saved:     saved,
		scheduler: status,
	}
}

// SummaryRequest holds the query parameters of the summary and export routes
type SummaryRequest struct {
	ReportType string `form:"report_type" binding:"required"`
	DateRange  string `form:"date_range"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	GroupBy    string `form:"group_by"`
	Title      string `form:"title" binding:"max=200"`
	Format     string `form:"format"`
}

// RangeRequest holds the date range query parameters
type RangeRequest struct {
	DateRange string `form:"date_range"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

func (r RangeRequest) filter() report.RangeFilter {
	return report.RangeFilter{DateRange: r.DateRange, StartDate: r.StartDate, EndDate: r.EndDate}
}

func (r SummaryRequest) query() (reportapp.SummaryQuery, error) {
	t, err := report.ParseReportType(r.ReportType)
	if err != nil {
		return reportapp.SummaryQuery{}, err
	}
	return reportapp.SummaryQuery{
		ReportType:  t,
		RangeFilter: report.RangeFilter{DateRange: r.DateRange, StartDate: r.StartDate, EndDate: r.EndDate},
		GroupBy:     r.GroupBy,
		Title:       r.Title,
	}, nil
}

// Summary godoc
// @ID           getReportSummary
// @Summary      Aggregate one report type over a period
// @Tags         reports
// @Produce      json
// @Param        report_type query string true  "sales, expenses, transport, payroll, customers, purchases, consolidated"
// @Param        date_range  query string false "today, yesterday, this_week, last_week, this_month, last_month, this_quarter, this_year"
// @Param        start_date  query string false "yyyy-mm-dd"
// @Param        end_date    query string false "yyyy-mm-dd"
// @Param        group_by    query string false "Grouping dimension"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	var req SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	q, err := req.query()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if q.ReportType == report.ReportConsolidated {
		h.consolidated(c, tenantID, q.RangeFilter)
		return
	}

	summary, err := h.summaries.Summary(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Consolidated godoc
// @ID           getConsolidatedReport
// @Summary      Consolidated profit and loss over a period
// @Tags         reports
// @Produce      json
// @Param        date_range query string false "Range keyword"
// @Param        start_date query string false "yyyy-mm-dd"
// @Param        end_date   query string false "yyyy-mm-dd"
// @Success      200 {object} dto.Response
// @Router       /reports/consolidated [get]
func (h *ReportHandler) Consolidated(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	var req RangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.consolidated(c, tenantID, req.filter())
}

func (h *ReportHandler) consolidated(c *gin.Context, tenantID uuid.UUID, f report.RangeFilter) {
	summary, err := h.summaries.Consolidated(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Export godoc
// @ID           exportReport
// @Summary      Download a report summary as pdf, csv, html or xlsx
// @Tags         reports
// @Produce      application/pdf,text/csv,text/html,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        report_type query string true  "Report type"
// @Param        format      query string false "pdf (default), csv, html, xlsx"
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response
// @Router       /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	var req SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	q, err := req.query()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	format := rendering.FormatPDF
	if req.Format != "" {
		if format, err = rendering.ParseFormat(req.Format); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	artifact, err := h.summaries.Export(c.Request.Context(), tenantID, q, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// ListSaved godoc
// @ID           listSavedReports
// @Summary      List saved reports with their schedules
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /reports/saved [get]
func (h *ReportHandler) ListSaved(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c)
		return
	}

	reports, err := h.saved.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reports)
}

// GetSaved godoc
// @ID           getSavedReport
// @Summary      Get a saved report
// @Tags         reports
// @Produce      json
// @Param        id path string true "Saved report ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /reports/saved/{id} [get]
func (h *ReportHandler) GetSaved(c *gin.Context) {
	tenantID, id, ok := h.savedReportScope(c)
	if !ok {
		return
	}

	saved, err := h.saved.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, saved)
}

// UpdateSchedule godoc
// @ID           updateSavedReportSchedule
// @Summary      Replace the delivery schedule of a saved report
// @Description  next_run is recomputed from the new frequency and time
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Saved report ID"
// @Param        request body reportapp.UpdateScheduleRequest true "Schedule"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /reports/saved/{id}/schedule [put]
func (h *ReportHandler) UpdateSchedule(c *gin.Context) {
	tenantID, id, ok := h.savedReportScope(c)
	if !ok {
		return
	}

	var req reportapp.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	saved, err := h.saved.UpdateSchedule(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, saved)
}

// ListRuns godoc
// @ID           listSavedReportRuns
// @Summary      Recent delivery runs of a saved report, newest first
// @Tags         reports
// @Produce      json
// @Param        id    path  string true  "Saved report ID"
// @Param        limit query int    false "Maximum runs (default 20, max 100)"
// @Success      200 {object} dto.Response
// @Router       /reports/saved/{id}/runs [get]
func (h *ReportHandler) ListRuns(c *gin.Context) {
	tenantID, id, ok := h.savedReportScope(c)
	if !ok {
		return
	}

	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.saved.RecentRuns(c.Request.Context(), tenantID, id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, runs)
}

// SchedulerStatus godoc
// @ID           getSchedulerStatus
// @Summary      Schedule dispatcher status
// @Tags         reports
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Router       /reports/scheduler/status [get]
func (h *ReportHandler) SchedulerStatus(c *gin.Context) {
	if h.scheduler == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeServiceOffline, "Scheduler is not running in this instance")
		return
	}
	h.Success(c, h.scheduler.Status())
}

func (h *ReportHandler) savedReportScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid saved report ID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, id, true
}
