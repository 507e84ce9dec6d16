package handler

import (
	"context"
	"fmt"
	"net/http"

	documentapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/document"
	integrationapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/integration"
	reportapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/integration"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errInvalidBody  = shared.InvalidInput("Invalid request body")
	errUnauthorized = shared.NewDomainError(shared.CodeUnauthorized, "Unauthorized")
)

// DocumentGenerator renders business documents to PDF
type DocumentGenerator interface {
	Generate(ctx context.Context, tenantID uuid.UUID, req documentapp.GenerateRequest) (*documentapp.GenerateResult, error)
}

// GitHubProxy forwards actions to GitHub
type GitHubProxy interface {
	Execute(ctx context.Context, req integrationapp.ActionRequest) (*integration.UpstreamResponse, error)
}

// ScheduledReportSender delivers a saved report on demand
type ScheduledReportSender interface {
	SendScheduledReport(ctx context.Context, tenantID uuid.UUID, in reportapp.SendScheduledReportInput) (*reportapp.SendScheduledReportResult, error)
}

// FunctionHandler serves the POST function endpoints. Errors are returned
// as a flat {"error": message} body.
type FunctionHandler struct {
	documents DocumentGenerator
	github    GitHubProxy
	delivery  ScheduledReportSender
}

// NewFunctionHandler creates a FunctionHandler
func NewFunctionHandler(documents DocumentGenerator, github GitHubProxy, delivery ScheduledReportSender) *FunctionHandler {
	return &FunctionHandler{
		documents: documents,
		github:    github,
		delivery:  delivery,
	}
}

// GitHubRequest is the body of the github function
type GitHubRequest struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// GenerateDocumentPDF godoc
// @ID           generateDocumentPDF
// @Summary      Render a receipt, invoice, payslip or report as PDF
// @Tags         functions
// @Accept       json
// @Produce      application/pdf
// @Param        request body documentapp.GenerateRequest true "Document type and data"
// @Success      200 {file} binary
// @Failure      400 {object} dto.FunctionError
// @Failure      401 {object} dto.FunctionError
// @Failure      500 {object} dto.FunctionError
// @Router       /functions/generateDocumentPDF [post]
func (h *FunctionHandler) GenerateDocumentPDF(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		functionError(c, errUnauthorized)
		return
	}

	var req documentapp.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		functionError(c, errInvalidBody)
		return
	}

	result, err := h.documents.Generate(c.Request.Context(), tenantID, req)
	if err != nil {
		functionError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	if result.ArchiveKey != "" {
		c.Header("X-Archive-Key", result.ArchiveKey)
	}
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// GitHub godoc
// @ID           githubProxy
// @Summary      Proxy a GitHub REST or GraphQL action
// @Description  The upstream status and JSON body are passed through unchanged
// @Tags         functions
// @Accept       json
// @Produce      json
// @Param        request body GitHubRequest true "Action and parameters"
// @Success      200 {object} object
// @Failure      400 {object} dto.FunctionError
// @Failure      401 {object} dto.FunctionError
// @Failure      500 {object} dto.FunctionError
// @Router       /functions/github [post]
func (h *FunctionHandler) GitHub(c *gin.Context) {
	if _, ok := getTenantID(c); !ok {
		functionError(c, errUnauthorized)
		return
	}

	var req GitHubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		functionError(c, errInvalidBody)
		return
	}

	resp, err := h.github.Execute(c.Request.Context(), integrationapp.ActionRequest{
		Action: integration.Action(req.Action),
		Params: integration.Params(req.Params),
	})
	if err != nil {
		functionError(c, err)
		return
	}

	body := resp.Body
	if len(body) == 0 {
		body = []byte("null")
	}
	c.Data(resp.StatusCode, "application/json; charset=utf-8", body)
}

// SendScheduledReport godoc
// @ID           sendScheduledReport
// @Summary      Deliver a saved report to its recipients now
// @Tags         functions
// @Accept       json
// @Produce      json
// @Param        request body reportapp.SendScheduledReportInput true "Saved report"
// @Success      200 {object} reportapp.SendScheduledReportResult
// @Failure      400 {object} dto.FunctionError
// @Failure      401 {object} dto.FunctionError
// @Failure      404 {object} dto.FunctionError
// @Failure      500 {object} dto.FunctionError
// @Router       /functions/sendScheduledReport [post]
func (h *FunctionHandler) SendScheduledReport(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		functionError(c, errUnauthorized)
		return
	}

	var in reportapp.SendScheduledReportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		functionError(c, errInvalidBody)
		return
	}

	result, err := h.delivery.SendScheduledReport(c.Request.Context(), tenantID, in)
	if err != nil {
		functionError(c, err)
		return
	}

	logger.FromGin(c).Info("Scheduled report sent",
		zap.String("saved_report_id", in.SavedReportID.String()),
		zap.Bool("manual", in.Manual),
		zap.Bool("success", result.Success),
		zap.Int("recipients", len(result.Results)))
	c.JSON(http.StatusOK, result)
}
