package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/api/errors"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/reportdata"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const lookupTimeout = 5 * time.Second

// ReportService is the report pipeline as seen by the HTTP layer
type ReportService interface {
	ReportOwner(ctx context.Context, reportID string) (string, error)
	TemplateOwner(ctx context.Context, templateID string) (string, error)
	AIRequestOwner(ctx context.Context, requestID string) (string, error)

	CreateTemplate(ctx context.Context, biz models.BusinessContext, req models.CreateTemplateRequest) (*models.ReportTemplate, error)
	GetTemplate(ctx context.Context, biz models.BusinessContext, id string) (*models.ReportTemplate, error)
	CreateReport(ctx context.Context, biz models.BusinessContext, req models.CreateReportRequest) (*models.GeneratedReport, error)
	GetReport(ctx context.Context, biz models.BusinessContext, id string) (*models.GeneratedReport, error)
	ListReports(ctx context.Context, biz models.BusinessContext, limit int) ([]*models.GeneratedReport, error)

	Generate(ctx context.Context, biz models.BusinessContext, req models.GenerateReportRequest) (*models.GenerateReportResponse, error)
	Preview(ctx context.Context, biz models.BusinessContext, req models.GenerateReportRequest) (*reportdata.Document, error)
	DraftWithAI(ctx context.Context, biz models.BusinessContext, req models.AIReportDraftRequest) (*models.AIReportDraftResponse, error)
	Retry(ctx context.Context, biz models.BusinessContext, reportID string) (*models.GenerateReportResponse, error)
	Download(ctx context.Context, biz models.BusinessContext, reportID string) ([]byte, error)
}

// FunctionsHandler serves the platform function endpoints
type FunctionsHandler struct {
	reports   ReportService
	scope     businessScope
	validator *validator.Validate
}

// NewFunctionsHandler creates a new functions handler
func NewFunctionsHandler(reports ReportService, access domain.AccessChecker) *FunctionsHandler {
	return &FunctionsHandler{
		reports:   reports,
		scope:     businessScope{access: access},
		validator: validator.New(),
	}
}

// GenerateReport runs the pipeline for one report
// POST /api/v1/functions/generate-report
func (h *FunctionsHandler) GenerateReport(c echo.Context) error {
	var req models.GenerateReportRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx := c.Request().Context()
	biz, handled, err := h.scope.resolve(ctx, c, req.BusinessID)
	if handled {
		return err
	}

	resp, err := h.reports.Generate(ctx, biz, req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// GenerateAIReport drafts a template and report from a free-form prompt
// POST /api/v1/functions/generate-ai-report
func (h *FunctionsHandler) GenerateAIReport(c echo.Context) error {
	var req models.AIReportDraftRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx := c.Request().Context()
	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	businessID, err := h.reports.AIRequestOwner(lookupCtx, req.RequestID)
	cancel()
	if err != nil {
		return errors.DomainError(c, err)
	}

	biz, handled, err := h.scope.resolve(ctx, c, businessID)
	if handled {
		return err
	}

	resp, err := h.reports.DraftWithAI(ctx, biz, req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// DownloadReport streams the stored PDF of a completed report
// POST /api/v1/functions/download-report
func (h *FunctionsHandler) DownloadReport(c echo.Context) error {
	var req models.DownloadReportRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	return h.download(c, req.ReportID)
}

func (h *FunctionsHandler) download(c echo.Context, reportID string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	businessID, err := h.reports.ReportOwner(ctx, reportID)
	if err != nil {
		return errors.DomainError(c, err)
	}

	biz, handled, err := h.scope.resolve(ctx, c, businessID)
	if handled {
		return err
	}

	data, err := h.reports.Download(ctx, biz, reportID)
	if err != nil {
		return errors.DomainError(c, err)
	}

	// Set headers for download
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report-%s.pdf", reportID))
	return c.Blob(http.StatusOK, "application/pdf", data)
}
