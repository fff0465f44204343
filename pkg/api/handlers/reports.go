package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/api/errors"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const defaultListLimit = 20

// ReportHandler handles template and report resources
type ReportHandler struct {
	reports   ReportService
	scope     businessScope
	validator *validator.Validate
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports ReportService, access domain.AccessChecker) *ReportHandler {
	return &ReportHandler{
		reports:   reports,
		scope:     businessScope{access: access},
		validator: validator.New(),
	}
}

// CreateTemplate handles creating a report template
// POST /api/v1/businesses/:business_id/report-templates
func (h *ReportHandler) CreateTemplate(c echo.Context) error {
	var req models.CreateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), lookupTimeout)
	defer cancel()

	biz, handled, err := h.scope.resolve(ctx, c, c.Param("business_id"))
	if handled {
		return err
	}

	tpl, err := h.reports.CreateTemplate(ctx, biz, req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusCreated, tpl)
}

// GetTemplate handles retrieving a template
// GET /api/v1/report-templates/:id
func (h *ReportHandler) GetTemplate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), lookupTimeout)
	defer cancel()

	id := c.Param("id")
	businessID, err := h.reports.TemplateOwner(ctx, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	biz, handled, err := h.scope.resolve(ctx, c, businessID)
	if handled {
		return err
	}

	tpl, err := h.reports.GetTemplate(ctx, biz, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, tpl)
}

// CreateReport inserts a pending report for a template
// POST /api/v1/businesses/:business_id/reports
func (h *ReportHandler) CreateReport(c echo.Context) error {
	var req models.CreateReportRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), lookupTimeout)
	defer cancel()

	biz, handled, err := h.scope.resolve(ctx, c, c.Param("business_id"))
	if handled {
		return err
	}

	report, err := h.reports.CreateReport(ctx, biz, req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusCreated, report)
}

// ListReports returns the business's newest reports
// GET /api/v1/businesses/:business_id/reports?limit=20
func (h *ReportHandler) ListReports(c echo.Context) error {
	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), lookupTimeout)
	defer cancel()

	biz, handled, err := h.scope.resolve(ctx, c, c.Param("business_id"))
	if handled {
		return err
	}

	reports, err := h.reports.ListReports(ctx, biz, limit)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReport handles retrieving a report with its diagnostics
// GET /api/v1/reports/:id
func (h *ReportHandler) GetReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), lookupTimeout)
	defer cancel()

	id := c.Param("id")
	biz, handled, err := h.reportScope(ctx, c, id)
	if handled {
		return err
	}

	report, err := h.reports.GetReport(ctx, biz, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, report)
}

// RetryReport regenerates a failed or unusable report
// POST /api/v1/reports/:id/retry
func (h *ReportHandler) RetryReport(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	biz, handled, err := h.reportScope(lookupCtx, c, id)
	cancel()
	if handled {
		return err
	}

	resp, err := h.reports.Retry(ctx, biz, id)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// PreviewReport returns the assembled document without rendering or uploading it
// GET /api/v1/reports/:id/preview
func (h *ReportHandler) PreviewReport(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), lookupTimeout*6)
	defer cancel()

	id := c.Param("id")
	biz, handled, err := h.reportScope(ctx, c, id)
	if handled {
		return err
	}

	doc, err := h.reports.Preview(ctx, biz, models.GenerateReportRequest{
		ReportID:           id,
		BusinessID:         biz.BusinessID,
		HandleEmptyMetrics: c.QueryParam("handle_empty_metrics") == "true",
	})
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, doc)
}

func (h *ReportHandler) reportScope(ctx context.Context, c echo.Context, reportID string) (models.BusinessContext, bool, error) {
	businessID, err := h.reports.ReportOwner(ctx, reportID)
	if err != nil {
		return models.BusinessContext{}, true, errors.DomainError(c, err)
	}
	return h.scope.resolve(ctx, c, businessID)
}
