package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/api/errors"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/export"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/labstack/echo/v4"
)

// Exporter builds spreadsheets of a business's metrics
type Exporter interface {
	MetricsWorkbook(ctx context.Context, biz models.BusinessContext, r models.DateRange, categories []string) ([]byte, error)
}

// ExportHandler handles metric export endpoints
type ExportHandler struct {
	exporter Exporter
	scope    businessScope
}

// NewExportHandler creates a new export handler
func NewExportHandler(exporter Exporter, access domain.AccessChecker) *ExportHandler {
	return &ExportHandler{
		exporter: exporter,
		scope:    businessScope{access: access},
	}
}

// MetricsWorkbook returns the business's samples as an xlsx workbook
// GET /api/v1/businesses/:business_id/metrics/export?start=2026-01-01&end=2026-03-31&categories=environmental,social
func (h *ExportHandler) MetricsWorkbook(c echo.Context) error {
	r, err := parseRange(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return errors.ValidationError(c, err)
	}

	var categories []string
	if raw := c.QueryParam("categories"); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				categories = append(categories, cat)
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	biz, handled, err := h.scope.resolve(ctx, c, c.Param("business_id"))
	if handled {
		return err
	}

	data, err := h.exporter.MetricsWorkbook(ctx, biz, r, categories)
	if err != nil {
		return errors.DomainError(c, err)
	}

	// Set headers for download
	filename := fmt.Sprintf("metrics-%s.xlsx", biz.BusinessID)
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+filename)
	return c.Blob(http.StatusOK, export.ContentTypeXLSX, data)
}

// parseRange accepts RFC3339 timestamps or plain dates. A missing bound leaves the range
// open on that side; the date form of end covers the whole day.
func parseRange(start, end string) (models.DateRange, error) {
	var r models.DateRange
	var err error
	if start != "" {
		if r.Start, err = parseBound(start, false); err != nil {
			return r, fmt.Errorf("invalid start: %w", err)
		}
	}
	if end != "" {
		if r.End, err = parseBound(end, true); err != nil {
			return r, fmt.Errorf("invalid end: %w", err)
		}
	}
	return r, nil
}

func parseBound(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
