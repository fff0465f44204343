package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/export"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsWorkbook(t *testing.T) {
	var gotRange models.DateRange
	var gotCategories []string
	exporter := &mockExporter{
		MetricsWorkbookFunc: func(ctx context.Context, biz models.BusinessContext, r models.DateRange, categories []string) ([]byte, error) {
			gotRange = r
			gotCategories = categories
			return []byte("PK workbook"), nil
		},
	}
	h := NewExportHandler(exporter, newAccess())

	c, rec := newContext(http.MethodGet, "/api/v1/businesses/biz-1/metrics/export?start=2026-01-01&end=2026-03-31&categories=environmental,%20social,", "", testUser)
	c.SetParamNames("business_id")
	c.SetParamValues(testBusiness)

	require.NoError(t, h.MetricsWorkbook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "metrics-biz-1.xlsx")
	assert.Equal(t, []string{"environmental", "social"}, gotCategories)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), gotRange.Start)
	assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, 999999999, time.UTC), gotRange.End)
}

func TestMetricsWorkbook_Errors(t *testing.T) {
	exporter := &mockExporter{
		MetricsWorkbookFunc: func(ctx context.Context, biz models.BusinessContext, r models.DateRange, categories []string) ([]byte, error) {
			return nil, domain.NewValidationError("date range end is before start")
		},
	}
	h := NewExportHandler(exporter, newAccess())

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"bad start", "?start=yesterday", http.StatusBadRequest},
		{"reversed range", "?start=2026-03-01&end=2026-01-01", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/api/v1/businesses/biz-1/metrics/export"+tt.query, "", testUser)
			c.SetParamNames("business_id")
			c.SetParamValues(testBusiness)

			require.NoError(t, h.MetricsWorkbook(c))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("2026-02-01T10:00:00+02:00", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC), r.Start)
	assert.True(t, r.End.IsZero())

	r, err = parseRange("", "")
	require.NoError(t, err)
	assert.True(t, r.IsZero())

	_, err = parseRange("", "31/03/2026")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler(map[string]Pinger{"database": mockPinger{}, "redis": nil})
		c, rec := newContext(http.MethodGet, "/health", "", "")

		require.NoError(t, h.Health(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"healthy"`)
		assert.NotContains(t, rec.Body.String(), "redis")
	})

	t.Run("unhealthy", func(t *testing.T) {
		h := NewHealthHandler(map[string]Pinger{"database": mockPinger{err: context.DeadlineExceeded}})
		c, rec := newContext(http.MethodGet, "/health", "", "")

		require.NoError(t, h.Health(c))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
	})
}
