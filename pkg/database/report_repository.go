package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
)

var (
	_ domain.ReportRepository    = (*ReportRepository)(nil)
	_ domain.AIRequestRepository = (*AIRequestRepository)(nil)
)

// ReportRepository stores templates and generated reports. JSON columns are JSONB.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a report repository
func NewReportRepository(c *Client) *ReportRepository {
	return &ReportRepository{db: c.DB}
}

// CreateTemplate inserts a template
func (r *ReportRepository) CreateTemplate(ctx context.Context, tpl *models.ReportTemplate) error {
	vis, err := json.Marshal(tpl.Visualization)
	if err != nil {
		return fmt.Errorf("failed to encode visualization: %w", err)
	}
	theme, err := json.Marshal(nonNil(tpl.Theme))
	if err != nil {
		return fmt.Errorf("failed to encode theme: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO report_templates
    (id, business_id, name, description, report_type, visualization, theme, orientation, ai_generated, ai_prompt, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tpl.ID, tpl.BusinessID, tpl.Name, tpl.Description, string(tpl.ReportType), vis, theme,
		string(tpl.Orientation), tpl.AIGenerated, tpl.AIPrompt, tpl.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report template: %w", err)
	}
	return nil
}

// GetTemplate returns a template or a not found error
func (r *ReportRepository) GetTemplate(ctx context.Context, id string) (*models.ReportTemplate, error) {
	var (
		tpl              models.ReportTemplate
		reportType, ori  string
		visRaw, themeRaw []byte
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, business_id, name, description, report_type, visualization, theme, orientation, ai_generated, ai_prompt, created_at
FROM report_templates WHERE id = $1`, id).
		Scan(&tpl.ID, &tpl.BusinessID, &tpl.Name, &tpl.Description, &reportType, &visRaw, &themeRaw,
			&ori, &tpl.AIGenerated, &tpl.AIPrompt, &tpl.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("report template")
		}
		return nil, fmt.Errorf("failed to get report template: %w", err)
	}

	tpl.ReportType = models.ReportType(reportType)
	tpl.Orientation = models.Orientation(ori)
	if err := decodeJSON(visRaw, &tpl.Visualization); err != nil {
		return nil, fmt.Errorf("failed to decode visualization: %w", err)
	}
	if err := decodeJSON(themeRaw, &tpl.Theme); err != nil {
		return nil, fmt.Errorf("failed to decode theme: %w", err)
	}
	return &tpl, nil
}

// CreateReport inserts a report
func (r *ReportRepository) CreateReport(ctx context.Context, report *models.GeneratedReport) error {
	data, meta, err := encodeReportJSON(report)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO generated_reports
    (id, template_id, business_id, status, date_start, date_end, report_data, pdf_url, file_size, page_count, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		report.ID, report.TemplateID, report.BusinessID, string(report.Status),
		nullTime(report.DateRange.Start), nullTime(report.DateRange.End), data, report.PDFURL,
		report.FileSize, report.PageCount, meta, report.CreatedAt, report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

const reportColumns = `id, template_id, business_id, status, date_start, date_end, report_data, pdf_url, file_size, page_count, metadata, created_at, updated_at`

// GetReport returns a report or a not found error
func (r *ReportRepository) GetReport(ctx context.Context, id string) (*models.GeneratedReport, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM generated_reports WHERE id = $1`, id)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("report")
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// ListReports returns the newest reports of a business
func (r *ReportRepository) ListReports(ctx context.Context, businessID string, limit int) ([]*models.GeneratedReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM generated_reports WHERE business_id = $1 ORDER BY created_at DESC LIMIT $2`,
		businessID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return collectReports(rows)
}

// UpdateReport overwrites the mutable columns. Last write wins.
func (r *ReportRepository) UpdateReport(ctx context.Context, report *models.GeneratedReport) error {
	data, meta, err := encodeReportJSON(report)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE generated_reports
SET status = $2, date_start = $3, date_end = $4, report_data = $5, pdf_url = $6,
    file_size = $7, page_count = $8, metadata = $9, updated_at = $10
WHERE id = $1`,
		report.ID, string(report.Status), nullTime(report.DateRange.Start), nullTime(report.DateRange.End),
		data, report.PDFURL, report.FileSize, report.PageCount, meta, report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewNotFoundError("report")
	}
	return nil
}

// RecordDownload patches report_data.last_download in place, leaving status and the
// rest of the diagnostics as the last writer stored them
func (r *ReportRepository) RecordDownload(ctx context.Context, id string, note models.DownloadNote) error {
	raw, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to encode download note: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE generated_reports
SET report_data = jsonb_set(report_data, '{last_download}', $2::jsonb)
WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewNotFoundError("report")
	}
	return nil
}

// ListStaleReports returns reports in status whose last update is older than updatedBefore
func (r *ReportRepository) ListStaleReports(ctx context.Context, status models.ReportStatus, updatedBefore time.Time) ([]*models.GeneratedReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM generated_reports WHERE status = $1 AND updated_at < $2 ORDER BY updated_at`,
		string(status), updatedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale reports: %w", err)
	}
	return collectReports(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*models.GeneratedReport, error) {
	var (
		report        models.GeneratedReport
		status        string
		start, end    sql.NullTime
		data, metaRaw []byte
	)
	if err := row.Scan(&report.ID, &report.TemplateID, &report.BusinessID, &status, &start, &end,
		&data, &report.PDFURL, &report.FileSize, &report.PageCount, &metaRaw,
		&report.CreatedAt, &report.UpdatedAt); err != nil {
		return nil, err
	}

	report.Status = models.ReportStatus(status)
	if start.Valid {
		report.DateRange.Start = start.Time
	}
	if end.Valid {
		report.DateRange.End = end.Time
	}
	if err := decodeJSON(data, &report.ReportData); err != nil {
		return nil, fmt.Errorf("failed to decode report_data: %w", err)
	}
	if err := decodeJSON(metaRaw, &report.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return &report, nil
}

func collectReports(rows *sql.Rows) ([]*models.GeneratedReport, error) {
	defer rows.Close()

	var reports []*models.GeneratedReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}
	return reports, nil
}

func encodeReportJSON(report *models.GeneratedReport) (data, meta []byte, err error) {
	data, err = json.Marshal(report.ReportData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode report_data: %w", err)
	}
	meta, err = json.Marshal(report.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return data, meta, nil
}

// AIRequestRepository stores AI drafting requests
type AIRequestRepository struct {
	db *sql.DB
}

// NewAIRequestRepository creates an AI request repository
func NewAIRequestRepository(c *Client) *AIRequestRepository {
	return &AIRequestRepository{db: c.DB}
}

// GetAIRequest returns a request or a not found error
func (r *AIRequestRepository) GetAIRequest(ctx context.Context, id string) (*models.AIReportRequest, error) {
	var (
		req    models.AIReportRequest
		status string
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, business_id, prompt, status, template_id, report_id, error, created_at
FROM ai_report_requests WHERE id = $1`, id).
		Scan(&req.ID, &req.BusinessID, &req.Prompt, &status, &req.TemplateID, &req.ReportID, &req.Error, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("ai report request")
		}
		return nil, fmt.Errorf("failed to get ai report request: %w", err)
	}
	req.Status = models.ReportStatus(status)
	return &req, nil
}

// UpdateAIRequest writes status, links and error
func (r *AIRequestRepository) UpdateAIRequest(ctx context.Context, req *models.AIReportRequest) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE ai_report_requests SET prompt = $2, status = $3, template_id = $4, report_id = $5, error = $6 WHERE id = $1`,
		req.ID, req.Prompt, string(req.Status), req.TemplateID, req.ReportID, req.Error)
	if err != nil {
		return fmt.Errorf("failed to update ai report request: %w", err)
	}
	return nil
}
