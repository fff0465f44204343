package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/ai/agents"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/cache"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/logger"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/pdf"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/reportdata"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/storage"
	"github.com/google/uuid"
)

// runConfig is the template merged with the per-run configuration
type runConfig struct {
	title         string
	reportType    models.ReportType
	visualization models.VisualizationOptions
	palette       []string
	orientation   models.Orientation
	dateRange     models.DateRange
	categories    []string
}

func mergeConfig(tpl *models.ReportTemplate, report *models.GeneratedReport, cfg models.ReportConfiguration) runConfig {
	rc := runConfig{
		title:         tpl.Name,
		reportType:    tpl.ReportType,
		visualization: tpl.Visualization,
		palette:       tpl.Theme,
		orientation:   tpl.Orientation,
		dateRange:     report.DateRange,
		categories:    cfg.Categories,
	}
	if cfg.Title != "" {
		rc.title = cfg.Title
	}
	if cfg.Visualization != nil {
		rc.visualization = *cfg.Visualization
	}
	if len(cfg.ColorScheme) > 0 {
		rc.palette = cfg.ColorScheme
	}
	if cfg.Orientation != "" {
		rc.orientation = cfg.Orientation
	}
	if cfg.DateRange != nil {
		rc.dateRange = *cfg.DateRange
	}
	if len(rc.palette) == 0 {
		rc.palette = reportdata.DefaultPalette
	}
	if rc.orientation == "" {
		rc.orientation = models.OrientationPortrait
	}
	return rc
}

// Generate runs the pipeline for one report: aggregate, assemble, optionally outline,
// render, upload and persist. Every failure is written to the report's diagnostics,
// the report is marked failed, and the error is returned.
//
// The run is detached from ctx cancellation so a disconnecting caller does not abort it.
func (s *Service) Generate(ctx context.Context, biz models.BusinessContext, req models.GenerateReportRequest) (*models.GenerateReportResponse, error) {
	return s.generate(context.WithoutCancel(ctx), biz, req, nil)
}

// generate takes an optional pre-drafted summary, which skips the outline call
func (s *Service) generate(ctx context.Context, biz models.BusinessContext, req models.GenerateReportRequest, drafted *reportdata.ExecutiveSummary) (*models.GenerateReportResponse, error) {
	if strings.TrimSpace(req.ReportID) == "" {
		return nil, domain.NewValidationError("report_id is required")
	}
	if err := authorize(biz, req.BusinessID); err != nil {
		return nil, err
	}

	log := s.logger.With("report_id", req.ReportID, "business_id", req.BusinessID)

	if s.locker != nil {
		key := cache.ReportLockKey(req.ReportID)
		ok, err := s.locker.Acquire(ctx, key, s.lockTTL)
		switch {
		case err != nil:
			log.Warn("report lock unavailable, continuing without it", "error", err)
		case !ok:
			return nil, domain.NewConflictError("report generation is already in progress")
		default:
			defer func() {
				if err := s.locker.Release(ctx, key); err != nil {
					log.Warn("failed to release report lock", "error", err)
				}
			}()
		}
	}

	report, err := s.reports.GetReport(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}
	if report.BusinessID != req.BusinessID {
		return nil, domain.NewForbiddenError("report belongs to another business")
	}

	if !req.ForceRegenerate && report.Status == models.StatusCompleted &&
		report.PageCount > 0 && storage.IsValidPublicURL(report.PDFURL) {
		log.Info("report already generated")
		return responseFor(report), nil
	}

	tpl, err := s.reports.GetTemplate(ctx, report.TemplateID)
	if err != nil {
		s.fail(ctx, log, report, fmt.Errorf("failed to load report template: %w", err))
		return nil, err
	}

	start := time.Now()
	report.Status = models.StatusProcessing
	report.ClearOutput()
	report.ReportData.StartRun(s.now())
	report.UpdatedAt = s.now()
	if err := s.reports.UpdateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to mark report processing: %w", err)
	}

	rc := mergeConfig(tpl, report, req.Configuration)
	if err := s.run(ctx, log, biz, report, tpl, rc, req, drafted); err != nil {
		s.fail(ctx, log, report, err)
		s.metrics.RecordGeneration(string(models.StatusFailed), string(rc.reportType), time.Since(start), 0)
		return nil, err
	}

	s.metrics.RecordGeneration(string(models.StatusCompleted), string(rc.reportType), time.Since(start), report.PageCount)
	log.Info("report generated",
		"pages", report.PageCount,
		"bytes", report.FileSize,
		"missing_pdf", report.ReportData.MissingPDF,
		"duration", time.Since(start))

	return responseFor(report), nil
}

func (s *Service) run(ctx context.Context, log logger.Logger, biz models.BusinessContext, report *models.GeneratedReport,
	tpl *models.ReportTemplate, rc runConfig, req models.GenerateReportRequest, drafted *reportdata.ExecutiveSummary) error {
	doc, aiOutline, err := s.assemble(ctx, biz, report, tpl, rc, req, drafted)
	if err != nil {
		return err
	}
	diag := &report.ReportData

	generatedAt := s.now()
	rendered, err := s.renderer.Render(doc, pdf.Template{
		Title:       rc.title,
		Colors:      rc.palette,
		Orientation: rc.orientation,
	}, generatedAt)
	if err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}

	if s.objects == nil {
		return domain.NewConfigurationError("object storage is not configured", nil)
	}
	path := storage.ReportObjectPath(report.BusinessID, report.ID)
	if err := s.objects.Upload(ctx, storage.ReportsBucket, path, rendered.Bytes, contentTypePDF); err != nil {
		return fmt.Errorf("failed to upload pdf: %w", err)
	}

	publicURL := s.objects.PublicURL(storage.ReportsBucket, path)
	if storage.IsValidPublicURL(publicURL) {
		report.PDFURL = publicURL
		diag.MissingPDF = false
	} else {
		log.Warn("storage returned an unusable public url", "url", publicURL)
		report.PDFURL = ""
		diag.MissingPDF = true
		diag.AddWarning(warnMissingPDF)
	}

	report.Status = models.StatusCompleted
	report.FileSize = int64(len(rendered.Bytes))
	report.PageCount = rendered.PageCount
	report.Metadata = models.ReportMetadata{
		StoragePath: path,
		Title:       rc.title,
		Sections:    doc.Sections(),
		GeneratedAt: &generatedAt,
		AIOutline:   aiOutline,
	}
	diag.AppendStatus(models.StatusCompleted, fmt.Sprintf("report generated with %d pages", rendered.PageCount), s.now())
	report.UpdatedAt = s.now()

	if err := s.reports.UpdateReport(ctx, report); err != nil {
		return fmt.Errorf("failed to store report result: %w", err)
	}
	return nil
}

// assemble builds the document of one run and records data warnings on the report
func (s *Service) assemble(ctx context.Context, biz models.BusinessContext, report *models.GeneratedReport,
	tpl *models.ReportTemplate, rc runConfig, req models.GenerateReportRequest, drafted *reportdata.ExecutiveSummary) (*reportdata.Document, bool, error) {
	if err := validateRange(rc.dateRange); err != nil {
		return nil, false, err
	}
	diag := &report.ReportData

	agg, err := s.aggregator.Aggregate(ctx, biz, rc.dateRange, rc.categories)
	if err != nil {
		return nil, false, fmt.Errorf("failed to aggregate metrics: %w", err)
	}
	diag.EmptyMetrics = agg.IsEmpty()
	if diag.EmptyMetrics {
		diag.AddWarning(warnEmptyMetrics)
	}

	business, err := s.business(ctx, report.BusinessID)
	if err != nil {
		return nil, false, err
	}
	if business == nil {
		diag.AddWarning(warnNoBusiness)
	}

	if req.UseExternalCharts {
		diag.AddWarning(warnExternalCharts)
	}

	doc := reportdata.Assemble(reportdata.Input{
		Type:               rc.reportType,
		Visualization:      rc.visualization,
		Aggregation:        agg,
		Business:           business,
		Palette:            rc.palette,
		HandleEmptyMetrics: req.HandleEmptyMetrics,
	})

	switch {
	case drafted != nil:
		reportdata.ApplyOutline(doc, drafted)
		return doc, true, nil
	case tpl.AIGenerated && tpl.AIPrompt != "" && s.outliner != nil:
		summary, err := s.outline(ctx, report.BusinessID, businessName(business), tpl.AIPrompt, doc.Metrics)
		if err != nil {
			return nil, false, err
		}
		reportdata.ApplyOutline(doc, summary)
		return doc, true, nil
	}
	return doc, false, nil
}

// Preview assembles the document a generation with req would render, without
// rendering, uploading or changing the report
func (s *Service) Preview(ctx context.Context, biz models.BusinessContext, req models.GenerateReportRequest) (*reportdata.Document, error) {
	if err := authorize(biz, req.BusinessID); err != nil {
		return nil, err
	}
	report, err := s.reports.GetReport(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}
	if report.BusinessID != req.BusinessID {
		return nil, domain.NewForbiddenError("report belongs to another business")
	}
	tpl, err := s.reports.GetTemplate(ctx, report.TemplateID)
	if err != nil {
		return nil, err
	}

	scratch := *report
	scratch.ReportData = models.Diagnostics{}
	doc, _, err := s.assemble(ctx, biz, &scratch, tpl, mergeConfig(tpl, report, req.Configuration), req, nil)
	return doc, err
}

// fail records err on the report. A failing update is logged; the original error wins.
func (s *Service) fail(ctx context.Context, log logger.Logger, report *models.GeneratedReport, err error) {
	now := s.now()
	report.Status = models.StatusFailed
	report.ClearOutput()
	report.ReportData.RecordFailure(domain.CodeOf(err), err.Error(), now)
	if raw, ok := rawResponse(err); ok {
		report.ReportData.AddNote("llm response: "+raw, now)
	}
	report.UpdatedAt = now

	log.Error("report generation failed", "error", err, "code", domain.CodeOf(err))
	if uerr := s.reports.UpdateReport(ctx, report); uerr != nil {
		log.Error("failed to record report failure", "error", uerr)
	}
}

// business returns nil without error when the business has no metadata row
func (s *Service) business(ctx context.Context, businessID string) (*models.BusinessMetadata, error) {
	if s.businesses == nil {
		return nil, nil
	}
	b, err := s.businesses.GetBusiness(ctx, businessID)
	if domain.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load business metadata: %w", err)
	}
	return b, nil
}

func businessName(b *models.BusinessMetadata) string {
	if b == nil {
		return ""
	}
	return b.Name
}

func (s *Service) outline(ctx context.Context, businessID, name, prompt string, snapshot map[string]float64) (*reportdata.ExecutiveSummary, error) {
	res, err := s.draftOutline(ctx, businessID, name, prompt, snapshot)
	if err != nil {
		return nil, err
	}
	return res.Outline.ToExecutiveSummary(), nil
}

func (s *Service) draftOutline(ctx context.Context, businessID, name, prompt string, snapshot map[string]float64) (*agents.OutlineResult, error) {
	if s.outliner == nil {
		s.metrics.RecordOutline("unavailable")
		return nil, domain.NewConfigurationError("ai outline generation is not configured", nil)
	}
	res, err := s.outliner.Generate(ctx, agents.OutlineRequest{
		BusinessID:   businessID,
		BusinessName: name,
		Prompt:       prompt,
		Snapshot:     snapshot,
	})
	switch {
	case err == nil:
		s.metrics.RecordOutline("success")
	case domain.IsConfiguration(err):
		s.metrics.RecordOutline("unavailable")
	case domain.IsMalformedResponse(err):
		s.metrics.RecordOutline("malformed")
	default:
		s.metrics.RecordOutline("failed")
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DraftWithAI turns a pending AI request into a template and report, then generates
// the report with the drafted summary. The request row tracks the outcome.
func (s *Service) DraftWithAI(ctx context.Context, biz models.BusinessContext, req models.AIReportDraftRequest) (*models.AIReportDraftResponse, error) {
	ctx = context.WithoutCancel(ctx)

	aiReq, err := s.aiRequests.GetAIRequest(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if err := authorize(biz, aiReq.BusinessID); err != nil {
		return nil, err
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = strings.TrimSpace(aiReq.Prompt)
	}
	if prompt == "" {
		return nil, domain.NewValidationError("prompt is required")
	}

	log := s.logger.With("request_id", aiReq.ID, "business_id", aiReq.BusinessID)

	aiReq.Prompt = prompt
	aiReq.Status = models.StatusProcessing
	aiReq.Error = ""
	if err := s.aiRequests.UpdateAIRequest(ctx, aiReq); err != nil {
		return nil, fmt.Errorf("failed to mark ai request processing: %w", err)
	}

	resp, err := s.draft(ctx, biz, aiReq)
	if err != nil {
		aiReq.Status = models.StatusFailed
		aiReq.Error = err.Error()
		if uerr := s.aiRequests.UpdateAIRequest(ctx, aiReq); uerr != nil {
			log.Error("failed to record ai request failure", "error", uerr)
		}
		log.Error("ai report drafting failed", "error", err)
		return nil, err
	}

	aiReq.Status = models.StatusCompleted
	if err := s.aiRequests.UpdateAIRequest(ctx, aiReq); err != nil {
		log.Warn("failed to mark ai request completed", "error", err)
	}
	log.Info("ai report drafted", "template_id", resp.TemplateID, "report_id", resp.ReportID)
	return resp, nil
}

func (s *Service) draft(ctx context.Context, biz models.BusinessContext, aiReq *models.AIReportRequest) (*models.AIReportDraftResponse, error) {
	now := s.now()
	period := models.DateRange{Start: now.Add(-DraftLookback), End: now}

	agg, err := s.aggregator.Aggregate(ctx, biz, period, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate metrics: %w", err)
	}
	business, err := s.business(ctx, aiReq.BusinessID)
	if err != nil {
		return nil, err
	}
	snapshot := reportdata.Assemble(reportdata.Input{
		Type:        models.ReportTypeMetrics,
		Aggregation: agg,
		Business:    business,
	}).Metrics

	res, err := s.draftOutline(ctx, aiReq.BusinessID, businessName(business), aiReq.Prompt, snapshot)
	if err != nil {
		return nil, err
	}

	tpl := &models.ReportTemplate{
		ID:            uuid.NewString(),
		BusinessID:    aiReq.BusinessID,
		Name:          draftTitle(aiReq.Prompt),
		Description:   res.Outline.ExecutiveSummary.Overview,
		ReportType:    models.ReportTypeCombined,
		Visualization: res.Outline.Visualization(),
		Theme:         append([]string(nil), reportdata.DefaultPalette...),
		Orientation:   models.OrientationPortrait,
		AIGenerated:   true,
		AIPrompt:      aiReq.Prompt,
		CreatedAt:     now,
	}
	if err := s.reports.CreateTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	aiReq.TemplateID = tpl.ID

	report := &models.GeneratedReport{
		ID:         uuid.NewString(),
		TemplateID: tpl.ID,
		BusinessID: aiReq.BusinessID,
		Status:     models.StatusPending,
		DateRange:  period,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	report.ReportData.AppendStatus(models.StatusPending, "drafted from ai request "+aiReq.ID, now)
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	aiReq.ReportID = report.ID

	gen, err := s.generate(ctx, biz, models.GenerateReportRequest{
		ReportID:           report.ID,
		BusinessID:         aiReq.BusinessID,
		HandleEmptyMetrics: true,
		ForceRegenerate:    true,
	}, res.Outline.ToExecutiveSummary())
	if err != nil {
		return nil, err
	}

	return &models.AIReportDraftResponse{
		TemplateID: tpl.ID,
		ReportID:   report.ID,
		PageCount:  gen.PageCount,
	}, nil
}

const maxTitleRunes = 80

// draftTitle derives a template name from the first line of the prompt
func draftTitle(prompt string) string {
	title := strings.TrimSpace(strings.SplitN(prompt, "\n", 2)[0])
	if r := []rune(title); len(r) > maxTitleRunes {
		title = strings.TrimSpace(string(r[:maxTitleRunes])) + "..."
	}
	if title == "" {
		return "AI Sustainability Report"
	}
	return title
}

func responseFor(report *models.GeneratedReport) *models.GenerateReportResponse {
	return &models.GenerateReportResponse{
		ReportID:  report.ID,
		Status:    report.Status,
		PDFURL:    report.PDFURL,
		PageCount: report.PageCount,
		Warnings:  report.ReportData.Warnings,
	}
}
