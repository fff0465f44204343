package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/aggregation"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/ai/agents"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/cache"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/logger"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/metrics"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/pdf"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/reportdata"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/storage"
	"github.com/google/uuid"
)

const (
	// DefaultLockTTL bounds how long one generation may hold its report lock
	DefaultLockTTL = 5 * time.Minute
	// DraftLookback is the period covered by reports drafted from an AI request
	DraftLookback = 90 * 24 * time.Hour
	// MaxListLimit caps report listings
	MaxListLimit = 100

	contentTypePDF = "application/pdf"

	warnEmptyMetrics   = "no metrics were recorded for the selected period"
	warnMissingPDF     = "storage returned a public URL that cannot be used for download"
	warnExternalCharts = "external chart rendering is not available; charts are summarized in the document"
	warnNoBusiness     = "business metadata not found; engagement figures are shown as zero"
)

// Outliner drafts an AI outline. *agents.OutlineAgent satisfies it.
type Outliner interface {
	Generate(ctx context.Context, req agents.OutlineRequest) (*agents.OutlineResult, error)
}

// Dependencies wires the collaborators of the report service.
// Outliner, Locker and Metrics are optional.
type Dependencies struct {
	Reports    domain.ReportRepository
	AIRequests domain.AIRequestRepository
	Businesses domain.BusinessRepository
	Aggregator *aggregation.Service
	Outliner   Outliner
	Renderer   *pdf.Renderer
	Storage    domain.ObjectStorage
	Locker     domain.Locker
	Metrics    *metrics.Metrics
	Logger     logger.Logger
	LockTTL    time.Duration
	Now        func() time.Time
}

// Service runs the report lifecycle: pending -> processing -> completed | failed
type Service struct {
	reports    domain.ReportRepository
	aiRequests domain.AIRequestRepository
	businesses domain.BusinessRepository
	aggregator *aggregation.Service
	outliner   Outliner
	renderer   *pdf.Renderer
	objects    domain.ObjectStorage
	locker     domain.Locker
	metrics    *metrics.Metrics
	logger     logger.Logger
	lockTTL    time.Duration
	now        func() time.Time
}

// NewService creates a new report service
func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = pdf.NewRenderer("")
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		reports:    deps.Reports,
		aiRequests: deps.AIRequests,
		businesses: deps.Businesses,
		aggregator: deps.Aggregator,
		outliner:   deps.Outliner,
		renderer:   renderer,
		objects:    deps.Storage,
		locker:     deps.Locker,
		metrics:    deps.Metrics,
		logger:     log.With("component", "report_service"),
		lockTTL:    ttl,
		now:        now,
	}
}

// authorize checks the caller's capability for businessID
func authorize(biz models.BusinessContext, businessID string) error {
	if biz.BusinessID == "" || biz.BusinessID != businessID {
		return domain.NewForbiddenError("report belongs to another business")
	}
	if !biz.CanWrite {
		return domain.NewForbiddenError("caller cannot manage reports of this business")
	}
	return nil
}

// ReportOwner returns the business that owns a report, for access checks made before
// a BusinessContext exists
func (s *Service) ReportOwner(ctx context.Context, reportID string) (string, error) {
	report, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		return "", err
	}
	return report.BusinessID, nil
}

// TemplateOwner returns the business that owns a template
func (s *Service) TemplateOwner(ctx context.Context, templateID string) (string, error) {
	tpl, err := s.reports.GetTemplate(ctx, templateID)
	if err != nil {
		return "", err
	}
	return tpl.BusinessID, nil
}

// AIRequestOwner returns the business that filed an AI drafting request
func (s *Service) AIRequestOwner(ctx context.Context, requestID string) (string, error) {
	req, err := s.aiRequests.GetAIRequest(ctx, requestID)
	if err != nil {
		return "", err
	}
	return req.BusinessID, nil
}

// CreateTemplate stores a new immutable report template
func (s *Service) CreateTemplate(ctx context.Context, biz models.BusinessContext, req models.CreateTemplateRequest) (*models.ReportTemplate, error) {
	if err := authorize(biz, biz.BusinessID); err != nil {
		return nil, err
	}
	if !req.ReportType.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown report type %q", req.ReportType))
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, domain.NewValidationError("template name is required")
	}

	tpl := &models.ReportTemplate{
		ID:            uuid.NewString(),
		BusinessID:    biz.BusinessID,
		Name:          req.Name,
		Description:   req.Description,
		ReportType:    req.ReportType,
		Visualization: req.Visualization,
		Theme:         req.Theme,
		Orientation:   req.Orientation,
		CreatedAt:     s.now(),
	}
	if len(tpl.Theme) == 0 {
		tpl.Theme = append([]string(nil), reportdata.DefaultPalette...)
	}
	if tpl.Orientation == "" {
		tpl.Orientation = models.OrientationPortrait
	}

	if err := s.reports.CreateTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// GetTemplate returns one template of the caller's business
func (s *Service) GetTemplate(ctx context.Context, biz models.BusinessContext, id string) (*models.ReportTemplate, error) {
	tpl, err := s.reports.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(biz, tpl.BusinessID); err != nil {
		return nil, err
	}
	return tpl, nil
}

// CreateReport inserts a pending report for a template
func (s *Service) CreateReport(ctx context.Context, biz models.BusinessContext, req models.CreateReportRequest) (*models.GeneratedReport, error) {
	tpl, err := s.GetTemplate(ctx, biz, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := validateRange(req.DateRange); err != nil {
		return nil, err
	}

	now := s.now()
	report := &models.GeneratedReport{
		ID:         uuid.NewString(),
		TemplateID: tpl.ID,
		BusinessID: tpl.BusinessID,
		Status:     models.StatusPending,
		DateRange:  req.DateRange,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	report.ReportData.AppendStatus(models.StatusPending, "report created", now)

	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// GetReport returns one report of the caller's business
func (s *Service) GetReport(ctx context.Context, biz models.BusinessContext, id string) (*models.GeneratedReport, error) {
	report, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(biz, report.BusinessID); err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports returns the newest reports of the caller's business
func (s *Service) ListReports(ctx context.Context, biz models.BusinessContext, limit int) ([]*models.GeneratedReport, error) {
	if err := authorize(biz, biz.BusinessID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.reports.ListReports(ctx, biz.BusinessID, limit)
}

func validateRange(r models.DateRange) error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return domain.NewValidationError("date range end is before its start")
	}
	return nil
}

// NeedsRetry reports whether a report should be offered a retry: it failed, or it
// completed without pages or without a usable URL.
func NeedsRetry(report *models.GeneratedReport) bool {
	if report == nil {
		return false
	}
	switch report.Status {
	case models.StatusFailed:
		return true
	case models.StatusCompleted:
		return report.PageCount == 0 || !storage.IsValidPublicURL(report.PDFURL)
	}
	return false
}

// Retry moves a report back to pending, records the request in its diagnostics and
// regenerates it. Safe to call repeatedly; every call appends one more entry.
func (s *Service) Retry(ctx context.Context, biz models.BusinessContext, reportID string) (*models.GenerateReportResponse, error) {
	ctx = context.WithoutCancel(ctx)

	report, err := s.GetReport(ctx, biz, reportID)
	if err != nil {
		return nil, err
	}

	report.ReportData.RecordRetry(s.now())
	report.Status = models.StatusPending
	report.UpdatedAt = s.now()
	if err := s.reports.UpdateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to record retry: %w", err)
	}
	s.metrics.RecordRetry()
	s.logger.Info("manual retry requested", "report_id", report.ID, "retry_count", report.ReportData.RetryCount)

	return s.Generate(ctx, biz, models.GenerateReportRequest{
		ReportID:           report.ID,
		BusinessID:         report.BusinessID,
		HandleEmptyMetrics: true,
		ForceRegenerate:    true,
	})
}

// Download fetches the stored PDF through object storage and records the outcome in
// the report's diagnostics. The report status is never changed.
func (s *Service) Download(ctx context.Context, biz models.BusinessContext, reportID string) ([]byte, error) {
	report, err := s.GetReport(ctx, biz, reportID)
	if err != nil {
		return nil, err
	}

	data, err := s.fetch(ctx, report)

	note := models.DownloadNote{Success: err == nil, At: s.now()}
	if err != nil {
		note.Error = err.Error()
	}
	if uerr := s.reports.RecordDownload(context.WithoutCancel(ctx), report.ID, note); uerr != nil {
		s.logger.Warn("failed to record download outcome", "report_id", report.ID, "error", uerr)
	}
	s.metrics.RecordDownload(err == nil)

	if err != nil {
		s.logger.Warn("report download failed", "report_id", report.ID, "error", err)
		return nil, err
	}
	return data, nil
}

func (s *Service) fetch(ctx context.Context, report *models.GeneratedReport) ([]byte, error) {
	if report.Status != models.StatusCompleted {
		return nil, domain.NewBadRequestError(fmt.Sprintf("report is %s, not completed", report.Status))
	}
	path := report.Metadata.StoragePath
	if path == "" {
		p, ok := storage.ObjectPathFromURL(report.PDFURL, storage.ReportsBucket)
		if !ok {
			return nil, domain.NewNotFoundError("report pdf")
		}
		path = p
	}
	if s.objects == nil {
		return nil, domain.NewConfigurationError("object storage is not configured", nil)
	}
	return s.objects.Download(ctx, storage.ReportsBucket, path)
}

// FailStaleReports fails reports stuck in processing for longer than olderThan
// and returns how many were failed.
func (s *Service) FailStaleReports(ctx context.Context, olderThan time.Duration) (int, error) {
	now := s.now()
	stale, err := s.reports.ListStaleReports(ctx, models.StatusProcessing, now.Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale reports: %w", err)
	}

	failed := 0
	for _, report := range stale {
		if s.failStale(ctx, report, olderThan, now) {
			failed++
		}
	}
	s.metrics.RecordStaleFailed(failed)
	return failed, nil
}

// failStale fails one stale report unless a live generation still holds its lock
func (s *Service) failStale(ctx context.Context, report *models.GeneratedReport, olderThan time.Duration, now time.Time) bool {
	log := s.logger.With("report_id", report.ID)

	if s.locker != nil {
		key := cache.ReportLockKey(report.ID)
		ok, err := s.locker.Acquire(ctx, key, s.lockTTL)
		switch {
		case err != nil:
			log.Warn("report lock unavailable, failing stale report without it", "error", err)
		case !ok:
			log.Info("stale report is still being generated, skipping")
			return false
		default:
			defer func() {
				if err := s.locker.Release(ctx, key); err != nil {
					log.Warn("failed to release report lock", "error", err)
				}
			}()
		}
	}

	msg := fmt.Sprintf("generation did not finish within %s", olderThan)
	report.Status = models.StatusFailed
	report.ClearOutput()
	report.ReportData.RecordFailure(domain.ErrCodeInternal, msg, now)
	report.ReportData.AddNote("failed by the stale report sweeper", now)
	report.UpdatedAt = now
	if err := s.reports.UpdateReport(ctx, report); err != nil {
		log.Error("failed to fail stale report", "error", err)
		return false
	}
	return true
}

// rawResponse pulls the verbatim model body out of a malformed-response error
func rawResponse(err error) (string, bool) {
	var de *domain.DomainError
	if !errors.As(err, &de) || de.Code != domain.ErrCodeMalformedResponse {
		return "", false
	}
	raw, ok := de.Details["raw_response"].(string)
	return raw, ok
}

