package domain

import (
	"context"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
)

// MetricRepository reads recorded metric samples
type MetricRepository interface {
	// ListSamples returns samples of businessID recorded inside r, joined with their
	// definitions. An empty categories slice means every category.
	ListSamples(ctx context.Context, businessID string, r models.DateRange, categories []string) ([]models.MetricSample, error)
}

// BusinessRepository reads business metadata
type BusinessRepository interface {
	GetBusiness(ctx context.Context, businessID string) (*models.BusinessMetadata, error)
}

// ReportRepository stores templates and generated reports
type ReportRepository interface {
	CreateTemplate(ctx context.Context, tpl *models.ReportTemplate) error
	GetTemplate(ctx context.Context, id string) (*models.ReportTemplate, error)
	CreateReport(ctx context.Context, report *models.GeneratedReport) error
	GetReport(ctx context.Context, id string) (*models.GeneratedReport, error)
	ListReports(ctx context.Context, businessID string, limit int) ([]*models.GeneratedReport, error)
	// UpdateReport writes status, diagnostics, pdf fields and metadata. Last write wins.
	UpdateReport(ctx context.Context, report *models.GeneratedReport) error
	// RecordDownload sets only the last_download diagnostic of a report
	RecordDownload(ctx context.Context, id string, note models.DownloadNote) error
	ListStaleReports(ctx context.Context, status models.ReportStatus, updatedBefore time.Time) ([]*models.GeneratedReport, error)
}

// AIRequestRepository stores AI drafting requests
type AIRequestRepository interface {
	GetAIRequest(ctx context.Context, id string) (*models.AIReportRequest, error)
	UpdateAIRequest(ctx context.Context, req *models.AIReportRequest) error
}

// AccessChecker is the platform's row-level policy, asked per caller and business
type AccessChecker interface {
	CanManageBusiness(ctx context.Context, userID, businessID string) (bool, error)
}

// ObjectStorage is the bucket contract of the backend platform
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	PublicURL(bucket, path string) string
	Download(ctx context.Context, bucket, path string) ([]byte, error)
}

// Locker guards a key against overlapping holders
type Locker interface {
	// Acquire returns false without error when the key is already held
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
