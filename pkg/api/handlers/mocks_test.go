package handlers

import (
	"context"
	"errors"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/reportdata"
)

var errNotMocked = errors.New("not mocked")

// mockReportService implements ReportService with overridable functions
type mockReportService struct {
	ReportOwnerFunc    func(ctx context.Context, reportID string) (string, error)
	TemplateOwnerFunc  func(ctx context.Context, templateID string) (string, error)
	AIRequestOwnerFunc func(ctx context.Context, requestID string) (string, error)
	CreateTemplateFunc func(ctx context.Context, biz models.BusinessContext, req models.CreateTemplateRequest) (*models.ReportTemplate, error)
	GetTemplateFunc    func(ctx context.Context, biz models.BusinessContext, id string) (*models.ReportTemplate, error)
	CreateReportFunc   func(ctx context.Context, biz models.BusinessContext, req models.CreateReportRequest) (*models.GeneratedReport, error)
	GetReportFunc      func(ctx context.Context, biz models.BusinessContext, id string) (*models.GeneratedReport, error)
	ListReportsFunc    func(ctx context.Context, biz models.BusinessContext, limit int) ([]*models.GeneratedReport, error)
	GenerateFunc       func(ctx context.Context, biz models.BusinessContext, req models.GenerateReportRequest) (*models.GenerateReportResponse, error)
	PreviewFunc        func(ctx context.Context, biz models.BusinessContext, req models.GenerateReportRequest) (*reportdata.Document, error)
	DraftWithAIFunc    func(ctx context.Context, biz models.BusinessContext, req models.AIReportDraftRequest) (*models.AIReportDraftResponse, error)
	RetryFunc          func(ctx context.Context, biz models.BusinessContext, reportID string) (*models.GenerateReportResponse, error)
	DownloadFunc       func(ctx context.Context, biz models.BusinessContext, reportID string) ([]byte, error)
}

func (m *mockReportService) ReportOwner(ctx context.Context, reportID string) (string, error) {
	if m.ReportOwnerFunc != nil {
		return m.ReportOwnerFunc(ctx, reportID)
	}
	return "", errNotMocked
}

func (m *mockReportService) TemplateOwner(ctx context.Context, templateID string) (string, error) {
	if m.TemplateOwnerFunc != nil {
		return m.TemplateOwnerFunc(ctx, templateID)
	}
	return "", errNotMocked
}

func (m *mockReportService) AIRequestOwner(ctx context.Context, requestID string) (string, error) {
	if m.AIRequestOwnerFunc != nil {
		return m.AIRequestOwnerFunc(ctx, requestID)
	}
	return "", errNotMocked
}

func (m *mockReportService) CreateTemplate(ctx context.Context, biz models.BusinessContext, req models.CreateTemplateRequest) (*models.ReportTemplate, error) {
	if m.CreateTemplateFunc != nil {
		return m.CreateTemplateFunc(ctx, biz, req)
	}
	return nil, errNotMocked
}

func (m *mockReportService) GetTemplate(ctx context.Context, biz models.BusinessContext, id string) (*models.ReportTemplate, error) {
	if m.GetTemplateFunc != nil {
		return m.GetTemplateFunc(ctx, biz, id)
	}
	return nil, errNotMocked
}

func (m *mockReportService) CreateReport(ctx context.Context, biz models.BusinessContext, req models.CreateReportRequest) (*models.GeneratedReport, error) {
	if m.CreateReportFunc != nil {
		return m.CreateReportFunc(ctx, biz, req)
	}
	return nil, errNotMocked
}

func (m *mockReportService) GetReport(ctx context.Context, biz models.BusinessContext, id string) (*models.GeneratedReport, error) {
	if m.GetReportFunc != nil {
		return m.GetReportFunc(ctx, biz, id)
	}
	return nil, errNotMocked
}

func (m *mockReportService) ListReports(ctx context.Context, biz models.BusinessContext, limit int) ([]*models.GeneratedReport, error) {
	if m.ListReportsFunc != nil {
		return m.ListReportsFunc(ctx, biz, limit)
	}
	return nil, errNotMocked
}

func (m *mockReportService) Generate(ctx context.Context, biz models.BusinessContext, req models.GenerateReportRequest) (*models.GenerateReportResponse, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, biz, req)
	}
	return nil, errNotMocked
}

func (m *mockReportService) Preview(ctx context.Context, biz models.BusinessContext, req models.GenerateReportRequest) (*reportdata.Document, error) {
	if m.PreviewFunc != nil {
		return m.PreviewFunc(ctx, biz, req)
	}
	return nil, errNotMocked
}

func (m *mockReportService) DraftWithAI(ctx context.Context, biz models.BusinessContext, req models.AIReportDraftRequest) (*models.AIReportDraftResponse, error) {
	if m.DraftWithAIFunc != nil {
		return m.DraftWithAIFunc(ctx, biz, req)
	}
	return nil, errNotMocked
}

func (m *mockReportService) Retry(ctx context.Context, biz models.BusinessContext, reportID string) (*models.GenerateReportResponse, error) {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, biz, reportID)
	}
	return nil, errNotMocked
}

func (m *mockReportService) Download(ctx context.Context, biz models.BusinessContext, reportID string) ([]byte, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, biz, reportID)
	}
	return nil, errNotMocked
}

// mockAccess grants access to the businesses in members
type mockAccess struct {
	members map[string]string // userID -> businessID
	err     error
}

var _ domain.AccessChecker = (*mockAccess)(nil)

func (m *mockAccess) CanManageBusiness(ctx context.Context, userID, businessID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.members[userID] == businessID, nil
}

type mockExporter struct {
	MetricsWorkbookFunc func(ctx context.Context, biz models.BusinessContext, r models.DateRange, categories []string) ([]byte, error)
}

func (m *mockExporter) MetricsWorkbook(ctx context.Context, biz models.BusinessContext, r models.DateRange, categories []string) ([]byte, error) {
	return m.MetricsWorkbookFunc(ctx, biz, r, categories)
}

type mockPinger struct {
	err error
}

func (m mockPinger) Ping(ctx context.Context) error {
	return m.err
}
