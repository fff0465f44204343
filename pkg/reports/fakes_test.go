package reports

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/ai/agents"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/storage"
)

// fakeReportRepository is an in-memory domain.ReportRepository
type fakeReportRepository struct {
	mu        sync.Mutex
	templates map[string]models.ReportTemplate
	reports   map[string]models.GeneratedReport
	statuses  []models.ReportStatus
	updateErr error
}

func newFakeReportRepository() *fakeReportRepository {
	return &fakeReportRepository{
		templates: make(map[string]models.ReportTemplate),
		reports:   make(map[string]models.GeneratedReport),
	}
}

func (f *fakeReportRepository) CreateTemplate(ctx context.Context, tpl *models.ReportTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates[tpl.ID] = *tpl
	return nil
}

func (f *fakeReportRepository) GetTemplate(ctx context.Context, id string) (*models.ReportTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tpl, ok := f.templates[id]
	if !ok {
		return nil, domain.NewNotFoundError("report template")
	}
	return &tpl, nil
}

func (f *fakeReportRepository) CreateReport(ctx context.Context, report *models.GeneratedReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[report.ID] = *report
	return nil
}

func (f *fakeReportRepository) GetReport(ctx context.Context, id string) (*models.GeneratedReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil, domain.NewNotFoundError("report")
	}
	return &r, nil
}

func (f *fakeReportRepository) ListReports(ctx context.Context, businessID string, limit int) ([]*models.GeneratedReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.GeneratedReport
	for _, r := range f.reports {
		if r.BusinessID == businessID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReportRepository) UpdateReport(ctx context.Context, report *models.GeneratedReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.reports[report.ID]; !ok {
		return domain.NewNotFoundError("report")
	}
	f.reports[report.ID] = *report
	f.statuses = append(f.statuses, report.Status)
	return nil
}

func (f *fakeReportRepository) RecordDownload(ctx context.Context, id string, note models.DownloadNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return domain.NewNotFoundError("report")
	}
	r.ReportData.LastDownload = &note
	f.reports[id] = r
	return nil
}

func (f *fakeReportRepository) ListStaleReports(ctx context.Context, status models.ReportStatus, updatedBefore time.Time) ([]*models.GeneratedReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.GeneratedReport
	for _, r := range f.reports {
		if r.Status == status && r.UpdatedAt.Before(updatedBefore) {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (f *fakeReportRepository) stored(id string) models.GeneratedReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports[id]
}

// fakeAIRequestRepository is an in-memory domain.AIRequestRepository
type fakeAIRequestRepository struct {
	mu       sync.Mutex
	requests map[string]models.AIReportRequest
}

func (f *fakeAIRequestRepository) GetAIRequest(ctx context.Context, id string) (*models.AIReportRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, domain.NewNotFoundError("ai report request")
	}
	return &r, nil
}

func (f *fakeAIRequestRepository) UpdateAIRequest(ctx context.Context, req *models.AIReportRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[req.ID] = *req
	return nil
}

type fakeMetricRepository struct {
	samples []models.MetricSample
	err     error
}

func (f *fakeMetricRepository) ListSamples(ctx context.Context, businessID string, r models.DateRange, categories []string) ([]models.MetricSample, error) {
	return f.samples, f.err
}

type fakeBusinessRepository struct {
	businesses map[string]*models.BusinessMetadata
}

func (f *fakeBusinessRepository) GetBusiness(ctx context.Context, businessID string) (*models.BusinessMetadata, error) {
	b, ok := f.businesses[businessID]
	if !ok {
		return nil, domain.NewNotFoundError("business")
	}
	return b, nil
}

// fakeStorage is an in-memory domain.ObjectStorage
type fakeStorage struct {
	mu          sync.Mutex
	baseURL     string
	objects     map[string][]byte
	uploads     int
	uploadErr   error
	downloadErr error
	// onDownload runs before the object is read, outside the fake's lock
	onDownload func()
}

func newFakeStorage(baseURL string) *fakeStorage {
	return &fakeStorage{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads++
	f.objects[bucket+"/"+path] = data
	return nil
}

func (f *fakeStorage) PublicURL(bucket, path string) string {
	return storage.PublicURL(f.baseURL, bucket, path)
}

func (f *fakeStorage) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	if hook := f.onDownload; hook != nil {
		f.onDownload = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data, ok := f.objects[bucket+"/"+path]
	if !ok {
		return nil, domain.NewNotFoundError("object")
	}
	return data, nil
}

func (f *fakeStorage) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

// fakeOutliner returns a fixed outline or error
type fakeOutliner struct {
	result *agents.OutlineResult
	err    error
	calls  int
}

func (f *fakeOutliner) Generate(ctx context.Context, req agents.OutlineRequest) (*agents.OutlineResult, error) {
	f.calls++
	return f.result, f.err
}

// fakeLocker is an in-memory domain.Locker
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLocker) Release(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
	return nil
}
