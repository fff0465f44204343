package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/reports"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/storage"
)

// DefaultPollInterval is the spacing between WaitForReport status reads
const DefaultPollInterval = 2 * time.Second

// ErrDownloadUnavailable is returned when neither the download function nor the
// report's stored URL could produce the PDF
var ErrDownloadUnavailable = errors.New("report pdf is not available for download")

// APIError is a non-2xx answer of the report API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("report api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("report api: %d %s", e.Status, e.Code)
}

// Client calls the report API on behalf of a dashboard user
type Client struct {
	baseURL      string
	token        string
	http         *http.Client
	pollInterval time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPollInterval sets the WaitForReport interval
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// New creates a client for the API rooted at baseURL (for example
// https://api.greenledger.io/api/v1) authenticating with a bearer token
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 2 * time.Minute,
		},
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate runs the generation function for one report
func (c *Client) Generate(ctx context.Context, req models.GenerateReportRequest) (*models.GenerateReportResponse, error) {
	var resp models.GenerateReportResponse
	if err := c.do(ctx, http.MethodPost, "/functions/generate-report", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetReport reads a report with its diagnostics
func (c *Client) GetReport(ctx context.Context, reportID string) (*models.GeneratedReport, error) {
	var report models.GeneratedReport
	if err := c.do(ctx, http.MethodGet, "/reports/"+url.PathEscape(reportID), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Retry regenerates a report. The server records the attempt before running it.
func (c *Client) Retry(ctx context.Context, reportID string) (*models.GenerateReportResponse, error) {
	var resp models.GenerateReportResponse
	if err := c.do(ctx, http.MethodPost, "/reports/"+url.PathEscape(reportID)+"/retry", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NeedsRetry reports whether the dashboard should offer a retry for report
func NeedsRetry(report *models.GeneratedReport) bool {
	return reports.NeedsRetry(report)
}

// WaitForReport polls the report at a fixed interval until it is completed or failed,
// or ctx ends
func (c *Client) WaitForReport(ctx context.Context, reportID string) (*models.GeneratedReport, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		report, err := c.GetReport(ctx, reportID)
		if err != nil {
			return nil, err
		}
		if report.Status == models.StatusCompleted || report.Status == models.StatusFailed {
			return report, nil
		}

		select {
		case <-ctx.Done():
			return report, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Download returns the report's PDF. The download function is tried first; if it fails
// the stored pdf_url is fetched directly, but only when it is a trusted public URL.
func (c *Client) Download(ctx context.Context, reportID string) ([]byte, error) {
	data, fnErr := c.downloadFunction(ctx, reportID)
	if fnErr == nil {
		return data, nil
	}

	report, err := c.GetReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadUnavailable, fnErr)
	}
	if report.Status != models.StatusCompleted || !storage.IsValidPublicURL(report.PDFURL) {
		return nil, fmt.Errorf("%w: %v", ErrDownloadUnavailable, fnErr)
	}

	data, err = c.fetch(ctx, report.PDFURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadUnavailable, err)
	}
	return data, nil
}

func (c *Client) downloadFunction(ctx context.Context, reportID string) ([]byte, error) {
	body, err := json.Marshal(models.DownloadReportRequest{ReportID: reportID})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/functions/download-report", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/pdf") {
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}
	return io.ReadAll(resp.Body)
}

// fetch reads a public object URL without credentials
func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body models.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	}
	if apiErr.Code == "" {
		apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
	}
	return apiErr
}
