package models

import (
	"time"
)

// ReportType selects which sections a report carries
type ReportType string

const (
	ReportTypeMetrics        ReportType = "metrics"
	ReportTypeSustainability ReportType = "sustainability"
	ReportTypeCombined       ReportType = "combined"
)

// Valid reports whether t is a known report type
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeMetrics, ReportTypeSustainability, ReportTypeCombined:
		return true
	}
	return false
}

// ReportStatus is the lifecycle state of a generated report
type ReportStatus string

const (
	StatusPending    ReportStatus = "pending"
	StatusProcessing ReportStatus = "processing"
	StatusCompleted  ReportStatus = "completed"
	StatusFailed     ReportStatus = "failed"
)

// Orientation of every page in a rendered report
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// VisualizationOptions is the named-flag bag a template carries
type VisualizationOptions struct {
	ShowBarCharts    bool `json:"showBarCharts"`
	ShowLineCharts   bool `json:"showLineCharts"`
	ShowPieCharts    bool `json:"showPieCharts"`
	ShowTables       bool `json:"showTables"`
	ShowTimeline     bool `json:"showTimeline"`
	ShowWaterfall    bool `json:"showWaterfall"`
	ShowHeatmaps     bool `json:"showHeatmaps"`
	ShowInfographics bool `json:"showInfographics"`
}

// DateRange is an inclusive [Start, End] interval
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether neither bound is set
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// ReportTemplate is a reusable report definition. Immutable once created.
type ReportTemplate struct {
	ID            string               `json:"id"`
	BusinessID    string               `json:"business_id"`
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	ReportType    ReportType           `json:"report_type"`
	Visualization VisualizationOptions `json:"visualization"`
	Theme         []string             `json:"theme"`
	Orientation   Orientation          `json:"orientation"`
	AIGenerated   bool                 `json:"ai_generated"`
	AIPrompt      string               `json:"ai_prompt,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// GeneratedReport is one run of a template over a date range
type GeneratedReport struct {
	ID         string         `json:"id"`
	TemplateID string         `json:"template_id"`
	BusinessID string         `json:"business_id"`
	Status     ReportStatus   `json:"status"`
	DateRange  DateRange      `json:"date_range"`
	ReportData Diagnostics    `json:"report_data"`
	PDFURL     string         `json:"pdf_url,omitempty"`
	FileSize   int64          `json:"file_size"`
	PageCount  int            `json:"page_count"`
	Metadata   ReportMetadata `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ClearOutput drops the artifact fields of a previous run so only a completed
// report carries a pdf_url
func (r *GeneratedReport) ClearOutput() {
	r.PDFURL = ""
	r.FileSize = 0
	r.PageCount = 0
	r.Metadata.StoragePath = ""
	r.Metadata.GeneratedAt = nil
}

// ReportMetadata describes the stored artifact of a completed run
type ReportMetadata struct {
	StoragePath string     `json:"storage_path,omitempty"`
	Title       string     `json:"title,omitempty"`
	Sections    []string   `json:"sections,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	AIOutline   bool       `json:"ai_outline,omitempty"`
}

// AIReportRequest is a pending prompt from the dashboard's AI drafting form
type AIReportRequest struct {
	ID         string       `json:"id"`
	BusinessID string       `json:"business_id"`
	Prompt     string       `json:"prompt"`
	Status     ReportStatus `json:"status"`
	TemplateID string       `json:"template_id,omitempty"`
	ReportID   string       `json:"report_id,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
