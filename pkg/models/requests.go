package models

// GenerateReportRequest is the body of the report generation function
type GenerateReportRequest struct {
	ReportID           string              `json:"report_id" validate:"required"`
	BusinessID         string              `json:"business_id" validate:"required"`
	HandleEmptyMetrics bool                `json:"handle_empty_metrics"`
	UseExternalCharts  bool                `json:"use_external_charts"`
	ForceRegenerate    bool                `json:"force_regenerate"`
	Configuration      ReportConfiguration `json:"configuration"`
}

// ReportConfiguration overrides template fields for a single run. Zero values fall back
// to the template.
type ReportConfiguration struct {
	Title         string                `json:"title,omitempty"`
	Description   string                `json:"description,omitempty"`
	Visualization *VisualizationOptions `json:"visualization,omitempty"`
	ColorScheme   []string              `json:"colorScheme,omitempty"`
	DateRange     *DateRange            `json:"date_range,omitempty"`
	Orientation   Orientation           `json:"orientation,omitempty" validate:"omitempty,oneof=portrait landscape"`
	Categories    []string              `json:"categories,omitempty"`
}

// GenerateReportResponse is returned by the generation function
type GenerateReportResponse struct {
	ReportID  string       `json:"report_id"`
	Status    ReportStatus `json:"status"`
	PDFURL    string       `json:"pdf_url,omitempty"`
	PageCount int          `json:"page_count"`
	Warnings  []string     `json:"warnings,omitempty"`
}

// AIReportDraftRequest is the body of the AI drafting function
type AIReportDraftRequest struct {
	RequestID string `json:"requestId" validate:"required"`
	Prompt    string `json:"prompt"`
}

// AIReportDraftResponse is returned by the AI drafting function
type AIReportDraftResponse struct {
	TemplateID string `json:"templateId"`
	ReportID   string `json:"reportId"`
	PageCount  int    `json:"pageCount"`
}

// DownloadReportRequest is the body of the download function
type DownloadReportRequest struct {
	ReportID string `json:"reportId" validate:"required"`
}

// CreateTemplateRequest creates a report template
type CreateTemplateRequest struct {
	Name          string               `json:"name" validate:"required,max=200"`
	Description   string               `json:"description" validate:"max=2000"`
	ReportType    ReportType           `json:"report_type" validate:"required,oneof=metrics sustainability combined"`
	Visualization VisualizationOptions `json:"visualization"`
	Theme         []string             `json:"theme" validate:"dive,hexcolor"`
	Orientation   Orientation          `json:"orientation" validate:"omitempty,oneof=portrait landscape"`
}

// CreateReportRequest inserts a pending report for a template
type CreateReportRequest struct {
	TemplateID string    `json:"template_id" validate:"required"`
	DateRange  DateRange `json:"date_range"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}
