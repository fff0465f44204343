package models

import (
	"fmt"
	"time"
)

// Diagnostics is the report_data bag persisted on a generated report.
// StatusUpdates and Notes are append-only across retries. Warnings describe the latest run.
type Diagnostics struct {
	Error         string         `json:"error,omitempty"`
	ErrorCode     string         `json:"error_code,omitempty"`
	ErrorAt       *time.Time     `json:"error_at,omitempty"`
	RetryCount    int            `json:"retry_count"`
	StatusUpdates []StatusUpdate `json:"status_updates,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
	EmptyMetrics  bool           `json:"empty_metrics,omitempty"`
	MissingPDF    bool           `json:"missing_pdf,omitempty"`
	LastDownload  *DownloadNote  `json:"last_download,omitempty"`
	Notes         []Note         `json:"notes,omitempty"`
}

// StatusUpdate is one timestamped entry of the status log
type StatusUpdate struct {
	Status  ReportStatus `json:"status"`
	Message string       `json:"message"`
	At      time.Time    `json:"at"`
}

// DownloadNote records the outcome of the most recent server-mediated download
type DownloadNote struct {
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Note is a free-text diagnostic entry
type Note struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// AppendStatus adds an entry to the status log
func (d *Diagnostics) AppendStatus(status ReportStatus, message string, at time.Time) {
	d.StatusUpdates = append(d.StatusUpdates, StatusUpdate{
		Status:  status,
		Message: message,
		At:      at.UTC(),
	})
}

// AddWarning appends a warning unless the same text is already present
func (d *Diagnostics) AddWarning(warning string) {
	for _, w := range d.Warnings {
		if w == warning {
			return
		}
	}
	d.Warnings = append(d.Warnings, warning)
}

// AddNote appends a free-text note
func (d *Diagnostics) AddNote(message string, at time.Time) {
	d.Notes = append(d.Notes, Note{Message: message, At: at.UTC()})
}

// RecordFailure stores the error that ended a run
func (d *Diagnostics) RecordFailure(code, message string, at time.Time) {
	at = at.UTC()
	d.Error = message
	d.ErrorCode = code
	d.ErrorAt = &at
	d.AppendStatus(StatusFailed, message, at)
}

// ClearFailure drops the error fields of a previous run. The status log keeps them.
func (d *Diagnostics) ClearFailure() {
	d.Error = ""
	d.ErrorCode = ""
	d.ErrorAt = nil
}

// StartRun opens a generation attempt. Warnings of the previous run are kept as notes.
func (d *Diagnostics) StartRun(at time.Time) {
	for _, w := range d.Warnings {
		d.AddNote("previous run warning: "+w, at)
	}
	d.Warnings = nil
	d.EmptyMetrics = false
	d.MissingPDF = false
	d.ClearFailure()
	d.AppendStatus(StatusProcessing, "generation started", at)
}

// RecordRetry increments the retry counter and logs the manual retry request
func (d *Diagnostics) RecordRetry(at time.Time) {
	d.RetryCount++
	d.AppendStatus(StatusPending, fmt.Sprintf("manual retry #%d requested", d.RetryCount), at)
}
