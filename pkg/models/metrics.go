package models

import "time"

// Well-known metric categories
const (
	CategoryEnvironmental = "environmental"
	CategorySocial        = "social"
	CategoryGovernance    = "governance"
)

// MetricDefinition names what a sample measures
type MetricDefinition struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

// MetricSample is one recorded value for a business. Read-only input to aggregation.
type MetricSample struct {
	ID         string           `json:"id"`
	BusinessID string           `json:"business_id"`
	MetricID   string           `json:"metric_id"`
	Value      float64          `json:"value"`
	RecordedAt time.Time        `json:"recorded_at"`
	Definition MetricDefinition `json:"definition"`
}

// BusinessMetadata carries the engagement figures shown in a report summary
type BusinessMetadata struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TotalScans    int    `json:"total_scans"`
	PointsAwarded int    `json:"points_awarded"`
	ActiveUsers   int    `json:"active_users"`
}

// BusinessContext is the explicit caller scope passed into every report operation.
// CanWrite is the result of the platform's access policy for this caller and business.
type BusinessContext struct {
	UserID     string
	BusinessID string
	CanWrite   bool
}
