package aggregation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
)

// Result is the grouped view of a business's samples over a date range.
// An empty Result is valid input for the report assembler.
type Result struct {
	BusinessID       string                           `json:"business_id"`
	Range            models.DateRange                 `json:"range"`
	Samples          []models.MetricSample            `json:"samples"`
	ByCategory       map[string][]models.MetricSample `json:"by_category"`
	Averages         map[string]float64               `json:"averages"`
	Totals           map[string]float64               `json:"totals"`
	Distribution     map[string]int                   `json:"distribution"`
	LatestRecordedAt *time.Time                       `json:"latest_recorded_at,omitempty"`
}

// IsEmpty reports whether no sample was aggregated
func (r *Result) IsEmpty() bool {
	return r == nil || len(r.Samples) == 0
}

// Category returns the samples of one category, newest first. Never nil.
func (r *Result) Category(name string) []models.MetricSample {
	if r == nil || r.ByCategory[name] == nil {
		return []models.MetricSample{}
	}
	return r.ByCategory[name]
}

// Average returns the mean of one category, 0 when the category has no samples
func (r *Result) Average(name string) float64 {
	if r == nil {
		return 0
	}
	return r.Averages[name]
}

// Categories returns category names in lexical order
func (r *Result) Categories() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.ByCategory))
	for name := range r.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summarize groups samples by their definition's category and derives per-category
// figures. Samples are not mutated; the result holds a newest-first copy.
func Summarize(samples []models.MetricSample) *Result {
	sorted := make([]models.MetricSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordedAt.After(sorted[j].RecordedAt)
	})

	res := &Result{
		Samples:      sorted,
		ByCategory:   make(map[string][]models.MetricSample),
		Averages:     make(map[string]float64),
		Totals:       make(map[string]float64),
		Distribution: make(map[string]int),
	}

	for _, s := range sorted {
		cat := s.Definition.Category
		res.ByCategory[cat] = append(res.ByCategory[cat], s)
		res.Totals[cat] += s.Value
	}

	for cat, list := range res.ByCategory {
		res.Distribution[cat] = len(list)
		if len(list) > 0 {
			res.Averages[cat] = res.Totals[cat] / float64(len(list))
		}
	}

	if len(sorted) > 0 {
		latest := sorted[0].RecordedAt
		res.LatestRecordedAt = &latest
	}

	return res
}

// Service aggregates metric samples read from the backend
type Service struct {
	metrics domain.MetricRepository
}

// NewService creates a new aggregation service
func NewService(metrics domain.MetricRepository) *Service {
	return &Service{metrics: metrics}
}

// Aggregate reads and summarizes the samples of biz.BusinessID recorded inside r
func (s *Service) Aggregate(ctx context.Context, biz models.BusinessContext, r models.DateRange, categories []string) (*Result, error) {
	if biz.BusinessID == "" {
		return nil, domain.NewValidationError("business id is required")
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return nil, domain.NewValidationError("date range end is before start")
	}

	samples, err := s.metrics.ListSamples(ctx, biz.BusinessID, r, categories)
	if err != nil {
		return nil, fmt.Errorf("failed to list metric samples: %w", err)
	}

	res := Summarize(samples)
	res.BusinessID = biz.BusinessID
	res.Range = r
	return res, nil
}
