package testdata

import (
	"fmt"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/brianvoe/gofakeit/v6"
)

// MetricGeneratorConfig configures sample generation parameters
type MetricGeneratorConfig struct {
	BusinessID string
	Count      int
	Category   string    // empty picks across every catalog category
	Since      time.Time // samples are spread between Since and Until
	Until      time.Time
	MinValue   float64
	MaxValue   float64
	Seed       int64 // 0 keeps gofakeit's global source
}

// Catalog lists the metric definitions a sustainability dashboard tracks by default
var Catalog = []models.MetricDefinition{
	{ID: "m-co2", Name: "CO2 Emissions Avoided", Unit: "kg", Category: models.CategoryEnvironmental},
	{ID: "m-water", Name: "Water Saved", Unit: "L", Category: models.CategoryEnvironmental},
	{ID: "m-waste", Name: "Waste Diverted", Unit: "kg", Category: models.CategoryEnvironmental},
	{ID: "m-energy", Name: "Renewable Energy Share", Unit: "%", Category: models.CategoryEnvironmental},
	{ID: "m-volunteer", Name: "Volunteer Hours", Unit: "h", Category: models.CategorySocial},
	{ID: "m-donations", Name: "Community Donations", Unit: "USD", Category: models.CategorySocial},
	{ID: "m-audits", Name: "Supplier Audits", Unit: "count", Category: models.CategoryGovernance},
}

// GenerateSamples returns cfg.Count fake samples joined with catalog definitions
func GenerateSamples(cfg MetricGeneratorConfig) []models.MetricSample {
	faker := gofakeit.New(cfg.Seed)

	if cfg.Until.IsZero() {
		cfg.Until = time.Now().UTC()
	}
	if cfg.Since.IsZero() || !cfg.Since.Before(cfg.Until) {
		cfg.Since = cfg.Until.AddDate(0, -3, 0)
	}
	if cfg.MaxValue <= cfg.MinValue {
		cfg.MinValue, cfg.MaxValue = 1, 500
	}

	defs := definitionsFor(cfg.Category)
	samples := make([]models.MetricSample, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		def := defs[faker.Number(0, len(defs)-1)]
		samples = append(samples, models.MetricSample{
			ID:         faker.UUID(),
			BusinessID: cfg.BusinessID,
			MetricID:   def.ID,
			Value:      faker.Float64Range(cfg.MinValue, cfg.MaxValue),
			RecordedAt: faker.DateRange(cfg.Since, cfg.Until).UTC(),
			Definition: def,
		})
	}
	return samples
}

// Sample builds one deterministic sample, for tests that assert exact figures
func Sample(businessID string, def models.MetricDefinition, value float64, at time.Time) models.MetricSample {
	return models.MetricSample{
		ID:         fmt.Sprintf("%s-%s-%d", businessID, def.ID, at.UnixNano()),
		BusinessID: businessID,
		MetricID:   def.ID,
		Value:      value,
		RecordedAt: at,
		Definition: def,
	}
}

// Business returns fake business metadata
func Business(id string) *models.BusinessMetadata {
	return &models.BusinessMetadata{
		ID:            id,
		Name:          gofakeit.Company(),
		TotalScans:    gofakeit.Number(100, 50000),
		PointsAwarded: gofakeit.Number(1000, 250000),
		ActiveUsers:   gofakeit.Number(10, 5000),
	}
}

func definitionsFor(category string) []models.MetricDefinition {
	if category == "" {
		return Catalog
	}
	var defs []models.MetricDefinition
	for _, d := range Catalog {
		if d.Category == category {
			defs = append(defs, d)
		}
	}
	if len(defs) == 0 {
		return []models.MetricDefinition{{ID: "m-" + category, Name: category + " metric", Unit: "", Category: category}}
	}
	return defs
}
