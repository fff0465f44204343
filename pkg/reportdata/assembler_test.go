package reportdata

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/aggregation"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/testdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	co2   = testdata.Catalog[0]
	water = testdata.Catalog[1]
	hours = testdata.Catalog[4]
)

func allFlagCombinations() []models.VisualizationOptions {
	var out []models.VisualizationOptions
	for mask := 0; mask < 1<<5; mask++ {
		out = append(out, models.VisualizationOptions{
			ShowBarCharts:    mask&1 != 0,
			ShowPieCharts:    mask&2 != 0,
			ShowTables:       mask&4 != 0,
			ShowTimeline:     mask&8 != 0,
			ShowInfographics: mask&16 != 0,
		})
	}
	return out
}

func TestAssemble_EmptyAggregationIsZeroValued(t *testing.T) {
	types := []models.ReportType{models.ReportTypeMetrics, models.ReportTypeSustainability, models.ReportTypeCombined}

	for _, typ := range types {
		for _, vis := range allFlagCombinations() {
			name := fmt.Sprintf("%s/%+v", typ, vis)
			t.Run(name, func(t *testing.T) {
				doc := Assemble(Input{
					Type:          typ,
					Visualization: vis,
					Aggregation:   aggregation.Summarize(nil),
				})

				require.NotNil(t, doc)
				require.NotNil(t, doc.ExecutiveSummary)
				assert.Contains(t, doc.ExecutiveSummary.KeyInsights, "Most recent update: No data yet")
				for key, v := range doc.Metrics {
					assert.Zero(t, v, key)
				}
				assert.Contains(t, doc.Metrics, MetricEnvironmentalCount)
				assert.Contains(t, doc.Metrics, MetricAverageEnvironmental)
				for _, chart := range doc.Charts {
					for _, p := range chart.Data {
						assert.Zero(t, p.Value)
					}
				}
				if vis.ShowTables {
					require.Contains(t, doc.Tables, TableMonthlyMetrics)
					assert.Empty(t, doc.Tables[TableMonthlyMetrics].Rows)
				}
			})
		}
	}
}

func TestAssemble_NilInputsAreSafe(t *testing.T) {
	doc := Assemble(Input{Type: models.ReportTypeCombined})

	require.NotNil(t, doc)
	assert.Equal(t, 0.0, doc.Metrics[MetricTotalScans])
	assert.NotNil(t, doc.ExecutiveSummary)
}

func TestPaletteColor_Cycles(t *testing.T) {
	palette := DefaultPalette
	for i := 0; i < 3*len(palette)+2; i++ {
		assert.Equal(t, palette[i%len(palette)], PaletteColor(palette, i), "index %d", i)
	}

	custom := []string{"#000000", "#FFFFFF"}
	assert.Equal(t, "#000000", PaletteColor(custom, 4))
	assert.Equal(t, "#FFFFFF", PaletteColor(custom, 5))
	assert.Equal(t, DefaultPalette[2], PaletteColor(nil, 2))
	assert.Len(t, DefaultPalette, 7)
}

func TestAssemble_BarChartColorsWrapAround(t *testing.T) {
	now := time.Now().UTC()
	var samples []models.MetricSample
	for i := 0; i < 9; i++ {
		def := models.MetricDefinition{ID: fmt.Sprintf("m%d", i), Name: fmt.Sprintf("Metric %d", i), Category: models.CategoryEnvironmental}
		samples = append(samples, testdata.Sample("b1", def, float64(i), now.Add(-time.Duration(i)*time.Hour)))
	}

	doc := Assemble(Input{
		Type:          models.ReportTypeMetrics,
		Visualization: models.VisualizationOptions{ShowBarCharts: true},
		Aggregation:   aggregation.Summarize(samples),
	})

	bars := doc.Charts[ChartMonthlyMetrics].Data
	require.Len(t, bars, 9)
	for i, p := range bars {
		assert.Equal(t, DefaultPalette[i%7], p.Color)
	}
}

func TestAssemble_SectionGating(t *testing.T) {
	now := time.Now().UTC()
	agg := aggregation.Summarize([]models.MetricSample{testdata.Sample("b1", co2, 5, now)})

	doc := Assemble(Input{
		Type: models.ReportTypeCombined,
		Visualization: models.VisualizationOptions{
			ShowBarCharts: false,
			ShowPieCharts: false,
			ShowTables:    false,
			ShowTimeline:  false,
		},
		Aggregation: agg,
	})

	assert.Empty(t, doc.Charts)
	assert.Nil(t, doc.Tables)
	assert.NotEmpty(t, doc.Metrics)
	assert.NotNil(t, doc.ExecutiveSummary)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "tables")
	assert.Contains(t, decoded, "metrics")
	assert.Contains(t, decoded, "executive_summary")
}

func TestAssemble_CombinedWithBarsAndTables(t *testing.T) {
	now := time.Now().UTC()
	agg := aggregation.Summarize([]models.MetricSample{testdata.Sample("b1", co2, 42, now)})

	doc := Assemble(Input{
		Type:          models.ReportTypeCombined,
		Visualization: models.VisualizationOptions{ShowBarCharts: true, ShowTables: true},
		Aggregation:   agg,
		Business:      &models.BusinessMetadata{TotalScans: 120, ActiveUsers: 14},
	})

	assert.Equal(t, 1.0, doc.Metrics[MetricEnvironmentalCount])
	assert.Equal(t, 42.0, doc.Metrics[MetricAverageEnvironmental])

	bar, ok := doc.Charts[ChartMonthlyMetrics]
	require.True(t, ok)
	assert.Equal(t, ChartBar, bar.Type)
	require.Len(t, bar.Data, 1)
	assert.Equal(t, DefaultPalette[0], bar.Data[0].Color)
	assert.Equal(t, 42.0, bar.Data[0].Value)

	require.Contains(t, doc.Tables, TableMonthlyMetrics)
	rows := doc.Tables[TableMonthlyMetrics].Rows
	require.Len(t, rows, 1)
	assert.Equal(t, []string{co2.Name, "42", "kg", "Environmental", now.Format("2006-01-02")}, rows[0])

	assert.Nil(t, doc.Sustainability, "combined reports without timeline or infographics carry no sustainability block")
	assert.Contains(t, doc.ExecutiveSummary.KeyInsights, "Total product scans: 120")
	assert.Contains(t, doc.ExecutiveSummary.KeyInsights, "Active users: 14")
}

func TestAssemble_ImpactThreshold(t *testing.T) {
	now := time.Now().UTC()
	build := func(n int) *Document {
		var samples []models.MetricSample
		for i := 0; i < n; i++ {
			samples = append(samples, testdata.Sample("b1", water, 1, now.Add(-time.Duration(i)*time.Minute)))
		}
		return Assemble(Input{Type: models.ReportTypeSustainability, Aggregation: aggregation.Summarize(samples)})
	}

	assert.Equal(t, ImpactMedium, build(HighImpactThreshold).Sustainability.EnvironmentalImpact)
	assert.Equal(t, ImpactHigh, build(HighImpactThreshold+1).Sustainability.EnvironmentalImpact)
	assert.Equal(t, ImpactMedium, build(0).Sustainability.EnvironmentalImpact)
}

func TestAssemble_TimelineKeepsSixNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var samples []models.MetricSample
	for i := 0; i < 9; i++ {
		samples = append(samples, testdata.Sample("b1", co2, float64(i), base.AddDate(0, 0, i)))
	}
	samples = append(samples, testdata.Sample("b1", hours, 100, base.AddDate(0, 1, 0)))

	doc := Assemble(Input{
		Type:          models.ReportTypeSustainability,
		Visualization: models.VisualizationOptions{ShowTimeline: true},
		Aggregation:   aggregation.Summarize(samples),
	})

	trend := doc.Charts[ChartEnvironmentalTrend]
	require.Len(t, trend.Data, TimelineLimit)
	assert.Equal(t, ChartLine, trend.Type)
	assert.Equal(t, 8.0, trend.Data[0].Value)
	assert.Equal(t, 3.0, trend.Data[5].Value)
	assert.Equal(t, "2026-01-09", trend.Data[0].Label)
}

func TestAssemble_PieChartHasOneSlicePerCategory(t *testing.T) {
	now := time.Now().UTC()
	agg := aggregation.Summarize([]models.MetricSample{
		testdata.Sample("b1", co2, 1, now),
		testdata.Sample("b1", water, 1, now.Add(-time.Minute)),
		testdata.Sample("b1", hours, 1, now.Add(-2*time.Minute)),
	})

	doc := Assemble(Input{
		Type:          models.ReportTypeMetrics,
		Visualization: models.VisualizationOptions{ShowPieCharts: true},
		Aggregation:   agg,
		Palette:       []string{"#111111"},
	})

	pie := doc.Charts[ChartCategoryDistribution]
	require.Len(t, pie.Data, 2)
	assert.Equal(t, "Environmental", pie.Data[0].Label)
	assert.Equal(t, 2.0, pie.Data[0].Value)
	assert.Equal(t, "Social", pie.Data[1].Label)
	assert.Equal(t, "#111111", pie.Data[1].Color)
	assert.Equal(t, 1.0, doc.Metrics["average_social_value"])
}

func TestAssemble_HandleEmptyMetricsAddsInsight(t *testing.T) {
	doc := Assemble(Input{Type: models.ReportTypeMetrics, Aggregation: aggregation.Summarize(nil), HandleEmptyMetrics: true})

	assert.Len(t, doc.ExecutiveSummary.KeyInsights, 5)
}

func TestApplyOutline_ReplacesOnlySummary(t *testing.T) {
	now := time.Now().UTC()
	doc := Assemble(Input{
		Type:          models.ReportTypeCombined,
		Visualization: models.VisualizationOptions{ShowTables: true},
		Aggregation:   aggregation.Summarize([]models.MetricSample{testdata.Sample("b1", co2, 3, now)}),
	})
	summary := &ExecutiveSummary{KeyInsights: []string{"Drafted"}, PerformanceHighlights: "Great year"}

	ApplyOutline(doc, summary)

	assert.Same(t, summary, doc.ExecutiveSummary)
	assert.Equal(t, 3.0, doc.Metrics[MetricAverageEnvironmental])
	assert.Len(t, doc.Tables[TableMonthlyMetrics].Rows, 1)

	assert.Equal(t, []string{SectionExecutiveSummary, SectionMetrics, SectionTables}, doc.Sections())
}
