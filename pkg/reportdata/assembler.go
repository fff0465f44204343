package reportdata

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/aggregation"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Metric keys always present in Document.Metrics
const (
	MetricEnvironmentalCount   = "environmental_metrics_count"
	MetricAverageEnvironmental = "average_environmental_value"
	MetricTotalEnvironmental   = "total_environmental_value"
	MetricTotalScans           = "total_scans"
	MetricPointsAwarded        = "points_awarded"
	MetricActiveUsers          = "active_users"
)

const (
	// HighImpactThreshold is the environmental sample count above which impact is "High"
	HighImpactThreshold = 5
	// TimelineLimit caps the environmental trend series
	TimelineLimit = 6

	ImpactHigh   = "High"
	ImpactMedium = "Medium"

	noDataYet  = "No data yet"
	dateLayout = "2006-01-02"
)

// Input is everything the assembler needs for one report
type Input struct {
	Type               models.ReportType
	Visualization      models.VisualizationOptions
	Aggregation        *aggregation.Result
	Business           *models.BusinessMetadata
	Palette            []string
	HandleEmptyMetrics bool
}

// Assemble builds the report document. It never fails: an empty aggregation yields a
// structurally complete document valued at zero.
func Assemble(in Input) *Document {
	agg := in.Aggregation
	if agg == nil {
		agg = aggregation.Summarize(nil)
	}
	biz := in.Business
	if biz == nil {
		biz = &models.BusinessMetadata{}
	}
	palette := in.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	env := agg.Category(models.CategoryEnvironmental)
	doc := &Document{
		Metrics: baseMetrics(agg, biz),
		Charts:  make(map[string]Chart),
	}

	if in.Type == models.ReportTypeMetrics || in.Type == models.ReportTypeCombined {
		for _, cat := range agg.Categories() {
			doc.Metrics[fmt.Sprintf("average_%s_value", cat)] = agg.Average(cat)
		}
		if in.Visualization.ShowBarCharts {
			doc.Charts[ChartMonthlyMetrics] = barChart(agg, palette)
		}
		if in.Visualization.ShowPieCharts {
			doc.Charts[ChartCategoryDistribution] = pieChart(agg, palette)
		}
	}

	if wantsSustainability(in) {
		doc.Sustainability = sustainability(env, agg)
		if in.Visualization.ShowTimeline {
			doc.Charts[ChartEnvironmentalTrend] = timelineChart(env, palette)
		}
	}

	if in.Visualization.ShowTables {
		doc.Tables = map[string]Table{TableMonthlyMetrics: metricsTable(env)}
	}

	doc.ExecutiveSummary = executiveSummary(env, agg, biz, in.HandleEmptyMetrics)
	return doc
}

// ApplyOutline replaces the executive summary with an externally drafted one.
// Metrics, charts and tables are left untouched.
func ApplyOutline(doc *Document, summary *ExecutiveSummary) {
	if doc == nil || summary == nil {
		return
	}
	doc.ExecutiveSummary = summary
}

// sustainability is always on for the sustainability type; combined reports carry it
// only when a sustainability-oriented visualization is requested.
func wantsSustainability(in Input) bool {
	switch in.Type {
	case models.ReportTypeSustainability:
		return true
	case models.ReportTypeCombined:
		return in.Visualization.ShowTimeline || in.Visualization.ShowInfographics
	}
	return false
}

func baseMetrics(agg *aggregation.Result, biz *models.BusinessMetadata) map[string]float64 {
	env := agg.Category(models.CategoryEnvironmental)
	return map[string]float64{
		MetricEnvironmentalCount:   float64(len(env)),
		MetricAverageEnvironmental: agg.Average(models.CategoryEnvironmental),
		MetricTotalEnvironmental:   agg.Totals[models.CategoryEnvironmental],
		MetricTotalScans:           float64(biz.TotalScans),
		MetricPointsAwarded:        float64(biz.PointsAwarded),
		MetricActiveUsers:          float64(biz.ActiveUsers),
	}
}

// barChart has one bar per metric definition, valued at the mean of its samples
func barChart(agg *aggregation.Result, palette []string) Chart {
	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[string]*bucket)
	for _, s := range agg.Samples {
		b, ok := buckets[s.Definition.Name]
		if !ok {
			b = &bucket{}
			buckets[s.Definition.Name] = b
		}
		b.sum += s.Value
		b.count++
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make([]DataPoint, 0, len(names))
	for i, name := range names {
		b := buckets[name]
		data = append(data, DataPoint{
			Label: name,
			Value: b.sum / float64(b.count),
			Color: PaletteColor(palette, i),
		})
	}
	return Chart{Type: ChartBar, Title: "Metrics Overview", Data: data}
}

func pieChart(agg *aggregation.Result, palette []string) Chart {
	cats := agg.Categories()
	data := make([]DataPoint, 0, len(cats))
	for i, cat := range cats {
		data = append(data, DataPoint{
			Label: titleCase(cat),
			Value: float64(agg.Distribution[cat]),
			Color: PaletteColor(palette, i),
		})
	}
	return Chart{Type: ChartPie, Title: "Metrics by Category", Data: data}
}

// timelineChart takes env newest-first and keeps that order
func timelineChart(env []models.MetricSample, palette []string) Chart {
	recent := make([]models.MetricSample, len(env))
	copy(recent, env)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].RecordedAt.After(recent[j].RecordedAt)
	})
	if len(recent) > TimelineLimit {
		recent = recent[:TimelineLimit]
	}

	data := make([]DataPoint, 0, len(recent))
	for i, s := range recent {
		data = append(data, DataPoint{
			Label: s.RecordedAt.Format(dateLayout),
			Value: s.Value,
			Color: PaletteColor(palette, i),
		})
	}
	return Chart{Type: ChartLine, Title: "Environmental Trend", Data: data}
}

func sustainability(env []models.MetricSample, agg *aggregation.Result) *Sustainability {
	impact := ImpactMedium
	if len(env) > HighImpactThreshold {
		impact = ImpactHigh
	}

	achievements := []string{
		fmt.Sprintf("Tracked %d environmental metric records", len(env)),
		fmt.Sprintf("Recorded a total environmental value of %s", formatNumber(agg.Totals[models.CategoryEnvironmental])),
	}
	if n := agg.Distribution[models.CategorySocial]; n > 0 {
		achievements = append(achievements, fmt.Sprintf("Logged %d social impact records", n))
	}

	recommendations := []string{
		"Increase the frequency of environmental metric tracking",
		"Set measurable reduction targets for each tracked metric",
	}
	if impact == ImpactMedium {
		recommendations = append(recommendations, "Expand coverage to additional environmental indicators")
	} else {
		recommendations = append(recommendations, "Publish progress against targets to customers")
	}

	return &Sustainability{
		EnvironmentalImpact: impact,
		Recommendations:     recommendations,
		Achievements:        achievements,
	}
}

func metricsTable(env []models.MetricSample) Table {
	rows := make([][]string, 0, len(env))
	for _, s := range env {
		rows = append(rows, []string{
			s.Definition.Name,
			formatNumber(s.Value),
			s.Definition.Unit,
			titleCase(s.Definition.Category),
			s.RecordedAt.Format(dateLayout),
		})
	}
	return Table{
		Title:   "Environmental Metrics",
		Headers: []string{"Metric", "Value", "Unit", "Category", "Recorded"},
		Rows:    rows,
	}
}

func executiveSummary(env []models.MetricSample, agg *aggregation.Result, biz *models.BusinessMetadata, handleEmpty bool) *ExecutiveSummary {
	lastUpdate := noDataYet
	if latest := latestRecordedAt(env); !latest.IsZero() {
		lastUpdate = latest.Format(dateLayout)
	}

	insights := []string{
		fmt.Sprintf("Tracking %d environmental metrics", len(env)),
		fmt.Sprintf("Most recent update: %s", lastUpdate),
		fmt.Sprintf("Total product scans: %d", biz.TotalScans),
		fmt.Sprintf("Active users: %d", biz.ActiveUsers),
	}
	if handleEmpty && agg.IsEmpty() {
		insights = append(insights, "No metrics were recorded for this period; figures are shown as zero")
	}

	highlights := fmt.Sprintf(
		"Over the reporting period the business recorded %d metric entries across %d categories, "+
			"with an average environmental value of %s. Customers performed %d product scans and "+
			"earned %d reward points, with %d active users engaging with sustainability initiatives.",
		len(agg.Samples), len(agg.Categories()), formatNumber(agg.Average(models.CategoryEnvironmental)),
		biz.TotalScans, biz.PointsAwarded, biz.ActiveUsers,
	)

	return &ExecutiveSummary{
		KeyInsights:           insights,
		PerformanceHighlights: highlights,
		Recommendations: []string{
			"Continue tracking environmental metrics consistently",
			"Engage customers with rewards tied to sustainable products",
		},
	}
}

func latestRecordedAt(samples []models.MetricSample) time.Time {
	var latest time.Time
	for _, s := range samples {
		if s.RecordedAt.After(latest) {
			latest = s.RecordedAt
		}
	}
	return latest
}

// formatNumber renders at most two decimals
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// titleCase builds a fresh caser per call; casers are stateful
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
