package reportdata

// Chart types
const (
	ChartBar  = "bar"
	ChartPie  = "pie"
	ChartLine = "line"
)

// Section names, also used as chart and table keys
const (
	SectionExecutiveSummary = "executive_summary"
	SectionMetrics          = "metrics"
	SectionCharts           = "charts"
	SectionSustainability   = "sustainability"
	SectionTables           = "tables"

	ChartMonthlyMetrics       = "monthlyMetrics"
	ChartCategoryDistribution = "categoryDistribution"
	ChartEnvironmentalTrend   = "environmentalTrend"
	TableMonthlyMetrics       = "monthlyMetrics"
)

// Document is the transient report content handed to the renderer. Never persisted.
type Document struct {
	Metrics          map[string]float64 `json:"metrics"`
	Charts           map[string]Chart   `json:"charts"`
	Sustainability   *Sustainability    `json:"sustainability,omitempty"`
	Tables           map[string]Table   `json:"tables,omitempty"`
	ExecutiveSummary *ExecutiveSummary  `json:"executive_summary,omitempty"`
}

// Chart is one visualization series
type Chart struct {
	Type  string      `json:"type"`
	Title string      `json:"title"`
	Data  []DataPoint `json:"data"`
}

// DataPoint is a labelled value with its display color
type DataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Sustainability holds the qualitative sustainability section
type Sustainability struct {
	EnvironmentalImpact string   `json:"environmental_impact"`
	Recommendations     []string `json:"recommendations"`
	Achievements        []string `json:"achievements"`
}

// Table is a header row plus data rows
type Table struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ExecutiveSummary opens the report
type ExecutiveSummary struct {
	KeyInsights           []string `json:"key_insights"`
	PerformanceHighlights string   `json:"performance_highlights"`
	Recommendations       []string `json:"recommendations"`
}

// Sections lists the populated sections in rendering order
func (d *Document) Sections() []string {
	if d == nil {
		return nil
	}
	var out []string
	if d.ExecutiveSummary != nil {
		out = append(out, SectionExecutiveSummary)
	}
	if len(d.Metrics) > 0 {
		out = append(out, SectionMetrics)
	}
	if len(d.Charts) > 0 {
		out = append(out, SectionCharts)
	}
	if d.Sustainability != nil {
		out = append(out, SectionSustainability)
	}
	if len(d.Tables) > 0 {
		out = append(out, SectionTables)
	}
	return out
}
