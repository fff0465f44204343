package agents

import (
	"strings"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/reportdata"
)

// Outline is the drafted report structure returned by the model.
// Sections are pointers so a missing key can be told apart from an empty one.
type Outline struct {
	ExecutiveSummary      *OutlineSummary       `json:"executive_summary"`
	EnvironmentalImpact   *EnvironmentalSection `json:"environmental_impact"`
	SocialContributions   *SocialSection        `json:"social_contributions"`
	GovernancePerformance *GovernanceSection    `json:"governance_performance"`
	FutureGoals           *FutureGoals          `json:"future_goals"`
	Visualizations        []OutlineVisual       `json:"visualizations"`
}

type OutlineSummary struct {
	Overview        string   `json:"overview"`
	KeyHighlights   []string `json:"key_highlights"`
	Recommendations []string `json:"recommendations"`
}

type EnvironmentalSection struct {
	Summary      string          `json:"summary"`
	Achievements []string        `json:"achievements"`
	Metrics      []OutlineMetric `json:"metrics"`
}

type OutlineMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Trend string  `json:"trend"`
}

type SocialSection struct {
	Summary     string   `json:"summary"`
	Initiatives []string `json:"initiatives"`
}

type GovernanceSection struct {
	Summary  string   `json:"summary"`
	Policies []string `json:"policies"`
}

type FutureGoals struct {
	ShortTerm []string `json:"short_term"`
	LongTerm  []string `json:"long_term"`
}

// OutlineVisual is one suggested visualization
type OutlineVisual struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Metric string `json:"metric"`
}

// missingSections lists the top-level keys absent from the outline
func (o *Outline) missingSections() []string {
	var missing []string
	if o.ExecutiveSummary == nil {
		missing = append(missing, "executive_summary")
	}
	if o.EnvironmentalImpact == nil {
		missing = append(missing, "environmental_impact")
	}
	if o.SocialContributions == nil {
		missing = append(missing, "social_contributions")
	}
	if o.GovernancePerformance == nil {
		missing = append(missing, "governance_performance")
	}
	if o.FutureGoals == nil {
		missing = append(missing, "future_goals")
	}
	if o.Visualizations == nil {
		missing = append(missing, "visualizations")
	}
	return missing
}

// ToExecutiveSummary maps the outline onto the document's executive summary.
// Recommendations from future goals are appended after the summary's own.
func (o *Outline) ToExecutiveSummary() *reportdata.ExecutiveSummary {
	if o == nil || o.ExecutiveSummary == nil {
		return nil
	}

	highlights := strings.TrimSpace(o.ExecutiveSummary.Overview)
	if o.EnvironmentalImpact != nil && o.EnvironmentalImpact.Summary != "" {
		highlights = strings.TrimSpace(highlights + " " + o.EnvironmentalImpact.Summary)
	}

	recs := append([]string{}, o.ExecutiveSummary.Recommendations...)
	if o.FutureGoals != nil {
		recs = append(recs, o.FutureGoals.ShortTerm...)
	}

	return &reportdata.ExecutiveSummary{
		KeyInsights:           append([]string{}, o.ExecutiveSummary.KeyHighlights...),
		PerformanceHighlights: highlights,
		Recommendations:       recs,
	}
}

// Visualization turns the suggested visualizations into template flags.
// Unknown types are ignored.
func (o *Outline) Visualization() models.VisualizationOptions {
	var v models.VisualizationOptions
	if o == nil {
		return v
	}
	for _, vis := range o.Visualizations {
		switch strings.ToLower(strings.TrimSpace(vis.Type)) {
		case "bar":
			v.ShowBarCharts = true
		case "line":
			v.ShowLineCharts = true
		case "pie":
			v.ShowPieCharts = true
		case "table":
			v.ShowTables = true
		case "timeline":
			v.ShowTimeline = true
		case "waterfall":
			v.ShowWaterfall = true
		case "heatmap":
			v.ShowHeatmaps = true
		case "infographic":
			v.ShowInfographics = true
		}
	}
	return v
}
