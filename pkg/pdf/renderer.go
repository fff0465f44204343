package pdf

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/reportdata"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Layout constants, in millimetres
const (
	PageMargin   = 15.0
	LineHeight   = 6.0
	BulletIndent = 6.0
	HeaderHeight = 32.0
	StatBoxH     = 22.0
	StatBoxGap   = 4.0
	TableRowH    = 8.0

	// MaxLineChars is the wrap budget for portrait body text at 11pt
	MaxLineChars = 90
	// MaxLineCharsLandscape is the same budget on a landscape page
	MaxLineCharsLandscape = 135

	fontFamily = "Helvetica"
	dateLayout = "January 2, 2006"
)

// Template is the presentation part of a report template
type Template struct {
	Title       string
	Colors      []string
	Orientation models.Orientation
}

// Result is a rendered PDF
type Result struct {
	Bytes     []byte
	PageCount int
}

// Renderer lays out report documents as A4 PDFs
type Renderer struct {
	author string
}

// NewRenderer creates a renderer. author is written to the PDF metadata.
func NewRenderer(author string) *Renderer {
	if author == "" {
		author = "Sustainability Reports"
	}
	return &Renderer{author: author}
}

// page wraps one fpdf document with its resolved geometry
type page struct {
	pdf       *fpdf.Fpdf
	tr        func(string) string
	theme     theme
	width     float64
	height    float64
	lineChars int
}

func (p *page) contentWidth() float64 { return p.width - 2*PageMargin }
func (p *page) bottom() float64 { return p.height - PageMargin }

// Render builds the PDF. An empty or nil document produces the cover page only.
func (r *Renderer) Render(doc *reportdata.Document, tpl Template, generatedAt time.Time) (*Result, error) {
	if doc == nil {
		doc = &reportdata.Document{}
	}

	orientation, lineChars := "P", MaxLineChars
	if tpl.Orientation == models.OrientationLandscape {
		orientation, lineChars = "L", MaxLineCharsLandscape
	}

	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(PageMargin, PageMargin, PageMargin)
	pdf.SetAutoPageBreak(false, PageMargin)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetAuthor(r.author, true)
	pdf.SetTitle(tpl.Title, true)

	w, h := pdf.GetPageSize()
	p := &page{
		pdf:       pdf,
		tr:        pdf.UnicodeTranslatorFromDescriptor(""),
		theme:     newTheme(tpl.Colors),
		width:     w,
		height:    h,
		lineChars: lineChars,
	}

	title := tpl.Title
	if strings.TrimSpace(title) == "" {
		title = "Sustainability Report"
	}

	p.coverPage(title, generatedAt, doc.ExecutiveSummary)
	if len(doc.Metrics) > 0 {
		p.metricsPage(doc.Metrics)
	}
	if doc.Sustainability != nil {
		p.sustainabilityPage(doc.Sustainability)
	}
	if len(doc.Tables) > 0 {
		p.tablesPage(doc.Tables)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("failed to render pdf: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	return &Result{Bytes: buf.Bytes(), PageCount: pdf.PageCount()}, nil
}

func (p *page) setText(c RGB) { p.pdf.SetTextColor(c.R, c.G, c.B) }
func (p *page) setFill(c RGB) { p.pdf.SetFillColor(c.R, c.G, c.B) }
func (p *page) font(style string, size float64) {
	p.pdf.SetFont(fontFamily, style, size)
}

// band draws a full-width filled rectangle with a title at the top of the page
func (p *page) band(title, subtitle string, height float64) {
	p.setFill(p.theme.at(0))
	p.pdf.Rect(0, 0, p.width, height, "F")

	p.setText(white)
	p.font("B", 20)
	p.pdf.Text(PageMargin, height/2, p.tr(title))
	if subtitle != "" {
		p.font("", 10)
		p.pdf.Text(PageMargin, height/2+8, p.tr(subtitle))
	}
	p.pdf.SetY(height + 8)
}

func (p *page) heading(text string) {
	p.ensure(LineHeight * 3)
	p.setText(textDark)
	p.font("B", 14)
	y := p.pdf.GetY()
	p.pdf.Text(PageMargin, y+LineHeight, p.tr(text))
	p.pdf.SetY(y + LineHeight*2)
}

// ensure starts a new page when fewer than need millimetres are left
func (p *page) ensure(need float64) {
	if p.pdf.GetY()+need > p.bottom() {
		p.pdf.AddPage()
		p.pdf.SetY(PageMargin)
	}
}

// lines writes wrapped text at x, one LineHeight per flushed line
func (p *page) lines(text string, x float64, maxChars int) {
	p.setText(textDark)
	p.font("", 11)
	for _, line := range WrapText(text, maxChars) {
		p.ensure(LineHeight)
		y := p.pdf.GetY() + LineHeight
		p.pdf.Text(x, y, p.tr(line))
		p.pdf.SetY(y)
	}
}

func (p *page) bullets(items []string) {
	indent := PageMargin + BulletIndent
	budget := p.lineChars - 4
	for _, item := range items {
		wrapped := WrapText(item, budget)
		for i, line := range wrapped {
			p.ensure(LineHeight)
			y := p.pdf.GetY() + LineHeight
			p.setText(textDark)
			p.font("", 11)
			if i == 0 {
				p.pdf.Text(indent-4, y, p.tr("•"))
			}
			p.pdf.Text(indent, y, p.tr(line))
			p.pdf.SetY(y)
		}
	}
	p.pdf.SetY(p.pdf.GetY() + LineHeight/2)
}

func (p *page) coverPage(title string, generatedAt time.Time, summary *reportdata.ExecutiveSummary) {
	p.pdf.AddPage()
	p.band(title, "Generated on "+generatedAt.Format(dateLayout), HeaderHeight)

	if summary == nil {
		return
	}
	if len(summary.KeyInsights) > 0 {
		p.heading("Key Insights")
		p.bullets(summary.KeyInsights)
	}
	if strings.TrimSpace(summary.PerformanceHighlights) != "" {
		p.heading("Performance Highlights")
		p.lines(summary.PerformanceHighlights, PageMargin, p.lineChars)
		p.pdf.SetY(p.pdf.GetY() + LineHeight/2)
	}
	if len(summary.Recommendations) > 0 {
		p.heading("Recommendations")
		p.bullets(summary.Recommendations)
	}
}

// metricsPage stacks one translucent box per metric, sorted by key
func (p *page) metricsPage(metrics map[string]float64) {
	p.pdf.AddPage()
	p.pdf.SetY(PageMargin)
	p.heading("Key Metrics")

	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, key := range keys {
		p.ensure(StatBoxH + StatBoxGap)
		y := p.pdf.GetY()

		p.pdf.SetAlpha(0.18, "Normal")
		p.setFill(p.theme.at(i))
		p.pdf.Rect(PageMargin, y, p.contentWidth(), StatBoxH, "F")
		p.pdf.SetAlpha(1, "Normal")

		p.setText(textDark)
		p.font("B", 18)
		p.pdf.Text(PageMargin+5, y+10, p.tr(formatValue(metrics[key])))

		p.setText(textMuted)
		p.font("", 9)
		p.pdf.Text(PageMargin+5, y+17, p.tr(metricLabel(key)))

		p.pdf.SetY(y + StatBoxH + StatBoxGap)
	}
}

func (p *page) sustainabilityPage(s *reportdata.Sustainability) {
	p.pdf.AddPage()
	p.pdf.SetY(PageMargin)
	p.heading("Sustainability Insights")

	p.setText(textDark)
	p.font("", 12)
	y := p.pdf.GetY()
	p.pdf.Text(PageMargin, y+LineHeight, p.tr("Environmental Impact: "+s.EnvironmentalImpact))
	p.pdf.SetY(y + LineHeight*2)

	if len(s.Achievements) > 0 {
		p.heading("Key Achievements")
		p.bullets(s.Achievements)
	}
	if len(s.Recommendations) > 0 {
		p.heading("Recommendations")
		p.bullets(s.Recommendations)
	}
}

// tablesPage draws every table, in key order, with equal-width columns
func (p *page) tablesPage(tables map[string]reportdata.Table) {
	keys := make([]string, 0, len(tables))
	for k := range tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p.pdf.AddPage()
	first := true
	for _, key := range keys {
		t := tables[key]
		title := t.Title
		if title == "" {
			title = metricLabel(key)
		}
		if first {
			p.band(title, "", HeaderHeight*0.6)
			first = false
		} else {
			p.ensure(TableRowH * 4)
			p.heading(title)
		}
		p.table(t)
		p.pdf.SetY(p.pdf.GetY() + LineHeight)
	}
}

func (p *page) table(t reportdata.Table) {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return
	}
	colW := p.contentWidth() / float64(cols)

	header := func() {
		p.font("B", 10)
		p.setText(white)
		for i := 0; i < cols; i++ {
			p.setFill(p.theme.at(i))
			p.pdf.SetXY(PageMargin+float64(i)*colW, p.pdf.GetY())
			p.pdf.CellFormat(colW, TableRowH, p.fit(cell(t.Headers, i), colW), "", 0, "L", true, 0, "")
		}
		p.pdf.SetXY(PageMargin, p.pdf.GetY()+TableRowH)
	}

	p.ensure(TableRowH * 2)
	header()

	for r, row := range t.Rows {
		if p.pdf.GetY()+TableRowH > p.bottom() {
			p.pdf.AddPage()
			p.pdf.SetY(PageMargin)
			header()
		}
		shaded := r%2 == 1
		if shaded {
			p.setFill(rowShade)
		}
		p.font("", 10)
		p.setText(textDark)
		y := p.pdf.GetY()
		for i := 0; i < cols; i++ {
			p.pdf.SetXY(PageMargin+float64(i)*colW, y)
			p.pdf.CellFormat(colW, TableRowH, p.fit(cell(row, i), colW), "", 0, "L", shaded, 0, "")
		}
		p.pdf.SetXY(PageMargin, y+TableRowH)
	}
}

// fit translates s and trims it with an ellipsis to the cell width
func (p *page) fit(s string, width float64) string {
	s = p.tr(s)
	limit := width - 2
	if p.pdf.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && p.pdf.GetStringWidth(s+"...") > limit {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// metricLabel turns "average_environmental_value" into "Average Environmental Value"
func metricLabel(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
