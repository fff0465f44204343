package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/aggregation"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	SheetSamples = "Samples"
	SheetSummary = "Summary"

	// ContentTypeXLSX is the media type of the generated workbook
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	sampleHeaders  = []string{"Metric", "Value", "Unit", "Category", "Recorded"}
	summaryHeaders = []string{"Category", "Samples", "Average", "Total"}
)

// Service exports aggregated metrics as spreadsheets
type Service struct {
	aggregator *aggregation.Service
}

// NewService creates a new export service
func NewService(aggregator *aggregation.Service) *Service {
	return &Service{aggregator: aggregator}
}

// MetricsWorkbook aggregates the business's samples in r and returns them as an xlsx file
func (s *Service) MetricsWorkbook(ctx context.Context, biz models.BusinessContext, r models.DateRange, categories []string) ([]byte, error) {
	agg, err := s.aggregator.Aggregate(ctx, biz, r, categories)
	if err != nil {
		return nil, err
	}
	return Workbook(agg)
}

// Workbook writes one row per sample on the Samples sheet and one row per category on
// the Summary sheet. An empty aggregation yields both sheets with headers only.
func Workbook(agg *aggregation.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	// The default sheet becomes Samples so the workbook has no empty Sheet1
	if err := f.SetSheetName("Sheet1", SheetSamples); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeRow(f, SheetSamples, 1, toCells(sampleHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetSummary, 1, toCells(summaryHeaders)); err != nil {
		return nil, err
	}
	for _, sheet := range []string{SheetSamples, SheetSummary} {
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	caser := cases.Title(language.English)
	if agg != nil {
		for i, s := range agg.Samples {
			row := []any{s.Definition.Name, s.Value, s.Definition.Unit, caser.String(s.Definition.Category), s.RecordedAt.UTC().Format("2006-01-02 15:04")}
			if err := writeRow(f, SheetSamples, i+2, row); err != nil {
				return nil, err
			}
		}
		for i, cat := range agg.Categories() {
			row := []any{caser.String(cat), agg.Distribution[cat], agg.Average(cat), agg.Totals[cat]}
			if err := writeRow(f, SheetSummary, i+2, row); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(SheetSamples, "A", "E", 22); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(SheetSummary, "A", "D", 18); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(headers []string) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}
