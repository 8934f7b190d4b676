// Package export renders URL collections as terminal tables and Excel
// workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/company-url-collector/internal/domain"
)

const (
	// URLSheet holds one row per record.
	URLSheet = "URLs"
	// SummarySheet holds the collection counts.
	SummarySheet = "Summary"
)

var urlHeaders = []string{"url", "title", "description", "timestamp", "is_first_party", "is_relevant"}

// NewWorkbook builds a workbook with the records of company on URLSheet and
// their counts on SummarySheet. The caller closes the file.
func NewWorkbook(company string, records []domain.URLRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", URLSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, URLSheet, 1, toAny(urlHeaders)); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, r := range records {
		row := []any{r.URL, r.Title, r.Description, r.Timestamp, r.IsFirstParty, r.IsRelevant}
		if err := writeRow(f, URLSheet, i+2, row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if err := f.AutoFilter(URLSheet, fmt.Sprintf("A1:F%d", len(records)+1), nil); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set auto filter: %w", err)
	}

	if err := writeSummary(f, company, records); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// WriteWorkbook streams the workbook for company to w.
func WriteWorkbook(w io.Writer, company string, records []domain.URLRecord) error {
	f, err := NewWorkbook(company, records)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the workbook for company to path.
func SaveWorkbook(path, company string, records []domain.URLRecord) error {
	f, err := NewWorkbook(company, records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, company string, records []domain.URLRecord) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	s := domain.Summarize(records, records)
	rows := [][]any{
		{"company", company},
		{"company_key", domain.CompanyKey(company)},
		{"total_urls", s.TotalURLsStored},
		{"first_party", s.FirstPartyCount},
		{"third_party", s.ThirdPartyCount},
		{"relevant", s.RelevantCount},
		{"irrelevant", s.IrrelevantCount},
	}
	for i, row := range rows {
		if err := writeRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err = f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
