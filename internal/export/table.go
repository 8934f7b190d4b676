package export

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/company-url-collector/internal/domain"
)

const maxTitleWidth = 60

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// RenderRecords prints records as a table.
func RenderRecords(w io.Writer, records []domain.URLRecord) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "URL", "Title", "First party", "Relevant"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: maxTitleWidth},
	})
	for i, r := range records {
		t.AppendRow(table.Row{i + 1, r.URL, r.Title, yesNo(r.IsFirstParty), yesNo(r.IsRelevant)})
	}
	t.AppendFooter(table.Row{"", "Total", strconv.Itoa(len(records)), "", ""})
	t.Render()
}

// RenderResult prints the counts of a collection result, or its error.
func RenderResult(w io.Writer, res domain.CollectionResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Company", res.Company})
	t.AppendRow(table.Row{"Company URL", res.CompanyURL})
	t.AppendRow(table.Row{"Duration", string(res.Duration)})
	t.AppendRow(table.Row{"Search time", res.SearchTime})

	if !res.Success || res.Summary == nil {
		t.AppendRow(table.Row{"Error kind", string(res.ErrorKind)})
		t.AppendRow(table.Row{"Error", res.Error})
		t.Render()
		return
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"New URLs found", res.NewURLsFound})
	t.AppendRow(table.Row{"Total URLs stored", res.TotalURLsStored})
	t.AppendRow(table.Row{"First party", res.FirstPartyCount})
	t.AppendRow(table.Row{"Third party", res.ThirdPartyCount})
	t.AppendRow(table.Row{"Relevant", res.RelevantCount})
	t.AppendRow(table.Row{"Irrelevant", res.IrrelevantCount})
	t.Render()
}

// RenderCompanies prints stored company keys.
func RenderCompanies(w io.Writer, keys []string) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Company key"})
	for i, k := range keys {
		t.AppendRow(table.Row{i + 1, k})
	}
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
