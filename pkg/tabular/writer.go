package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mchmarny/cargoscan/pkg/manifest"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName     = "Suspects"
	defaultSheet  = "Sheet1"
	termSeparator = "; "
)

// Columns of every export, in order. The PDF renders a leading subset.
var ExportColumns = []string{
	"Row",
	"Suspicion_Score",
	manifest.ColumnDescription,
	manifest.ColumnOriginCountry,
	manifest.ColumnImporterAddress1,
	manifest.ColumnImporterAddress2,
	manifest.ColumnWeight,
	manifest.ColumnUSDValue,
	"Value_to_Weight",
	"Keyword_Hits",
	"Matched_Terms",
	"Country_Risk",
	"Address_Risk",
	"Low_Value_Heavy",
	"Abnormal_Weight",
}

// Header returns ExportColumns followed by the unrecognized input columns of res.
func Header(res *manifest.RankedResult) []string {
	out := append([]string(nil), ExportColumns...)
	if res == nil {
		return out
	}
	return append(out, res.ExtraColumns...)
}

// rowValues returns exportValues of r followed by its pass-through cells,
// padded to n extra columns.
func rowValues(r *manifest.Record, n int) []any {
	vals := exportValues(r)
	for i := 0; i < n; i++ {
		var v string
		if i < len(r.Extra) {
			v = r.Extra[i]
		}
		vals = append(vals, v)
	}
	return vals
}

// exportValues returns the typed cell values of r in ExportColumns order.
func exportValues(r *manifest.Record) []any {
	var vtw any = ""
	if r.ValueToWeight != nil {
		vtw = *r.ValueToWeight
	}
	return []any{
		r.Row,
		r.SuspicionScore,
		manifest.Value(r.Description),
		manifest.Value(r.OriginCountry),
		manifest.Value(r.ImporterAddress1),
		manifest.Value(r.ImporterAddress2),
		r.Weight,
		r.USDValue,
		vtw,
		r.KeywordHits,
		strings.Join(r.MatchedTerms, termSeparator),
		r.CountryRisk,
		r.AddressRisk,
		r.IsLowValueHeavy,
		r.IsAbnormalWeight,
	}
}

// exportStrings is rowValues rendered as text.
func exportStrings(r *manifest.Record, extra int) []string {
	vals := rowValues(r, extra)
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = formatCell(v)
	}
	return out
}

// Rows renders the selected records of res as text in Header order.
func Rows(res *manifest.RankedResult) [][]string {
	if res == nil {
		return nil
	}
	out := make([][]string, 0, len(res.Records))
	for _, r := range res.Records {
		out = append(out, exportStrings(r, len(res.ExtraColumns)))
	}
	return out
}

func formatCell(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// WriteXLSX writes the ranked records as a single-sheet workbook.
func WriteXLSX(w io.Writer, res *manifest.RankedResult) error {
	if res == nil {
		return errNilResult
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	cols := Header(res)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range res.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolving cell for row %d: %w", i+2, err)
		}
		vals := rowValues(r, len(res.ExtraColumns))
		if err := f.SetSheetRow(sheetName, cell, &vals); err != nil {
			return fmt.Errorf("writing row %d: %w", r.Row, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteCSV writes the ranked records as comma separated values with a header row.
func WriteCSV(w io.Writer, res *manifest.RankedResult) error {
	if res == nil {
		return errNilResult
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header(res)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range res.Records {
		if err := cw.Write(exportStrings(r, len(res.ExtraColumns))); err != nil {
			return fmt.Errorf("writing row %d: %w", r.Row, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
