package manifest

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// columnIndex maps recognized column names to their position in the header.
// Absent columns have no entry.
type columnIndex map[string]int

func indexHeader(header []string) columnIndex {
	idx := make(columnIndex, len(RecognizedColumns))
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, name := range RecognizedColumns {
			if h != name {
				continue
			}
			// first occurrence wins on duplicate headers
			if _, ok := idx[name]; !ok {
				idx[name] = i
			}
		}
	}
	return idx
}

// extraColumn is a header cell the rules do not read. Its values are carried
// through to the result untouched.
type extraColumn struct {
	name string
	pos  int
}

// extras returns every header position not taken by a recognized column, in
// header order. Blank header cells are named after their 1-based position.
func (idx columnIndex) extras(header []string) []extraColumn {
	used := make(map[int]bool, len(idx))
	for _, i := range idx {
		used[i] = true
	}
	out := make([]extraColumn, 0, len(header))
	for i, h := range header {
		if used[i] {
			continue
		}
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		out = append(out, extraColumn{name: name, pos: i})
	}
	return out
}

// present returns the recognized columns found in the header, in canonical order.
func (idx columnIndex) present() []string {
	cols := make([]string, 0, len(idx))
	for _, name := range RecognizedColumns {
		if _, ok := idx[name]; ok {
			cols = append(cols, name)
		}
	}
	return cols
}

func (idx columnIndex) cell(row []string, name string) (string, bool) {
	i, ok := idx[name]
	if !ok {
		return "", false
	}
	if i >= len(row) {
		return "", true
	}
	return row[i], true
}

// Dataset is the normalized form of a Table.
type Dataset struct {
	Columns      []string
	ExtraColumns []string
	Records      []*Record
	Anomalies    []CoercionAnomaly
}

// Normalize maps raw rows onto typed records. It fails only with a FormatError,
// every per-row problem is absorbed and reported as a CoercionAnomaly.
func Normalize(t *Table) (*Dataset, error) {
	if t == nil || !hasHeader(t.Header) {
		return nil, NewFormatError(sourceOf(t), ErrNoHeader)
	}
	if len(t.Rows) == 0 {
		return nil, NewFormatError(t.Source, ErrNoRows)
	}

	idx := indexHeader(t.Header)
	columns := idx.present()
	extras := idx.extras(t.Header)
	extraNames := make([]string, len(extras))
	for i, e := range extras {
		extraNames[i] = e.name
	}
	slog.Debug("manifest columns", "source", t.Source, "recognized", columns, "header", len(t.Header))

	records := make([]*Record, 0, len(t.Rows))
	anomalies := make([]CoercionAnomaly, 0)

	for i, row := range t.Rows {
		r := &Record{Row: i + 1}

		r.Description = textField(idx, row, ColumnDescription)
		r.OriginCountry = textField(idx, row, ColumnOriginCountry)
		r.ImporterAddress1 = textField(idx, row, ColumnImporterAddress1)
		r.ImporterAddress2 = textField(idx, row, ColumnImporterAddress2)

		var a *CoercionAnomaly
		r.Weight, a = numberField(idx, row, ColumnWeight, r.Row)
		if a != nil {
			anomalies = append(anomalies, *a)
		}
		r.USDValue, a = numberField(idx, row, ColumnUSDValue, r.Row)
		if a != nil {
			anomalies = append(anomalies, *a)
		}

		if len(extras) > 0 {
			r.Extra = make([]string, len(extras))
			for j, e := range extras {
				if e.pos < len(row) {
					r.Extra[j] = row[e.pos]
				}
			}
		}

		r.deriveFields()
		records = append(records, r)
	}

	for _, a := range anomalies {
		slog.Debug("numeric value coerced to 0", "row", a.Row, "column", a.Column, "value", a.Value)
	}

	return &Dataset{
		Columns:      columns,
		ExtraColumns: extraNames,
		Records:      records,
		Anomalies:    anomalies,
	}, nil
}

// deriveFields fills the normalized match text and value density. It runs once per record.
func (r *Record) deriveFields() {
	r.text = matchText{
		description: normalizeText(Value(r.Description)),
		origin:      normalizeText(Value(r.OriginCountry)),
		address1:    normalizeText(Value(r.ImporterAddress1)),
		address2:    normalizeText(Value(r.ImporterAddress2)),
	}
	r.ValueToWeight = nil
	if r.Weight > 0 {
		v := r.USDValue / r.Weight
		r.ValueToWeight = &v
	}
}

func textField(idx columnIndex, row []string, name string) *string {
	v, ok := idx.cell(row, name)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func numberField(idx columnIndex, row []string, name string, rowNum int) (float64, *CoercionAnomaly) {
	v, ok := idx.cell(row, name)
	if !ok {
		return 0, nil
	}
	n, ok := ParseNumber(v)
	if !ok {
		return 0, &CoercionAnomaly{Row: rowNum, Column: name, Value: v}
	}
	return n, nil
}

// ParseNumber parses a numeric cell. Blank cells are 0 and valid. Unparsable,
// non-finite and negative values are 0 and reported as not valid.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, false
	}
	return n, true
}

func hasHeader(header []string) bool {
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			return true
		}
	}
	return false
}

func sourceOf(t *Table) string {
	if t == nil {
		return ""
	}
	return t.Source
}
