package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/cargoscan/pkg/manifest"
	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\ufeff"

var (
	// ErrUnsupportedFormat is returned for file extensions no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoSheet is returned for workbooks without any worksheet.
	ErrNoSheet = errors.New("workbook has no sheets")
)

// Format identifies a tabular file encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatPDF  Format = "pdf"
)

// FormatFromName derives the format from a file name extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ReadFile reads the first table of the file at path.
func ReadFile(path string) (*manifest.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, manifest.NewFormatError(path, err)
	}
	defer f.Close()
	return Read(f, path)
}

// Read parses r as a table. The name is used to pick the format and to label errors.
// Every failure is a *manifest.FormatError.
func Read(r io.Reader, name string) (*manifest.Table, error) {
	format, err := FormatFromName(name)
	if err != nil || format == FormatPDF {
		if err == nil {
			err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
		}
		return nil, manifest.NewFormatError(name, err)
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = readWorkbook(r)
	case FormatTSV:
		rows, err = readDelimited(r, '\t')
	default:
		rows, err = readDelimited(r, ',')
	}
	if err != nil {
		return nil, manifest.NewFormatError(name, err)
	}

	t := &manifest.Table{Source: filepath.Base(name)}
	if len(rows) > 0 {
		t.Header = rows[0]
		t.Rows = rows[1:]
	}
	slog.Debug("table read", "source", t.Source, "format", format, "columns", len(t.Header), "rows", len(t.Rows))
	return t, nil
}

// readWorkbook returns the raw cell values of the first worksheet.
func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return dropBlankRows(rows), nil
}

// dropBlankRows removes rows without a single non-blank cell. Sheets report
// gaps between used rows as empty rows, delimited readers already skip them.
func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func readDelimited(r io.Reader, delim rune) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	b = bytes.TrimPrefix(b, []byte(utf8BOM))

	cr := csv.NewReader(bytes.NewReader(b))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing delimited data: %w", err)
	}
	return rows, nil
}
