package tabular

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchmarny/cargoscan/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testCSV = "\ufeffDescription,Origin Country,Weight,USD_Value\n" +
	"herbal tea sample,Thailand,150,200\n" +
	"\"bolts, steel\",Germany,20,4000\n"

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		name string
		want Format
		err  bool
	}{
		{"a.xlsx", FormatXLSX, false},
		{"A.XLSX", FormatXLSX, false},
		{"a.csv", FormatCSV, false},
		{"a.tsv", FormatTSV, false},
		{"a.pdf", FormatPDF, false},
		{"a.xls", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromName(tt.name)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRead_CSV(t *testing.T) {
	tbl, err := Read(strings.NewReader(testCSV), "uploads/manifest.csv")
	require.NoError(t, err)
	assert.Equal(t, "manifest.csv", tbl.Source)
	assert.Equal(t, []string{"Description", "Origin Country", "Weight", "USD_Value"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "bolts, steel", tbl.Rows[1][0])
}

func TestRead_TSVRaggedRows(t *testing.T) {
	in := "Description\tWeight\nkratom\t\nbooks\n"
	tbl, err := Read(strings.NewReader(in), "m.tsv")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"books"}, tbl.Rows[1])
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Description", "Weight", "USD_Value"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"detox tea", 1200.5, 30}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	tbl, err := Read(&buf, "m.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Description", "Weight", "USD_Value"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "detox tea", tbl.Rows[0][0])
	assert.Equal(t, "1200.5", tbl.Rows[0][1])
}

func TestRead_XLSXSkipsBlankRows(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Description", "Weight", "USD_Value"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"tea", 150, 200}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A5", &[]any{"books", 2, 30}))
	require.NoError(t, f.SetCellValue("Sheet1", "B6", " "))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	tbl, err := Read(&buf, "m.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Description", "Weight", "USD_Value"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "tea", tbl.Rows[0][0])
	assert.Equal(t, "books", tbl.Rows[1][0])

	res, err := manifest.Analyze(tbl, manifest.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalRecords)
}

func TestDropBlankRows(t *testing.T) {
	rows := [][]string{{}, {"", " "}, {"a"}, nil, {"", "b"}}
	assert.Equal(t, [][]string{{"a"}, {"", "b"}}, dropBlankRows(rows))
	assert.Empty(t, dropBlankRows(nil))
}

func TestRead_CorruptWorkbook(t *testing.T) {
	_, err := Read(strings.NewReader("not a zip"), "m.xlsx")
	require.Error(t, err)
	assert.True(t, manifest.IsFormatError(err))
}

func TestRead_Unsupported(t *testing.T) {
	_, err := Read(strings.NewReader(""), "m.docx")
	require.Error(t, err)
	assert.True(t, manifest.IsFormatError(err))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Read(strings.NewReader(""), "m.pdf")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestRead_EmptyInputFailsAnalysis(t *testing.T) {
	tbl, err := Read(strings.NewReader(""), "m.csv")
	require.NoError(t, err)
	_, err = manifest.Analyze(tbl, manifest.DefaultConfig())
	assert.True(t, manifest.IsFormatError(err))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o600))

	tbl, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 2)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, manifest.IsFormatError(err))
}
