package tabular

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchmarny/cargoscan/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testResult(t *testing.T) *manifest.RankedResult {
	t.Helper()
	tbl, err := Read(strings.NewReader(testCSV), "m.csv")
	require.NoError(t, err)
	res, err := manifest.Analyze(tbl, manifest.DefaultConfig())
	require.NoError(t, err)
	return res
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testResult(t)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ExportColumns, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "7", rows[1][1])
	assert.Equal(t, "herbal tea sample", rows[1][2])
	assert.Equal(t, "herb; herbal; tea; sample", rows[1][10])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, testResult(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	v, err := f.GetCellValue(sheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "herbal tea sample", v)
	v, err = f.GetCellValue(sheetName, "C3")
	require.NoError(t, err)
	assert.Equal(t, "bolts, steel", v)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, testResult(t), PDFOptions{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWrite_NilResult(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteCSV(&buf, nil))
	assert.Error(t, WriteXLSX(&buf, nil))
	assert.Error(t, WritePDF(&buf, nil, PDFOptions{}))
	assert.ErrorIs(t, Write(&buf, FormatTSV, testResult(t)), ErrUnsupportedFormat)
}

func TestPDFOptions_Defaults(t *testing.T) {
	o := PDFOptions{}.withDefaults()
	assert.Equal(t, 4, o.Columns)
	assert.Equal(t, 10, o.MaxRows)
	o = PDFOptions{Columns: 100, MaxRows: 3}.withDefaults()
	assert.Equal(t, 4, o.Columns)
	assert.Equal(t, 3, o.MaxRows)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 20))
	assert.Equal(t, "ábcde", clip("ábcdefgh", 5))
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	res := testResult(t)

	for _, name := range []string{"out.xlsx", "out.csv", "nested/out.pdf"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, ExportFile(path, res))
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
		})
	}

	assert.ErrorIs(t, ExportFile(filepath.Join(dir, "out.tsv"), res), ErrUnsupportedFormat)
	assert.ErrorIs(t, ExportFile(filepath.Join(dir, "out.txt"), res), ErrUnsupportedFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp.")
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType(FormatPDF))
	assert.Equal(t, "text/csv", ContentType(FormatCSV))
	assert.Equal(t, "application/octet-stream", ContentType(Format("x")))
}

func TestRows(t *testing.T) {
	assert.Nil(t, Rows(nil))

	rows := Rows(testResult(t))
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(ExportColumns))
	assert.Equal(t, "7", rows[0][1])
	assert.Equal(t, "herbal tea sample", rows[0][2])
}

const testWaybillCSV = "AWB,Description,Weight,USD_Value\n" +
	"AWB-100,steel bolts,20,4000\n" +
	"AWB-777,herbal tea,150,200\n"

func waybillResult(t *testing.T) *manifest.RankedResult {
	t.Helper()
	tbl, err := Read(strings.NewReader(testWaybillCSV), "awb.csv")
	require.NoError(t, err)
	res, err := manifest.Analyze(tbl, manifest.DefaultConfig())
	require.NoError(t, err)
	return res
}

func TestWriteCSV_PassThroughColumns(t *testing.T) {
	res := waybillResult(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, append(append([]string(nil), ExportColumns...), "AWB"), rows[0])
	assert.Equal(t, "AWB-777", rows[1][len(ExportColumns)])
	assert.Equal(t, "AWB-100", rows[2][len(ExportColumns)])
}

func TestWriteXLSX_PassThroughColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, waybillResult(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "AWB", rows[0][len(ExportColumns)])
	assert.Equal(t, "AWB-777", rows[1][len(ExportColumns)])
}

func TestHeaderAndRows_PassThroughColumns(t *testing.T) {
	assert.Equal(t, ExportColumns, Header(nil))

	res := waybillResult(t)
	header := Header(res)
	assert.Equal(t, "AWB", header[len(header)-1])

	rows := Rows(res)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(header))
	assert.Equal(t, "AWB-777", rows[0][len(header)-1])
}
