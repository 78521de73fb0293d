package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_NilTable(t *testing.T) {
	_, err := Normalize(nil)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.True(t, errors.Is(err, ErrNoHeader))
}

func TestNormalize_BlankHeader(t *testing.T) {
	_, err := Normalize(&Table{Header: []string{" ", ""}, Rows: [][]string{{"a"}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoHeader))
}

func TestNormalize_HeaderOnly(t *testing.T) {
	_, err := Normalize(&Table{Source: "empty.csv", Header: []string{"Description"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRows))
	assert.Contains(t, err.Error(), "empty.csv")
}

func TestNormalize_HeaderMatching(t *testing.T) {
	tbl := &Table{
		Header: []string{" Description ", "description", "Weight", "Origin country", "Weight"},
		Rows:   [][]string{{"Green Tea", "ignored", "12", "China", "99"}},
	}
	ds, err := Normalize(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{ColumnDescription, ColumnWeight}, ds.Columns)

	r := ds.Records[0]
	require.NotNil(t, r.Description)
	assert.Equal(t, "Green Tea", *r.Description)
	assert.Equal(t, "green tea", r.text.description)
	assert.Nil(t, r.OriginCountry)
	assert.Equal(t, 12.0, r.Weight)
}

func TestNormalize_ShortRowsAndBlankCells(t *testing.T) {
	tbl := &Table{
		Header: []string{"Description", "Origin Country", "Weight", "USD_Value"},
		Rows: [][]string{
			{"   ", "Peru"},
			{},
		},
	}
	ds, err := Normalize(tbl)
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)

	assert.Nil(t, ds.Records[0].Description)
	require.NotNil(t, ds.Records[0].OriginCountry)
	assert.Equal(t, 0.0, ds.Records[0].Weight)
	assert.Nil(t, ds.Records[0].ValueToWeight)

	assert.Equal(t, 2, ds.Records[1].Row)
	assert.Nil(t, ds.Records[1].OriginCountry)
	assert.Empty(t, ds.Anomalies)
}

func TestNormalize_NumericCoercion(t *testing.T) {
	tbl := &Table{
		Header: []string{"Weight", "USD_Value"},
		Rows: [][]string{
			{"abc", "100"},
			{"-5", "NaN"},
			{" 4.5 ", "9"},
			{"", ""},
		},
	}
	ds, err := Normalize(tbl)
	require.NoError(t, err)

	assert.Equal(t, 0.0, ds.Records[0].Weight)
	assert.Nil(t, ds.Records[0].ValueToWeight)
	assert.Equal(t, 0.0, ds.Records[1].Weight)
	assert.Equal(t, 0.0, ds.Records[1].USDValue)

	require.NotNil(t, ds.Records[2].ValueToWeight)
	assert.InDelta(t, 2.0, *ds.Records[2].ValueToWeight, 0.0001)

	assert.Equal(t, []CoercionAnomaly{
		{Row: 1, Column: ColumnWeight, Value: "abc"},
		{Row: 2, Column: ColumnWeight, Value: "-5"},
		{Row: 2, Column: ColumnUSDValue, Value: "NaN"},
	}, ds.Anomalies)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{"", 0, true},
		{"  ", 0, true},
		{"10", 10, true},
		{"1e2", 100, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"1,000", 0, false},
		{"Inf", 0, false},
		{"heavy", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestNormalize_ExtraColumns(t *testing.T) {
	tbl := &Table{
		Header: []string{"Waybill", "Weight", "Weight", "description"},
		Rows: [][]string{
			{"W1", "5", "6", "tea"},
			{"W2"},
		},
	}
	ds, err := Normalize(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"Waybill", "Weight", "description"}, ds.ExtraColumns)
	assert.Equal(t, []string{"W1", "6", "tea"}, ds.Records[0].Extra)
	assert.Equal(t, []string{"W2", "", ""}, ds.Records[1].Extra)
	assert.Equal(t, 5.0, ds.Records[0].Weight)
}

func TestNormalize_NoExtraColumns(t *testing.T) {
	ds, err := Normalize(&Table{Header: []string{"Weight"}, Rows: [][]string{{"1"}}})
	require.NoError(t, err)
	assert.Empty(t, ds.ExtraColumns)
	assert.Nil(t, ds.Records[0].Extra)
}
