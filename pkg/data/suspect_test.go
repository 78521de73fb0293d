package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSuspects_NilDB(t *testing.T) {
	_, err := ListSuspects(nil, 0, 10)
	assert.Error(t, err)
}

func TestListSuspects(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveAnalysis(db, NewAnalysis("a.csv", testResult(t))))
	require.NoError(t, SaveAnalysis(db, NewAnalysis("b.csv", testResult(t,
		[]string{"natural oil", "Nigeria", "300", "10"},
	))))

	all, err := ListSuspects(db, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	high, err := ListSuspects(db, 5, 10)
	require.NoError(t, err)
	require.Len(t, high, 2)
	assert.Equal(t, "herbal tea sample", high[0].Description)
	assert.Equal(t, 7, high[0].Score)
	assert.Equal(t, "b.csv", high[1].Source)
	assert.Equal(t, "Nigeria", high[1].OriginCountry)
}
