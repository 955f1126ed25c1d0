package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scores(s ...int) []Candidate {
	out := make([]Candidate, len(s))
	for i, v := range s {
		out[i] = Candidate{Score: v}
	}
	return out
}

func TestIsAmbiguous(t *testing.T) {
	tests := []struct {
		scores []int
		want   bool
	}{
		{[]int{9}, false},
		{[]int{7, 6}, true},
		{[]int{10, 10}, true},
		{[]int{10, 8}, false},
		{[]int{10, 8, 8}, true},
		{[]int{10, 7, 7}, false},
		{[]int{12, 2}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isAmbiguous(scores(tt.scores...)), "scores %v", tt.scores)
	}
}

func TestQuote_EndToEnd(t *testing.T) {
	ix := mustLoad(t, groceries)

	res := ix.Quote([]QuoteItem{{Name: "fideos"}, {Name: "arroz"}})
	require.Len(t, res.Items, 2)

	fideos := res.Items[0]
	assert.Equal(t, "fideos", fideos.InputName)
	assert.True(t, fideos.Found)
	assert.False(t, fideos.Ambiguous)
	require.NotNil(t, fideos.MatchedDescription)
	assert.Equal(t, "Fideos", *fideos.MatchedDescription)
	require.NotNil(t, fideos.Price)
	assert.InDelta(t, 500.0, *fideos.Price, 1e-9)
	assert.Empty(t, fideos.Candidates)

	arroz := res.Items[1]
	assert.True(t, arroz.Found)
	assert.True(t, arroz.Ambiguous)
	assert.Nil(t, arroz.MatchedDescription)
	assert.Nil(t, arroz.Price)
	assert.Equal(t, []QuoteCandidate{
		{Description: "Arroz blanco 1kg", Price: 1000, Score: 10},
		{Description: "Arroz integral 1kg", Price: 1200, Score: 10},
	}, arroz.Candidates)

	assert.InDelta(t, 500.0, res.TotalEstimated, 1e-9)
}

func TestQuote_ClearWinnerCounts(t *testing.T) {
	ix := mustLoad(t, "description,list price\nPan lactal 500g,1200\nPan francés,800\n")

	res := ix.Quote([]QuoteItem{{Name: "Pan Lactal", QuantityText: "1 u"}})
	require.Len(t, res.Items, 1)
	assert.False(t, res.Items[0].Ambiguous)
	assert.Equal(t, "Pan lactal 500g", *res.Items[0].MatchedDescription)
	assert.InDelta(t, 1200.0, res.TotalEstimated, 1e-9)
}

func TestQuote_NotFound(t *testing.T) {
	ix := mustLoad(t, groceries)

	res := ix.Quote([]QuoteItem{{Name: "caviar"}, {Name: ""}})
	require.Len(t, res.Items, 2)
	for _, line := range res.Items {
		assert.False(t, line.Found)
		assert.False(t, line.Ambiguous)
		assert.Nil(t, line.Price)
		assert.NotNil(t, line.Candidates)
		assert.Empty(t, line.Candidates)
	}
	assert.Zero(t, res.TotalEstimated)
}

func TestQuote_NilItems(t *testing.T) {
	ix := mustLoad(t, groceries)

	res := ix.Quote(nil)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.TotalEstimated)
}

func TestQuote_JSONShape(t *testing.T) {
	ix := mustLoad(t, groceries)

	data, err := json.Marshal(ix.Quote([]QuoteItem{{Name: "caviar"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"items": [{
			"inputName": "caviar",
			"found": false,
			"ambiguous": false,
			"matchedDescription": null,
			"price": null,
			"candidates": []
		}],
		"totalEstimated": 0
	}`, string(data))
}
