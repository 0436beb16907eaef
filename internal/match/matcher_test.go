package match

import (
	"testing"

	"github.com/mantra-bazaar/imagematch/internal/inventory"
	"github.com/mantra-bazaar/imagematch/internal/labeling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T, rows ...map[string]string) *inventory.Index {
	t.Helper()
	var raw []inventory.Row
	for i, values := range rows {
		raw = append(raw, inventory.Row{Line: i + 2, Values: values})
	}
	idx, err := inventory.Build(raw, inventory.Options{})
	require.NoError(t, err)
	return idx
}

func TestMatchAcceptsAboveThreshold(t *testing.T) {
	idx := buildIndex(t,
		map[string]string{"product_id": "P1", "name": "Organic Cumin Seeds", "size": "200g pouch"},
		map[string]string{"product_id": "P2", "name": "Basmati Rice"},
	)
	labelSet := labeling.ImageLabelSet{
		"img/a.jpg": {{Name: "cumin seeds", Confidence: 90.0}},
	}

	matched, unmatched := Match(labelSet, idx, DefaultThreshold)
	require.Len(t, matched, 1)
	assert.Empty(t, unmatched)

	d := matched[0]
	assert.Equal(t, "img/a.jpg", d.ImageID)
	assert.Equal(t, "P1", d.ProductID)
	assert.Equal(t, "Organic Cumin Seeds", d.ProductName)
	assert.InDelta(t, 2.25, d.Score, 1e-9)
	assert.Equal(t, []string{"cumin seeds"}, d.MatchedLabels)
	assert.True(t, d.Matched())
}

func TestMatchEmptyLabelsAlwaysNoLabelsReason(t *testing.T) {
	idx := buildIndex(t,
		map[string]string{"product_id": "P1", "name": "Organic Cumin Seeds"},
	)
	labelSet := labeling.ImageLabelSet{
		"a.jpg": nil,
		"b.jpg": {},
	}

	matched, unmatched := Match(labelSet, idx, DefaultThreshold)
	assert.Empty(t, matched)
	require.Len(t, unmatched, 2)
	for _, d := range unmatched {
		assert.Equal(t, ReasonNoLabels, d.Reason)
		assert.Zero(t, d.Score)
		assert.Empty(t, d.ProductID, "no candidate is recorded for unlabeled images")
		assert.False(t, d.Matched())
	}
}

func TestMatchLowConfidenceCarriesBestCandidate(t *testing.T) {
	idx := buildIndex(t,
		map[string]string{"product_id": "P1", "name": "Basmati Rice"},
		map[string]string{"product_id": "P2", "name": "Organic Cumin Powder"},
	)
	// "cumin box" is not an exact phrase of any search text and "box" fails
	// the word-length filter, so only "cumin" earns 0.8*0.5 = 0.4 < 1.0
	labelSet := labeling.ImageLabelSet{
		"a.jpg": {{Name: "cumin box", Confidence: 80.0}},
	}

	matched, unmatched := Match(labelSet, idx, DefaultThreshold)
	assert.Empty(t, matched)
	require.Len(t, unmatched, 1)

	d := unmatched[0]
	assert.Equal(t, ReasonLowConfidence, d.Reason)
	assert.Equal(t, "P2", d.ProductID)
	assert.Equal(t, "Organic Cumin Powder", d.ProductName)
	assert.InDelta(t, 0.4, d.Score, 1e-9)
	assert.Equal(t, []string{"cumin box"}, d.MatchedLabels)
}

func TestMatchZeroScoreLeavesNoCandidate(t *testing.T) {
	idx := buildIndex(t,
		map[string]string{"product_id": "P1", "name": "Basmati Rice"},
	)
	labelSet := labeling.ImageLabelSet{
		"a.jpg": {{Name: "box", Confidence: 95.0}},
	}

	matched, unmatched := Match(labelSet, idx, DefaultThreshold)
	assert.Empty(t, matched)
	require.Len(t, unmatched, 1)

	// a score of zero never selects a candidate: the comparison is strictly
	// greater-than against an initial best of zero
	d := unmatched[0]
	assert.Equal(t, ReasonLowConfidence, d.Reason)
	assert.Empty(t, d.ProductID)
	assert.Empty(t, d.ProductName)
	assert.Zero(t, d.Score)
}

func TestMatchTieBreakKeepsFirstSeen(t *testing.T) {
	// two records with identical search text score identically; the earlier
	// record must win, reproducibly
	idx := buildIndex(t,
		map[string]string{"product_id": "P1", "name": "Cumin Seeds"},
		map[string]string{"product_id": "P2", "name": "Cumin Seeds"},
	)
	labelSet := labeling.ImageLabelSet{
		"a.jpg": {{Name: "cumin seeds", Confidence: 90.0}},
	}

	for i := 0; i < 20; i++ {
		matched, unmatched := Match(labelSet, idx, DefaultThreshold)
		require.Len(t, matched, 1)
		require.Empty(t, unmatched)
		require.Equal(t, "P1", matched[0].ProductID)
	}
}

func TestMatchEveryImageDecidedExactlyOnce(t *testing.T) {
	idx := buildIndex(t,
		map[string]string{"product_id": "P1", "name": "Organic Cumin Seeds"},
	)
	labelSet := labeling.ImageLabelSet{
		"a.jpg": {{Name: "cumin seeds", Confidence: 90.0}},
		"b.jpg": {{Name: "box", Confidence: 95.0}},
		"c.jpg": nil,
	}

	matched, unmatched := Match(labelSet, idx, DefaultThreshold)

	seen := make(map[string]int)
	for _, d := range matched {
		seen[d.ImageID]++
	}
	for _, d := range unmatched {
		seen[d.ImageID]++
	}
	require.Len(t, seen, len(labelSet))
	for id := range labelSet {
		assert.Equal(t, 1, seen[id], "image %s must appear exactly once", id)
	}
}

func TestMatchEmptyInventory(t *testing.T) {
	idx := buildIndex(t)
	labelSet := labeling.ImageLabelSet{
		"a.jpg": {{Name: "cumin seeds", Confidence: 90.0}},
	}

	matched, unmatched := Match(labelSet, idx, DefaultThreshold)
	assert.Empty(t, matched)
	require.Len(t, unmatched, 1)
	assert.Equal(t, ReasonLowConfidence, unmatched[0].Reason)
	assert.Empty(t, unmatched[0].ProductID)
}

func TestMatchDefaultThresholdFallback(t *testing.T) {
	idx := buildIndex(t,
		map[string]string{"product_id": "P1", "name": "Organic Cumin Seeds", "size": "200g pouch"},
	)
	labelSet := labeling.ImageLabelSet{
		"a.jpg": {{Name: "cumin seeds", Confidence: 90.0}},
	}

	matched, _ := Match(labelSet, idx, 0)
	require.Len(t, matched, 1)
}
