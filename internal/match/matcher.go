package match

import (
	"sort"

	"github.com/mantra-bazaar/imagematch/internal/inventory"
	"github.com/mantra-bazaar/imagematch/internal/labeling"
	"github.com/rs/zerolog/log"
)

// DefaultThreshold is the minimum score an image needs to be accepted.
const DefaultThreshold = 1.0

// Rejection reasons recorded on unmatched decisions.
const (
	ReasonNoLabels      = "no labels detected"
	ReasonLowConfidence = "low confidence match"
)

// Decision records the outcome for one image. Every image in the label set
// produces exactly one Decision. For unmatched images the product fields
// carry the best rejected candidate when one scored above zero, so the
// rejection can be audited.
type Decision struct {
	ImageID       string
	ProductID     string // empty when no candidate scored above zero
	ProductName   string
	Score         float64
	MatchedLabels []string
	Reason        string // empty on accepted matches
}

// Matched reports whether the decision accepted a product assignment.
func (d Decision) Matched() bool { return d.Reason == "" }

// Match assigns every image in labelSet to its best-scoring product, or
// rejects it with a reason. threshold <= 0 falls back to DefaultThreshold.
//
// Every product is scored for every image: a brute-force
// O(images x products x labels) scan. That is fine at catalog scale
// (thousands of products) and is a deliberate baseline; any indexed
// replacement must reproduce identical scores and identical tie-breaks.
// Ties keep the first-seen product, so inventory load order is part of the
// observable contract. Images are processed in sorted id order to keep the
// output deterministic.
func Match(labelSet labeling.ImageLabelSet, idx *inventory.Index, threshold float64) (matched, unmatched []Decision) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	ids := make([]string, 0, len(labelSet))
	for id := range labelSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, imageID := range ids {
		labels := labelSet[imageID]
		if len(labels) == 0 {
			unmatched = append(unmatched, Decision{
				ImageID: imageID,
				Reason:  ReasonNoLabels,
			})
			continue
		}

		bestScore := 0.0
		var bestRec *inventory.Record
		var bestMatched []string

		records := idx.Records()
		for i := range records {
			score, matchedNames := Score(labels, records[i].SearchText)
			// strict greater-than: ties keep the earlier record
			if score > bestScore {
				bestScore = score
				bestRec = &records[i]
				bestMatched = matchedNames
			}
		}

		d := Decision{
			ImageID:       imageID,
			Score:         bestScore,
			MatchedLabels: bestMatched,
		}
		if bestRec != nil {
			d.ProductID = bestRec.ProductID
			d.ProductName = bestRec.Name
		}

		if bestScore >= threshold && bestRec != nil {
			matched = append(matched, d)
		} else {
			d.Reason = ReasonLowConfidence
			unmatched = append(unmatched, d)
		}
	}

	log.Info().
		Int("matched", len(matched)).
		Int("unmatched", len(unmatched)).
		Float64("threshold", threshold).
		Msg("matching complete")
	return matched, unmatched
}
