// Package match scores detected image labels against inventory search text
// and decides the best product assignment per image.
package match

import (
	"strings"

	"github.com/mantra-bazaar/imagematch/internal/labeling"
)

// Scoring weights. The formula is a fixed contract: results must stay
// bit-for-bit reproducible across runs and refactors.
const (
	exactPhraseWeight = 1.5
	partialWordWeight = 0.5
	// partial-word bonuses only apply to words longer than this, to keep
	// short common fragments ("of", "box") from inflating scores
	minPartialWordLen = 3
)

// Score computes the additive match score between an image's labels and a
// product's search text, which the caller is expected to have lower-cased
// already (inventory.Record.SearchText is). It returns the score and the
// names of labels that contributed, deduplicated in first-contribution order.
//
// A label contributes via two independent rules: its full name found as a
// substring of the search text earns confidence * 1.5, and each of its words
// longer than three characters found as a substring earns confidence * 0.5,
// stacked. Substring containment is deliberate: it tolerates pluralization
// and compound nouns at the cost of awarding coincidental fragments embedded
// in longer words. That trade-off is accepted, not a bug.
func Score(labels []labeling.Label, searchText string) (float64, []string) {
	searchText = strings.ToLower(searchText)

	score := 0.0
	var matched []string
	seen := make(map[string]bool)

	for _, label := range labels {
		conf := label.Confidence / 100.0
		lname := strings.ToLower(label.Name)

		if strings.Contains(searchText, lname) {
			score += conf * exactPhraseWeight
			if !seen[lname] {
				matched = append(matched, lname)
				seen[lname] = true
			}
		}

		for _, word := range strings.Fields(lname) {
			if len(word) > minPartialWordLen && strings.Contains(searchText, word) {
				score += conf * partialWordWeight
				if !seen[lname] {
					matched = append(matched, lname)
					seen[lname] = true
				}
			}
		}
	}

	return score, matched
}
