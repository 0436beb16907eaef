// Package report turns match decisions into flat, exportable records: the
// matched and unmatched tables and the per-product summary. These tables are
// the run's auditable artifact; every labeled image appears in exactly one
// of them.
package report

import (
	"strings"

	"github.com/mantra-bazaar/imagematch/internal/inventory"
	"github.com/mantra-bazaar/imagematch/internal/match"
)

// MatchedRow is one accepted image-to-product assignment.
type MatchedRow struct {
	ImageID       string
	ProductID     string
	ProductName   string
	Score         float64
	MatchedLabels string // comma-joined label names that contributed score
}

// UnmatchedRow is one rejected image, carrying the best rejected candidate
// (when one scored above zero) and the rejection reason.
type UnmatchedRow struct {
	ImageID       string
	BestMatchID   string
	BestMatchName string
	Score         float64
	MatchedLabels string
	Reason        string
}

// SummaryRow counts accepted images per product. Products with zero matched
// images get no row; the summary is not zero-filled.
type SummaryRow struct {
	ProductID  string
	Name       string
	ImageCount int
}

// Report holds the three artifact tables of a run.
type Report struct {
	Matched   []MatchedRow
	Unmatched []UnmatchedRow
	Summary   []SummaryRow
}

// Summarize builds the artifact tables from match decisions. The summary is
// emitted in inventory order and joined against the inventory for product
// names, covering only products with at least one accepted match.
func Summarize(matched, unmatched []match.Decision, idx *inventory.Index) Report {
	var r Report

	counts := make(map[string]int)
	for _, d := range matched {
		r.Matched = append(r.Matched, MatchedRow{
			ImageID:       d.ImageID,
			ProductID:     d.ProductID,
			ProductName:   d.ProductName,
			Score:         d.Score,
			MatchedLabels: strings.Join(d.MatchedLabels, ", "),
		})
		counts[d.ProductID]++
	}

	for _, d := range unmatched {
		r.Unmatched = append(r.Unmatched, UnmatchedRow{
			ImageID:       d.ImageID,
			BestMatchID:   d.ProductID,
			BestMatchName: d.ProductName,
			Score:         d.Score,
			MatchedLabels: strings.Join(d.MatchedLabels, ", "),
			Reason:        d.Reason,
		})
	}

	emitted := make(map[string]bool)
	for _, rec := range idx.Records() {
		n := counts[rec.ProductID]
		if n == 0 || emitted[rec.ProductID] {
			continue
		}
		name := rec.Name
		if first, ok := idx.NameOf(rec.ProductID); ok {
			name = first
		}
		r.Summary = append(r.Summary, SummaryRow{
			ProductID:  rec.ProductID,
			Name:       name,
			ImageCount: n,
		})
		emitted[rec.ProductID] = true
	}

	return r
}
