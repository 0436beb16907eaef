// Package labeling turns image bytes into visual-content labels via an
// external recognition service, with batched parallel dispatch and caching.
package labeling

import "context"

// Label is one visual concept detected in an image.
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // 0-100
}

// ImageLabelSet maps an image identifier to the labels detected in it.
// An empty or nil list means no visual evidence was obtained.
type ImageLabelSet map[string][]Label

// Options bound what a label source returns.
type Options struct {
	MaxLabels     int     // at most this many labels per image
	MinConfidence float64 // drop labels below this confidence (0-100)
}

// DefaultOptions match the cutoffs the matching formula was tuned with.
var DefaultOptions = Options{MaxLabels: 50, MinConfidence: 30}

// apply enforces the MaxLabels and MinConfidence cutoffs client-side,
// regardless of whether the backing service honored them.
func (o Options) apply(labels []Label) []Label {
	kept := labels[:0]
	for _, l := range labels {
		if o.MinConfidence > 0 && l.Confidence < o.MinConfidence {
			continue
		}
		kept = append(kept, l)
	}
	if o.MaxLabels > 0 && len(kept) > o.MaxLabels {
		kept = kept[:o.MaxLabels]
	}
	return kept
}

// Source produces visual labels for a single image. Implementations must be
// safe for concurrent use; the dispatcher calls DetectLabels from multiple
// workers.
type Source interface {
	// DetectLabels returns the labels detected in the image, unordered,
	// bounded by the source's Options.
	DetectLabels(ctx context.Context, image []byte) ([]Label, error)
}

// Usage tracks accumulated token usage and cost across label calls.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}
