package labeling

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/mantra-bazaar/imagematch/internal/storage"
	"github.com/rs/zerolog/log"
)

// CachedSource wraps a Source with SQLite caching keyed by image content.
// Cache failures degrade to a live call and never abort labeling.
type CachedSource struct {
	inner Source
	store storage.LabelStore
}

// NewCachedSource creates a cached label source.
func NewCachedSource(inner Source, store storage.LabelStore) *CachedSource {
	return &CachedSource{inner: inner, store: store}
}

// hashImage creates a SHA256 hash of the image bytes.
func hashImage(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// DetectLabels implements the Source interface with caching.
func (c *CachedSource) DetectLabels(ctx context.Context, image []byte) ([]Label, error) {
	hash := hashImage(image)

	if c.store != nil {
		cached, found, err := c.store.GetLabels(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check label cache")
		} else if found {
			log.Debug().Str("hash", hash[:16]).Msg("label cache hit")
			labels := make([]Label, len(cached))
			for i, l := range cached {
				labels[i] = Label{Name: l.Name, Confidence: l.Confidence}
			}
			return labels, nil
		}
	}

	labels, err := c.inner.DetectLabels(ctx, image)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		entries := make([]storage.CachedLabel, len(labels))
		for i, l := range labels {
			entries[i] = storage.CachedLabel{Name: l.Name, Confidence: l.Confidence}
		}
		if err := c.store.SetLabels(hash, entries); err != nil {
			log.Warn().Err(err).Msg("failed to cache labels")
		} else {
			log.Debug().Str("hash", hash[:16]).Int("labels", len(labels)).Msg("cached labels")
		}
	}

	return labels, nil
}
