package labeling

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is the number of images one worker labels sequentially.
	DefaultBatchSize = 20
	// DefaultConcurrency is the number of batches labeled in parallel.
	DefaultConcurrency = 10
	// DefaultCallTimeout bounds a single label-service call.
	DefaultCallTimeout = 30 * time.Second
)

// DispatchOptions configure LabelAll. Zero values fall back to defaults.
type DispatchOptions struct {
	BatchSize   int
	Concurrency int
	CallTimeout time.Duration
}

func (o DispatchOptions) withDefaults() DispatchOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	return o
}

// ReadFunc returns the raw bytes of an image by its identifier.
type ReadFunc func(id string) ([]byte, error)

// LabelAll labels every image in ids using src, dispatching contiguous
// batches of opts.BatchSize across opts.Concurrency workers. Within a batch
// images are labeled sequentially. A failure to read or label one image is
// logged and recorded as an empty label list; it never aborts the batch or
// the run. Cancelling ctx stops dispatching new batches, lets in-flight
// batches drain, and keeps partial results.
//
// Every id appears in the returned set exactly once. Each worker writes only
// its own batch's map; the merge happens on the calling goroutine after all
// workers finish.
func LabelAll(ctx context.Context, ids []string, read ReadFunc, src Source, opts DispatchOptions) ImageLabelSet {
	opts = opts.withDefaults()
	batches := partition(ids, opts.BatchSize)
	log.Info().
		Int("images", len(ids)).
		Int("batches", len(batches)).
		Int("concurrency", opts.Concurrency).
		Msg("labeling images")

	results := make([]ImageLabelSet, len(batches))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil // cancelled before this batch started
			}
			results[i] = labelBatch(ctx, batch, read, src, opts.CallTimeout)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	merged := make(ImageLabelSet, len(ids))
	for _, batchResult := range results {
		for id, labels := range batchResult {
			merged[id] = labels
		}
	}
	// Images in batches skipped after cancellation still get an entry.
	for _, id := range ids {
		if _, ok := merged[id]; !ok {
			merged[id] = nil
		}
	}
	return merged
}

func labelBatch(ctx context.Context, ids []string, read ReadFunc, src Source, timeout time.Duration) ImageLabelSet {
	out := make(ImageLabelSet, len(ids))
	for _, id := range ids {
		out[id] = labelOne(ctx, id, read, src, timeout)
	}
	return out
}

func labelOne(ctx context.Context, id string, read ReadFunc, src Source, timeout time.Duration) []Label {
	data, err := read(id)
	if err != nil {
		log.Warn().Err(err).Str("image", id).Msg("failed to read image")
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	labels, err := src.DetectLabels(callCtx, data)
	if err != nil {
		log.Warn().Err(err).Str("image", id).Msg("failed to label image")
		return nil
	}
	log.Debug().Str("image", id).Int("labels", len(labels)).Msg("image labeled")
	return labels
}

// partition splits ids into contiguous slices of size n; the last slice may
// be shorter.
func partition(ids []string, n int) [][]string {
	var batches [][]string
	for i := 0; i < len(ids); i += n {
		end := i + n
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}
