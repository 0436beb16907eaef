package labeling

import (
	"context"
	"errors"
	"testing"

	"github.com/mantra-bazaar/imagematch/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory LabelStore for cache tests.
type fakeStore struct {
	entries map[string][]storage.CachedLabel
	getErr  error
	setErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string][]storage.CachedLabel{}}
}

func (f *fakeStore) GetLabels(hash string) ([]storage.CachedLabel, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	labels, ok := f.entries[hash]
	return labels, ok, nil
}

func (f *fakeStore) SetLabels(hash string, labels []storage.CachedLabel) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[hash] = labels
	return nil
}

func (f *fakeStore) Close() error { return nil }

func TestCachedSourceMissThenHit(t *testing.T) {
	store := newFakeStore()
	inner := &stubSource{fn: func(image []byte) ([]Label, error) {
		return []Label{{Name: "cumin seeds", Confidence: 91.5}}, nil
	}}
	cached := NewCachedSource(inner, store)
	image := []byte("image-bytes")

	first, err := cached.DetectLabels(context.Background(), image)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, inner.calls)

	second, err := cached.DetectLabels(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "second call must be served from cache")
}

func TestCachedSourceDistinctImages(t *testing.T) {
	store := newFakeStore()
	inner := &stubSource{fn: func(image []byte) ([]Label, error) {
		return []Label{{Name: string(image), Confidence: 50}}, nil
	}}
	cached := NewCachedSource(inner, store)

	a, err := cached.DetectLabels(context.Background(), []byte("a"))
	require.NoError(t, err)
	b, err := cached.DetectLabels(context.Background(), []byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSourceStoreErrorsDegradeToLiveCall(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("database locked")
	store.setErr = errors.New("database locked")
	inner := &stubSource{fn: func(image []byte) ([]Label, error) {
		return []Label{{Name: "jar", Confidence: 60}}, nil
	}}
	cached := NewCachedSource(inner, store)

	labels, err := cached.DetectLabels(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Len(t, labels, 1)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSourceDoesNotCacheFailures(t *testing.T) {
	store := newFakeStore()
	inner := &stubSource{fn: func(image []byte) ([]Label, error) {
		return nil, errors.New("service unavailable")
	}}
	cached := NewCachedSource(inner, store)

	_, err := cached.DetectLabels(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Empty(t, store.entries)
}
