package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/db"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
)

type fakeStore struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

type fakeEmbedder struct {
	emb    domain.ResidueEmbedding
	err    error
	called int
}

func (f *fakeEmbedder) EmbedResidues(_ context.Context, _ string) (domain.ResidueEmbedding, error) {
	f.called++
	return f.emb, f.err
}

func testEmbedding(t *testing.T) domain.ResidueEmbedding {
	t.Helper()
	emb, err := domain.NewResidueEmbedding([][]float64{
		{0.1, 0.2, 0.3},
		{0.4, 0.5, 0.6},
		{0.7, 0.8, 0.9},
	})
	if err != nil {
		t.Fatalf("NewResidueEmbedding: %v", err)
	}
	return emb
}

func TestCachedEmbedderMissThenHit(t *testing.T) {
	store := newFakeStore()
	inner := &fakeEmbedder{emb: testEmbedding(t)}
	cached := New(inner, store, "test:", nil, zap.NewNop())

	first, err := cached.EmbedResidues(context.Background(), "MKTAY")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if inner.called != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.called)
	}

	second, err := cached.EmbedResidues(context.Background(), "MKTAY")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if inner.called != 1 {
		t.Fatalf("expected cache hit, inner called %d times", inner.called)
	}

	if first.Len() != second.Len() || first.Dim() != second.Dim() {
		t.Fatalf("cached shape %dx%d != original %dx%d",
			second.Len(), second.Dim(), first.Len(), first.Dim())
	}
	for i := 0; i < first.Len(); i++ {
		a, b := first.Row(i), second.Row(i)
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("row %d col %d: cached %v != original %v", i, j, b[j], a[j])
			}
		}
	}
}

func TestCachedEmbedderDistinctSequencesGetDistinctKeys(t *testing.T) {
	store := newFakeStore()
	inner := &fakeEmbedder{emb: testEmbedding(t)}
	cached := New(inner, store, "test:", nil, zap.NewNop())

	if _, err := cached.EmbedResidues(context.Background(), "AAA"); err != nil {
		t.Fatalf("embed AAA: %v", err)
	}
	if _, err := cached.EmbedResidues(context.Background(), "CCC"); err != nil {
		t.Fatalf("embed CCC: %v", err)
	}
	if inner.called != 2 {
		t.Fatalf("expected 2 inner calls, got %d", inner.called)
	}
	if len(store.data) != 2 {
		t.Fatalf("expected 2 cache entries, got %d", len(store.data))
	}
}

func TestCachedEmbedderInnerError(t *testing.T) {
	wantErr := errors.New("upstream down")
	cached := New(&fakeEmbedder{err: wantErr}, newFakeStore(), "test:", nil, zap.NewNop())

	_, err := cached.EmbedResidues(context.Background(), "MKTAY")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
}

func TestCachedEmbedderStoreErrorsFallThrough(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	inner := &fakeEmbedder{emb: testEmbedding(t)}
	cached := New(inner, store, "test:", nil, zap.NewNop())

	if _, err := cached.EmbedResidues(context.Background(), "MKTAY"); err != nil {
		t.Fatalf("store failure should not fail the call: %v", err)
	}
	if inner.called != 1 {
		t.Fatalf("expected inner call on cache failure, got %d", inner.called)
	}
}

func TestCachedEmbedderCorruptEntryIgnored(t *testing.T) {
	store := newFakeStore()
	inner := &fakeEmbedder{emb: testEmbedding(t)}
	cached := New(inner, store, "test:", nil, zap.NewNop())

	key := cached.cacheKey("MKTAY")
	store.data[key] = []byte("not a matrix")

	if _, err := cached.EmbedResidues(context.Background(), "MKTAY"); err != nil {
		t.Fatalf("corrupt entry should fall through to inner: %v", err)
	}
	if inner.called != 1 {
		t.Fatalf("expected inner call, got %d", inner.called)
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	emb := testEmbedding(t)
	decoded, err := decodeMatrix(encodeMatrix(emb))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Len() != emb.Len() || decoded.Dim() != emb.Dim() {
		t.Fatalf("shape %dx%d != %dx%d", decoded.Len(), decoded.Dim(), emb.Len(), emb.Dim())
	}
	for i := 0; i < emb.Len(); i++ {
		a, b := emb.Row(i), decoded.Row(i)
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("row %d col %d: %v != %v", i, j, b[j], a[j])
			}
		}
	}
}

func TestDecodeMatrixLengthMismatch(t *testing.T) {
	data := encodeMatrix(testEmbedding(t))
	if _, err := decodeMatrix(data[:len(data)-8]); err == nil {
		t.Fatal("expected error for truncated data")
	}
}
