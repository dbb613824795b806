package index

import (
	"context"
	"errors"
	"os"
	"testing"

	"docchat/internal/embedding"
)

type fakeEmbedder struct {
	fn func(texts []string) ([][]float32, error)
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return f.fn(texts)
}

var corpus = []string{
	"Go channels are typed conduits between goroutines.",
	"Bread dough needs flour, water, salt and yeast.",
	"The bbolt database stores keys in sorted buckets.",
	"Mountains are formed by tectonic plate collisions.",
}

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), embedding.NewHashEmbedder(512), true)
}

func TestBuild_IdentityRecall(t *testing.T) {
	ctx := context.Background()
	idx, err := newStore(t).Build(ctx, "docs", corpus)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if idx.Len() != len(corpus) {
		t.Fatalf("expected %d vectors, got %d", len(corpus), idx.Len())
	}
	for i, text := range corpus {
		hits, err := idx.Query(ctx, text, 1)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(hits) != 1 || hits[0].Ordinal != i {
			t.Errorf("query %d: expected ordinal %d first, got %+v", i, i, hits)
		}
	}
}

func TestQuery_OrderedAndClamped(t *testing.T) {
	ctx := context.Background()
	idx, err := newStore(t).Build(ctx, "docs", corpus)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	hits, err := idx.Query(ctx, "goroutines channels", 10)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != len(corpus) {
		t.Fatalf("expected k clamped to %d, got %d", len(corpus), len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not in descending order: %+v", hits)
		}
	}
	if hits[0].Ordinal != 0 {
		t.Errorf("expected chunk 0 first, got %+v", hits[0])
	}

	if hits, err := idx.Query(ctx, "anything", 0); err != nil || len(hits) != 0 {
		t.Errorf("k=0: expected no hits, got %v %v", hits, err)
	}
}

func TestBuild_EmptyIndex(t *testing.T) {
	calls := 0
	store := NewStore(t.TempDir(), &fakeEmbedder{fn: func(texts []string) ([][]float32, error) {
		calls++
		return nil, errors.New("should not be called")
	}}, false)

	idx, err := store.Build(context.Background(), "empty", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no embedding calls, got %d", calls)
	}
	hits, err := idx.Query(context.Background(), "q", 5)
	if err != nil || len(hits) != 0 {
		t.Errorf("expected no hits from empty index, got %v %v", hits, err)
	}
	if _, err := os.Stat(store.Path("empty")); err != nil {
		t.Errorf("expected artifact to exist: %v", err)
	}
}

func TestOpen_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	built, err := store.Build(ctx, "docs", corpus)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	opened, err := store.Open(ctx, "docs")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if opened.Len() != built.Len() {
		t.Fatalf("expected %d vectors after open, got %d", built.Len(), opened.Len())
	}

	for _, q := range []string{"bread flour", "sorted buckets", "tectonic"} {
		want, _ := built.Query(ctx, q, 3)
		got, err := opened.Query(ctx, q, 3)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("%q: expected %d hits, got %d", q, len(want), len(got))
		}
		for i := range want {
			if got[i].Ordinal != want[i].Ordinal {
				t.Errorf("%q: hit %d differs: %+v vs %+v", q, i, got[i], want[i])
			}
		}
	}
}

func TestBuild_OverwritesArtifact(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	if _, err := store.Build(ctx, "docs", corpus); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := store.Build(ctx, "docs", corpus[:2]); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	opened, err := store.Open(ctx, "docs")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if opened.Len() != 2 {
		t.Errorf("expected overwritten index with 2 vectors, got %d", opened.Len())
	}
}

func TestOpen_NotFound(t *testing.T) {
	_, err := newStore(t).Open(context.Background(), "missing")
	if !errors.Is(err, ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}

	var idx *Index
	if _, err := idx.Query(context.Background(), "q", 3); !errors.Is(err, ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound for nil index, got %v", err)
	}
}

func TestBuild_EmbeddingErrors(t *testing.T) {
	cases := map[string]func(texts []string) ([][]float32, error){
		"failure": func(texts []string) ([][]float32, error) {
			return nil, errors.New("backend down")
		},
		"count mismatch": func(texts []string) ([][]float32, error) {
			return [][]float32{{1, 0}}, nil
		},
		"dimension mismatch": func(texts []string) ([][]float32, error) {
			return [][]float32{{1, 0}, {0, 1, 0}}, nil
		},
	}
	for name, fn := range cases {
		store := NewStore(t.TempDir(), &fakeEmbedder{fn: fn}, true)
		_, err := store.Build(context.Background(), "docs", []string{"a", "b"})
		if !errors.Is(err, ErrEmbedding) {
			t.Errorf("%s: expected ErrEmbedding, got %v", name, err)
		}
		if _, err := os.Stat(store.Path("docs")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s: expected no artifact after failure", name)
		}
	}
}

func TestQuery_EmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	fail := false
	hash := embedding.NewHashEmbedder(32)
	store := NewStore(t.TempDir(), &fakeEmbedder{fn: func(texts []string) ([][]float32, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return hash.Embed(ctx, texts)
	}}, false)

	idx, err := store.Build(ctx, "docs", corpus)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	fail = true
	if _, err := idx.Query(ctx, "q", 2); !errors.Is(err, ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestQuery_TiesResolvedByOrdinal(t *testing.T) {
	ctx := context.Background()
	idx, err := newStore(t).Build(ctx, "docs", corpus)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// only chunk 3 mentions "tectonic", the others tie at the cut
	first, err := idx.Query(ctx, "tectonic", 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(first) != 2 || first[0].Ordinal != 3 || first[1].Ordinal != 0 {
		t.Fatalf("expected ordinals [3 0], got %+v", first)
	}
	for i := 0; i < 200; i++ {
		hits, err := idx.Query(ctx, "tectonic", 2)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(hits) != len(first) || hits[0] != first[0] || hits[1] != first[1] {
			t.Fatalf("run %d: expected %+v, got %+v", i, first, hits)
		}
	}
}
