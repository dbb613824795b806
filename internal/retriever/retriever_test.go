package retriever

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"docchat/internal/embedding"
	"docchat/internal/index"
)

type stubSearcher struct {
	hits []index.Hit
	err  error
	k    int
}

func (s *stubSearcher) Query(_ context.Context, _ string, k int) ([]index.Hit, error) {
	s.k = k
	return s.hits, s.err
}

func TestRetrieve_EmptyCorpusSentinel(t *testing.T) {
	r := New(0)
	var nilIndex *index.Index

	for name, tc := range map[string]struct {
		chunks []string
		idx    Searcher
	}{
		"no chunks":     {nil, &stubSearcher{}},
		"nil searcher":  {[]string{"a"}, nil},
		"nil index":     {[]string{"a"}, nilIndex},
		"index missing": {[]string{"a"}, &stubSearcher{err: index.ErrIndexNotFound}},
	} {
		res, err := r.Retrieve(context.Background(), "q", tc.chunks, tc.idx)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if !res.NoDocuments {
			t.Errorf("%s: expected sentinel result", name)
		}
		if got := res.Texts(); !reflect.DeepEqual(got, []string{NoDocumentsMessage}) {
			t.Errorf("%s: unexpected texts %v", name, got)
		}
	}
}

func TestRetrieve_MapsOrdinalsInRankOrder(t *testing.T) {
	s := &stubSearcher{hits: []index.Hit{{Ordinal: 2, Score: 0.9}, {Ordinal: 7, Score: 0.8}, {Ordinal: 0, Score: 0.5}}}
	res, err := New(3).Retrieve(context.Background(), "q", []string{"zero", "one", "two"}, s)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if s.k != 3 {
		t.Errorf("expected k=3, got %d", s.k)
	}
	if got := res.Texts(); !reflect.DeepEqual(got, []string{"two", "zero"}) {
		t.Errorf("unexpected texts %v", got)
	}
}

func TestRetrieve_DefaultTopK(t *testing.T) {
	s := &stubSearcher{}
	if _, err := New(-1).Retrieve(context.Background(), "q", []string{"a"}, s); err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if s.k != DefaultTopK {
		t.Errorf("expected default k=%d, got %d", DefaultTopK, s.k)
	}
}

func TestRetrieve_PropagatesEmbeddingError(t *testing.T) {
	s := &stubSearcher{err: index.ErrEmbedding}
	if _, err := New(2).Retrieve(context.Background(), "q", []string{"a"}, s); !errors.Is(err, index.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestRetrieve_WithRealIndex(t *testing.T) {
	ctx := context.Background()
	chunks := []string{
		"Paris is the capital of France.",
		"The Go gopher is a mascot.",
		"Photosynthesis converts light into chemical energy.",
	}
	store := index.NewStore(t.TempDir(), embedding.NewHashEmbedder(256), false)
	idx, err := store.Build(ctx, "docs", chunks)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	res, err := New(1).Retrieve(ctx, "What is the capital of France?", chunks, idx)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(res.Passages) != 1 || res.Passages[0].Ordinal != 0 {
		t.Fatalf("expected the France chunk, got %+v", res.Passages)
	}
}
