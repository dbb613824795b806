package index

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"docchat/internal/embedding"
)

var (
	ErrEmbedding     = errors.New("embedding failed")
	ErrIndexNotFound = errors.New("index not found")
)

// Hit is one search result: the chunk ordinal and its inner-product score.
type Hit struct {
	Ordinal int
	Score   float32
}

// Store builds and opens persisted indexes under one data directory.
// Each index lives in a single chromem-go export file named after its id.
type Store struct {
	dir      string
	embedder embedding.Embedder
	compress bool
}

func NewStore(dir string, embedder embedding.Embedder, compress bool) *Store {
	return &Store{dir: dir, embedder: embedder, compress: compress}
}

// Path returns the artifact location for id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+s.ext())
}

func (s *Store) ext() string {
	if s.compress {
		return ".gob.gz"
	}
	return ".gob"
}

// Build embeds all chunk texts in one batch, indexes them by position and
// persists the result, replacing any previous artifact for id.
func (s *Store) Build(ctx context.Context, id string, chunks []string) (*Index, error) {
	if id == "" {
		return nil, errors.New("index id is empty")
	}

	db := chromem.NewDB()
	coll, err := db.CreateCollection(id, map[string]string{"embedder": s.embedder.Name()}, s.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	if len(chunks) > 0 {
		vectors, err := s.embedder.Embed(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbedding, len(vectors), len(chunks))
		}
		dim := len(vectors[0])
		docs := make([]chromem.Document, len(chunks))
		for i, v := range vectors {
			if len(v) == 0 || len(v) != dim {
				return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrEmbedding, i, len(v), dim)
			}
			docs[i] = chromem.Document{
				ID:        strconv.Itoa(i),
				Metadata:  map[string]string{"ordinal": strconv.Itoa(i)},
				Embedding: v,
				Content:   chunks[i],
			}
		}
		if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("failed to add documents: %w", err)
		}
	}

	if err := s.persist(db, id); err != nil {
		return nil, err
	}
	log.Printf("📦 Index %q built with %d vectors", id, coll.Count())

	return &Index{id: id, coll: coll, embedder: s.embedder}, nil
}

// persist exports to a temp file in the same directory and renames it over
// the artifact, so a reader never sees a partial file.
func (s *Store) persist(db *chromem.DB, id string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	tmp := filepath.Join(s.dir, "."+id+".tmp"+s.ext())
	if err := db.ExportToFile(tmp, s.compress, "", id); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to export index: %w", err)
	}
	if err := os.Rename(tmp, s.Path(id)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// Open loads the persisted index for id.
func (s *Store) Open(ctx context.Context, id string) (*Index, error) {
	path := s.Path(id)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat index file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(path, "", id); err != nil {
		return nil, fmt.Errorf("failed to import index: %w", err)
	}
	coll := db.GetCollection(id, s.embeddingFunc())
	if coll == nil {
		return nil, fmt.Errorf("%w: collection %q missing in %s", ErrIndexNotFound, id, path)
	}
	log.Printf("📂 Index %q loaded with %d vectors", id, coll.Count())

	return &Index{id: id, coll: coll, embedder: s.embedder}, nil
}

// Remove deletes the artifact for id. A missing file is not an error.
func (s *Store) Remove(id string) error {
	if err := os.Remove(s.Path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove index file: %w", err)
	}
	return nil
}

func (s *Store) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := s.embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("got %d vectors for 1 text", len(vectors))
		}
		return vectors[0], nil
	}
}

// Index is an immutable, searchable set of chunk vectors.
type Index struct {
	id       string
	coll     *chromem.Collection
	embedder embedding.Embedder
}

func (x *Index) ID() string { return x.id }

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	if x == nil || x.coll == nil {
		return 0
	}
	return x.coll.Count()
}

// Query returns up to k ordinals most similar to text, best first.
// Equal scores are ordered by ordinal.
func (x *Index) Query(ctx context.Context, text string, k int) ([]Hit, error) {
	if x == nil || x.coll == nil {
		return nil, ErrIndexNotFound
	}
	n := x.coll.Count()
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	vectors, err := x.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: no vector for query", ErrEmbedding)
	}

	// chromem's concurrent top-k picks arbitrarily among equal scores at the
	// cut, so rank everything and cut after the ordinal tie-break
	results, err := x.coll.QueryEmbedding(ctx, vectors[0], n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		ord, err := strconv.Atoi(r.ID)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{Ordinal: ord, Score: r.Similarity})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
