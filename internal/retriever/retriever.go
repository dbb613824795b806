package retriever

import (
	"context"
	"errors"
	"fmt"
	"log"

	"docchat/internal/index"
)

// NoDocumentsMessage takes the place of retrieved context when nothing has
// been ingested yet.
const NoDocumentsMessage = "No documents ingested yet. Please upload documents first."

const DefaultTopK = 5

// Searcher is the part of an index the retriever needs.
type Searcher interface {
	Query(ctx context.Context, text string, k int) ([]index.Hit, error)
}

// Passage is one retrieved chunk.
type Passage struct {
	Ordinal int
	Text    string
	Score   float32
}

// Result holds passages best first, or NoDocuments when there was nothing
// to search.
type Result struct {
	Passages    []Passage
	NoDocuments bool
}

// Texts returns the passage texts in rank order. For an empty corpus it
// returns the single sentinel message.
func (r Result) Texts() []string {
	if r.NoDocuments {
		return []string{NoDocumentsMessage}
	}
	out := make([]string, len(r.Passages))
	for i, p := range r.Passages {
		out[i] = p.Text
	}
	return out
}

type Retriever struct {
	topK int
}

func New(topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{topK: topK}
}

func (r *Retriever) TopK() int { return r.topK }

// Retrieve finds the chunks most relevant to query. chunks[i] must be the
// text indexed under ordinal i.
func (r *Retriever) Retrieve(ctx context.Context, query string, chunks []string, idx Searcher) (Result, error) {
	if len(chunks) == 0 || isNil(idx) {
		return Result{NoDocuments: true}, nil
	}

	hits, err := idx.Query(ctx, query, r.topK)
	if errors.Is(err, index.ErrIndexNotFound) {
		return Result{NoDocuments: true}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("retrieval failed: %w", err)
	}

	passages := make([]Passage, 0, len(hits))
	for _, h := range hits {
		if h.Ordinal < 0 || h.Ordinal >= len(chunks) {
			log.Printf("⚠️  Dropping hit with ordinal %d outside %d chunks", h.Ordinal, len(chunks))
			continue
		}
		passages = append(passages, Passage{Ordinal: h.Ordinal, Text: chunks[h.Ordinal], Score: h.Score})
	}
	log.Printf("🔍 Retrieved %d passages", len(passages))

	return Result{Passages: passages}, nil
}

// isNil catches a typed nil *index.Index hidden in the interface.
func isNil(s Searcher) bool {
	if s == nil {
		return true
	}
	if x, ok := s.(*index.Index); ok && x == nil {
		return true
	}
	return false
}
