// Package pipeline ties extraction, segmentation, indexing, retrieval and
// generation together around one published corpus.
//
// The corpus (chunk texts plus the index built from them) is swapped as a
// single pointer, so a reader always sees chunks and index from the same
// ingest. Ingests are serialized; readers never block on them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"docchat/internal/chunker"
	"docchat/internal/generation"
	"docchat/internal/index"
	"docchat/internal/registry"
	"docchat/internal/retriever"
)

// Corpus is one immutable ingest result.
type Corpus struct {
	IndexID string
	Source  string
	Chunks  []string
	Index   *index.Index
	BuiltAt time.Time
}

// Extractor turns a file into plain text, returning "" on failure.
type Extractor interface {
	Extract(path string) string
}

// Recorder persists the published corpus so it can be restored later.
type Recorder interface {
	Publish(m registry.Manifest, chunks []string, file *registry.FileInfo) error
	Reset() error
}

type Config struct {
	Extractor Extractor
	Segmenter *chunker.Segmenter
	Store     *index.Store
	Retriever *retriever.Retriever
	Bridge    *generation.Bridge
	// Registry is optional.
	Registry Recorder
	IndexID  string
	DataPath string
}

type Pipeline struct {
	cfg     Config
	mu      sync.Mutex // serializes ingests
	current atomic.Pointer[Corpus]
}

func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case cfg.Segmenter == nil:
		return nil, errors.New("pipeline: segmenter is required")
	case cfg.Store == nil:
		return nil, errors.New("pipeline: index store is required")
	case cfg.Retriever == nil:
		return nil, errors.New("pipeline: retriever is required")
	case cfg.Bridge == nil:
		return nil, errors.New("pipeline: generation bridge is required")
	}
	if cfg.IndexID == "" {
		cfg.IndexID = "docs"
	}
	return &Pipeline{cfg: cfg}, nil
}

// Current returns the published corpus, or nil before the first ingest.
func (p *Pipeline) Current() *Corpus {
	return p.current.Load()
}

// Restore publishes a corpus loaded from disk without re-ingesting.
func (p *Pipeline) Restore(c *Corpus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current.Store(c)
}

// Ingest replaces the active corpus with the content of path and returns
// the number of chunks. On error the previous corpus stays published.
func (p *Pipeline) Ingest(ctx context.Context, path string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	source := filepath.Base(path)
	log.Printf("📄 Ingesting %s", path)

	text := p.cfg.Extractor.Extract(path)
	chunks, err := p.cfg.Segmenter.Segment(text, source)
	if err != nil {
		return 0, fmt.Errorf("failed to segment %s: %w", source, err)
	}
	texts := chunker.Texts(chunks)

	idx, err := p.cfg.Store.Build(ctx, p.cfg.IndexID, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to build index for %s: %w", source, err)
	}

	c := &Corpus{
		IndexID: idx.ID(),
		Source:  source,
		Chunks:  texts,
		Index:   idx,
		BuiltAt: time.Now(),
	}
	p.current.Store(c)
	p.record(c, path)

	log.Printf("✅ %s ingested: %d chunks", source, len(texts))
	return len(texts), nil
}

// record writes the manifest. A failure does not undo the in-memory
// publish; the registry is cleared instead so a restart does not restore a
// corpus that no longer matches the index file.
func (p *Pipeline) record(c *Corpus, path string) {
	if p.cfg.Registry == nil {
		return
	}

	var file *registry.FileInfo
	if info, err := os.Stat(path); err == nil {
		abs, _ := filepath.Abs(path)
		file = &registry.FileInfo{
			Path:         abs,
			Size:         info.Size(),
			LastModified: info.ModTime(),
			Chunks:       len(c.Chunks),
			IngestedAt:   c.BuiltAt,
		}
	}

	m := registry.Manifest{
		IndexID:  c.IndexID,
		Source:   c.Source,
		DataPath: p.cfg.DataPath,
		BuiltAt:  c.BuiltAt,
	}
	if err := p.cfg.Registry.Publish(m, c.Chunks, file); err != nil {
		log.Printf("⚠️  Failed to record corpus: %v", err)
		if err := p.cfg.Registry.Reset(); err != nil {
			log.Printf("⚠️  Failed to reset registry: %v", err)
		}
	}
}

// Answer is the outcome of one question: the context used and the token
// stream of the generated reply. The caller must drain or Close Stream.
type Answer struct {
	Context     []string
	NoDocuments bool
	Stream      *generation.Stream
}

// Answer retrieves context for query from one corpus snapshot and starts
// generating the reply.
func (p *Pipeline) Answer(ctx context.Context, query string) (*Answer, error) {
	var (
		chunks []string
		idx    *index.Index
	)
	if c := p.current.Load(); c != nil {
		chunks, idx = c.Chunks, c.Index
	}

	res, err := p.cfg.Retriever.Retrieve(ctx, query, chunks, idx)
	if err != nil {
		return nil, err
	}
	texts := res.Texts()

	stream := p.cfg.Bridge.Generate(ctx, BuildPrompt(texts, query))
	return &Answer{Context: texts, NoDocuments: res.NoDocuments, Stream: stream}, nil
}
