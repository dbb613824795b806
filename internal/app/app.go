package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/extract"
	"docchat/internal/generation"
	"docchat/internal/index"
	"docchat/internal/pipeline"
	"docchat/internal/registry"
	"docchat/internal/retriever"
)

type App struct {
	cfg        *config.Config
	dataPath   string
	store      *index.Store
	segmenter  *chunker.Segmenter
	retriever  *retriever.Retriever
	registry   *registry.Registry
	bridge     *generation.Bridge
	pipeline   *pipeline.Pipeline
	checkModel bool

	in  io.Reader
	out io.Writer
}

func New(cfg *config.Config) (*App, error) {
	emb, err := embedding.New(embedding.Config{
		Provider:  cfg.Embed.Provider,
		URL:       cfg.Embed.URL,
		Key:       cfg.Embed.Key,
		Model:     cfg.Embed.Model,
		BatchSize: cfg.Embed.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	gen, err := generation.New(generation.Config{
		Provider: cfg.LLM.Provider,
		URL:      cfg.LLM.URL,
		Key:      cfg.LLM.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	a, err := newApp(cfg, emb, gen)
	if err != nil {
		return nil, err
	}
	a.checkModel = true
	return a, nil
}

func newApp(cfg *config.Config, emb embedding.Embedder, gen generation.Generator) (*App, error) {
	splitter, err := chunker.GetSplitter(cfg.SentenceSplitter)
	if err != nil {
		return nil, fmt.Errorf("failed to get sentence splitter: %w", err)
	}
	seg, err := chunker.NewSegmenter(splitter, cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	dataPath, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute data dir: %w", err)
	}

	reg, err := registry.Open(cfg.RegistryFile)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:      cfg,
		dataPath: dataPath,
		store:     index.NewStore(cfg.DataDir, emb, cfg.CompressIndex),
		segmenter: seg,
		retriever: retriever.New(cfg.TopK),
		registry:  reg,
		bridge:    generation.NewBridge(gen, cfg.LLM.Model, cfg.JoinTimeout),
		in:        os.Stdin,
		out:       os.Stdout,
	}

	app.pipeline, err = pipeline.New(pipeline.Config{
		Extractor: extract.New(),
		Segmenter: app.segmenter,
		Store:     app.store,
		Retriever: app.retriever,
		Bridge:    app.bridge,
		Registry:  reg,
		IndexID:   cfg.IndexID,
		DataPath:  dataPath,
	})
	if err != nil {
		reg.Close()
		return nil, err
	}

	return app, nil
}

// Init checks the model backend and restores the last published corpus.
func (a *App) Init(ctx context.Context) error {
	if a.checkModel {
		if err := ensureOllamaModels(ctx, a.cfg); err != nil {
			return fmt.Errorf("ollama model check failed: %w", err)
		}
	}
	a.restore(ctx)
	return nil
}

// restore republishes the corpus recorded in the registry. Anything that
// does not line up is discarded and the app starts empty.
func (a *App) restore(ctx context.Context) {
	m, chunks, err := a.registry.Active()
	if err != nil {
		log.Printf("⚠️  Registry unreadable, starting fresh: %v", err)
		a.resetRegistry()
		return
	}
	if m == nil {
		log.Printf("No existing corpus found, starting fresh")
		return
	}

	// Invalidate if data dir changed
	if m.DataPath != "" && m.DataPath != a.dataPath {
		log.Printf("Data directory changed from %s to %s, invalidating corpus...", m.DataPath, a.dataPath)
		if err := a.store.Remove(m.IndexID); err != nil {
			log.Printf("⚠️  %v", err)
		}
		a.resetRegistry()
		return
	}
	if m.IndexID != a.cfg.IndexID {
		log.Printf("Index id changed from %s to %s, starting fresh", m.IndexID, a.cfg.IndexID)
		a.resetRegistry()
		return
	}

	idx, err := a.store.Open(ctx, m.IndexID)
	if err != nil {
		log.Printf("⚠️  Failed to load index %s: %v", m.IndexID, err)
		a.resetRegistry()
		return
	}
	if idx.Len() != len(chunks) {
		log.Printf("⚠️  Index has %d vectors but registry lists %d chunks, starting fresh", idx.Len(), len(chunks))
		a.resetRegistry()
		return
	}

	a.pipeline.Restore(&pipeline.Corpus{
		IndexID: m.IndexID,
		Source:  m.Source,
		Chunks:  chunks,
		Index:   idx,
		BuiltAt: m.BuiltAt,
	})
	log.Printf("✅ Restored %s with %d chunks", m.Source, len(chunks))
}

func (a *App) resetRegistry() {
	if err := a.registry.Reset(); err != nil {
		log.Printf("⚠️  Failed to reset registry: %v", err)
	}
}

// Ingest loads one file into the pipeline.
func (a *App) Ingest(ctx context.Context, path string) error {
	// извлечение не отличает пустой файл от отсутствующего
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("file not found: %s", path)
	} else if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("not a file: %s", path)
	}
	if !extract.Supported(path) {
		return fmt.Errorf("unsupported format: %s", strings.ToLower(filepath.Ext(path)))
	}
	n, err := a.pipeline.Ingest(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Ingested %s: %d chunks\n", filepath.Base(path), n)
	return nil
}

func (a *App) Close() error {
	return a.registry.Close()
}
