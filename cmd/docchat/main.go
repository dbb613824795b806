package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"docchat/internal/app"
	"docchat/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	// Парсим флаги командной строки
	dataDir := flag.String("data", "./data", "Data directory for the index and registry")
	indexID := flag.String("index-id", "docs", "Name of the vector index")
	ingest := flag.String("ingest", "", "Document to ingest before the prompt starts (optional)")
	flag.Parse()

	// Флаги, заданные явно, имеют приоритет над окружением и .env
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			os.Setenv("DATA_DIR", *dataDir)
		case "index-id":
			os.Setenv("INDEX_ID", *indexID)
		}
	})

	// Загружаем .env (опционально)
	_ = godotenv.Load()

	cfg := config.Config{}
	if err := config.Init(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("LLM: %s %s, embeddings: %s %s", cfg.LLM.Provider, cfg.LLM.Model, cfg.Embed.Provider, cfg.Embed.Model)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	a, err := app.New(&cfg)
	if err != nil {
		log.Fatalf("failed to create app: %v", err)
	}

	// Проверка Ollama, восстановление индекса
	// log.Fatalf не выполняет defer, поэтому bbolt закрываем вручную
	if err := a.Init(ctx); err != nil {
		a.Close()
		log.Fatalf("failed to initialize app: %v", err)
	}

	if *ingest != "" {
		if err := a.Ingest(ctx, *ingest); err != nil {
			log.Printf("❌ Ingest failed: %v", err)
		}
	}

	runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		log.Printf("⚠️  Failed to close registry: %v", err)
	}
	if runErr != nil {
		log.Fatalf("app stopped with error: %v", runErr)
	}
}
