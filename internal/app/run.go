package app

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

func (a *App) Run(ctx context.Context) error {
	log.Println("Application started")
	log.Println("Enter a file path to ingest, a question to ask, or /status. Ctrl+C to exit.")

	scanner := bufio.NewScanner(a.in)

	// Увеличим буфер, если пути/строки будут длинные
	const maxLineSize = 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down application")
			return nil
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("stdin error: %w", err)
				}
				// EOF
				log.Println("stdin closed")
				return nil
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			a.handleLine(ctx, line)
		}
	}
}

func (a *App) handleLine(ctx context.Context, line string) {
	switch {
	case line == "/status":
		a.printStatus()
		return
	case strings.HasPrefix(line, "/ingest "):
		a.handleFile(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/ingest ")))
		return
	}

	// Строка с путём к существующему файлу = загрузка документа
	if info, err := os.Stat(line); err == nil && !info.IsDir() {
		a.handleFile(ctx, line)
		return
	}

	a.handleQuestion(ctx, line)
}

func (a *App) handleFile(ctx context.Context, path string) {
	log.Printf("Received file: %s", path)
	if err := a.Ingest(ctx, path); err != nil {
		log.Printf("❌ Ingest failed: %v", err)
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
}

func (a *App) handleQuestion(ctx context.Context, question string) {
	ans, err := a.pipeline.Answer(ctx, question)
	if err != nil {
		log.Printf("❌ Search error: %v", err)
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	defer ans.Stream.Close()

	log.Printf("🔍 Using %d context passages", len(ans.Context))

	// Печатаем токены по мере поступления
	for {
		tok, ok := ans.Stream.Next(ctx)
		if !ok {
			break
		}
		fmt.Fprint(a.out, tok)
	}
	fmt.Fprintln(a.out)

	if err := ans.Stream.Err(); err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
}

func (a *App) printStatus() {
	c := a.pipeline.Current()
	if c == nil {
		fmt.Fprintln(a.out, "No documents ingested yet.")
	} else {
		fmt.Fprintf(a.out, "Active corpus: %s (%d chunks, index %s, built %s)\n",
			c.Source, len(c.Chunks), c.Index.ID(), c.BuiltAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(a.out, "Chunk size: %d words, top-k: %d\n", a.segmenter.ChunkSize(), a.retriever.TopK())

	files, err := a.registry.Files()
	if err != nil {
		log.Printf("⚠️  Failed to list files: %v", err)
		return
	}
	for _, f := range files {
		fmt.Fprintf(a.out, "  %s  %d bytes, %d chunks, ingested %s\n",
			filepath.Base(f.Path), f.Size, f.Chunks, f.IngestedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(a.out, "Active generations: %d\n", a.bridge.Active())
}
