package chunker

import (
	"fmt"
	"log"
)

// Segmenter собирает предложения в чанки не меньше chunkSize слов
type Segmenter struct {
	splitter  Splitter
	chunkSize int
}

// NewSegmenter проверяет конфигурацию до любого I/O
func NewSegmenter(splitter Splitter, chunkSize int) (*Segmenter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfiguration, chunkSize)
	}
	if splitter == nil {
		return nil, fmt.Errorf("%w: sentence splitter is required", ErrInvalidConfiguration)
	}
	return &Segmenter{splitter: splitter, chunkSize: chunkSize}, nil
}

func (s *Segmenter) ChunkSize() int {
	return s.chunkSize
}

// Segment разбивает текст на чанки. Все чанки, кроме последнего, содержат
// не меньше chunkSize слов; границы всегда совпадают с границами предложений.
func (s *Segmenter) Segment(text, source string) ([]Chunk, error) {
	if s.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfiguration, s.chunkSize)
	}

	var chunks []Chunk
	var current []string
	words := 0

	for _, sent := range s.splitter.Split(text) {
		current = append(current, sent)
		words += CountWords(sent)
		if words >= s.chunkSize {
			chunks = append(chunks, CreateChunk(len(chunks), current, source))
			current = nil
			words = 0
		}
	}

	// Последний (возможно короткий) чанк
	if len(current) > 0 {
		chunks = append(chunks, CreateChunk(len(chunks), current, source))
	}

	log.Printf("✅ [%s] Created %d chunks (target %d words)", s.splitter.Name(), len(chunks), s.chunkSize)
	return chunks, nil
}
