package chunker

import (
	"strings"
)

// CreateChunk склеивает предложения через один пробел
func CreateChunk(ordinal int, sentences []string, source string) Chunk {
	text := strings.Join(sentences, " ")
	return Chunk{
		Ordinal:   ordinal,
		Text:      text,
		WordCount: CountWords(text),
		Source:    source,
	}
}

// CountWords считает токены, разделённые пробельными символами
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Texts возвращает тексты чанков в порядке ordinal
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Text
	}
	return out
}
