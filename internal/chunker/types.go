package chunker

import "errors"

// ErrInvalidConfiguration возвращается при неверном размере чанка
var ErrInvalidConfiguration = errors.New("invalid chunker configuration")

// Chunk представляет единицу текста для векторизации
type Chunk struct {
	Ordinal   int    // Позиция чанка в последовательности (ключ для индекса)
	Text      string // Текст чанка
	WordCount int    // Количество слов (через пробелы)
	Source    string // Имя исходного файла
}

// Splitter - интерфейс детектора границ предложений
type Splitter interface {
	// Split разбивает текст на предложения в исходном порядке
	Split(text string) []string

	// Name возвращает название splitter'а для логирования
	Name() string
}
