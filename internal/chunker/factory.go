package chunker

import (
	"fmt"
	"strings"
)

// GetSplitter возвращает детектор предложений по названию метода
func GetSplitter(method string) (Splitter, error) {
	switch strings.ToLower(method) {
	case "punkt", "":
		return NewPunktSplitter()
	case "regex", "simple":
		return NewRegexSplitter(), nil
	default:
		return nil, fmt.Errorf("unknown sentence splitter: %s", method)
	}
}
