// Package extract turns uploaded files into plain text.
//
// Extraction never fails the caller: any error is logged and the
// document is treated as empty.
package extract

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
)

// Extractor picks a reader by file extension.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns the text of the file at path, or "" when it cannot be read.
func (e *Extractor) Extract(path string) string {
	text, err := e.extract(path)
	if err != nil {
		log.Printf("⚠️  Extraction failed for %s: %v", path, err)
		return ""
	}
	return text
}

func (e *Extractor) extract(path string) (text string, err error) {
	// pdf parsing panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while reading: %v", r)
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".docx":
		return readDOCX(path)
	case ".md", ".markdown":
		return readMarkdown(path)
	default:
		return readText(path)
	}
}

// Supported reports whether path has an extension with a dedicated reader.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx", ".md", ".markdown", ".txt", ".text":
		return true
	}
	return false
}

func wrap(kind string, err error) error {
	return fmt.Errorf("%s: %w", kind, err)
}
