package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// PunktSplitter делит текст на предложения обученной моделью punkt
type PunktSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSplitter загружает встроенную английскую модель punkt
func NewPunktSplitter() (*PunktSplitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load punkt model: %w", err)
	}
	return &PunktSplitter{tokenizer: tokenizer}, nil
}

func (p *PunktSplitter) Name() string {
	return "punkt"
}

func (p *PunktSplitter) Split(text string) []string {
	var out []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if sent := strings.TrimSpace(s.Text); sent != "" {
			out = append(out, sent)
		}
	}
	return out
}

// RegexSplitter режет по терминальной пунктуации; хвост без точки тоже считается предложением
type RegexSplitter struct {
	pattern *regexp.Regexp
}

func NewRegexSplitter() *RegexSplitter {
	return &RegexSplitter{
		pattern: regexp.MustCompile(`[^.!?]+(?:[.!?]+["')\]]*|$)`),
	}
}

func (r *RegexSplitter) Name() string {
	return "regex"
}

func (r *RegexSplitter) Split(text string) []string {
	var out []string
	for _, s := range r.pattern.FindAllString(text, -1) {
		if sent := strings.TrimSpace(s); sent != "" {
			out = append(out, sent)
		}
	}
	return out
}
