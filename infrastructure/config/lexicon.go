package config

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
	"gopkg.in/yaml.v3"
)

// LexiconFile is the YAML layout of CONFIG_FILE:
//
//	version: "2"
//	emotions:
//	  happy: [happy, joyful]
//	  calm: [calm]
type LexiconFile struct {
	Version  string              `yaml:"version"`
	Emotions map[string][]string `yaml:"emotions"`
}

// LoadLexicon reads and validates a lexicon file
func LoadLexicon(path string) (emotion.Lexicon, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return emotion.Lexicon{}, "", fmt.Errorf("failed to read lexicon file: %w", err)
	}
	return ParseLexicon(data)
}

// ParseLexicon decodes YAML into a lexicon. Every category needs at least one keyword.
func ParseLexicon(data []byte) (emotion.Lexicon, string, error) {
	var file LexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return emotion.Lexicon{}, "", fmt.Errorf("failed to parse lexicon YAML: %w", err)
	}

	table := make(map[emotion.Category][]string, len(file.Emotions))
	for name, words := range file.Emotions {
		c, err := emotion.ParseCategory(name)
		if err != nil {
			return emotion.Lexicon{}, "", err
		}
		table[c] = words
	}

	lex, err := emotion.NewLexicon(table)
	if err != nil {
		return emotion.Lexicon{}, "", err
	}
	for _, c := range emotion.Categories() {
		if len(lex.Keywords(c)) == 0 {
			return emotion.Lexicon{}, "", fmt.Errorf("lexicon: no keywords for %s", c)
		}
	}
	return lex, file.Version, nil
}

// ClassifierHolder is an emotion.Scorer whose classifier can be replaced at
// runtime. Each classifier it hands out is immutable; a swap only affects
// texts classified afterwards.
type ClassifierHolder struct {
	current atomic.Pointer[emotion.Classifier]
}

func NewClassifierHolder(lex emotion.Lexicon) *ClassifierHolder {
	h := &ClassifierHolder{}
	h.current.Store(emotion.NewClassifier(lex))
	return h
}

func (h *ClassifierHolder) Classify(text string) emotion.Vector {
	return h.current.Load().Classify(text)
}

// Swap installs a classifier built from lex
func (h *ClassifierHolder) Swap(lex emotion.Lexicon) {
	h.current.Store(emotion.NewClassifier(lex))
}

// Lexicon returns the keyword table currently in use
func (h *ClassifierHolder) Lexicon() emotion.Lexicon {
	return h.current.Load().Lexicon()
}
