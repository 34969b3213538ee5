package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/PepegaBot/horoj-haniya-final/go/internal/room"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDeck []byte

// ErrEmptyDeck is returned when a deck file lists no prompts.
var ErrEmptyDeck = errors.New("prompt deck is empty")

type deckFile struct {
	Prompts []struct {
		En string `yaml:"en"`
		Ar string `yaml:"ar"`
	} `yaml:"prompts"`
}

// Default returns the embedded built-in deck.
func Default() []room.PromptPair {
	pairs, err := Parse(defaultDeck)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt deck is invalid: %v", err))
	}
	return pairs
}

// Load reads a deck from path. An empty path returns the built-in deck.
func Load(path string) ([]room.PromptPair, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt deck: %w", err)
	}
	pairs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt deck %s: %w", path, err)
	}
	return pairs, nil
}

// Parse decodes a YAML deck. Every entry must carry text in both locales.
func Parse(data []byte) ([]room.PromptPair, error) {
	var f deckFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Prompts) == 0 {
		return nil, ErrEmptyDeck
	}

	pairs := make([]room.PromptPair, 0, len(f.Prompts))
	for i, p := range f.Prompts {
		en, ar := strings.TrimSpace(p.En), strings.TrimSpace(p.Ar)
		if en == "" || ar == "" {
			return nil, fmt.Errorf("prompt %d is missing a locale", i)
		}
		pairs = append(pairs, room.PromptPair{En: en, Ar: ar})
	}
	return pairs, nil
}
