// Package knowledge holds the static support knowledge base: per-category
// FAQ entries and the business document shown for sales questions.
package knowledge

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed faq.yaml
var faqYAML []byte

//go:embed business.md
var businessDoc string

// FAQ is one question/answer pair.
type FAQ struct {
	Question string `yaml:"q"`
	Answer   string `yaml:"a"`
}

// Base is the loaded knowledge base. Read-only after Load.
type Base struct {
	faqs map[string][]FAQ
}

// Load parses the embedded FAQ database.
func Load() (*Base, error) {
	faqs := make(map[string][]FAQ)
	if err := yaml.Unmarshal(faqYAML, &faqs); err != nil {
		return nil, fmt.Errorf("parse faq database: %w", err)
	}
	if len(faqs["otro"]) == 0 {
		return nil, fmt.Errorf("faq database missing fallback category")
	}
	return &Base{faqs: faqs}, nil
}

// FAQsFor returns the formatted FAQ entries for a category. Unknown
// categories fall back to "otro".
func (b *Base) FAQsFor(category string) string {
	entries, ok := b.faqs[category]
	if !ok {
		entries = b.faqs["otro"]
	}

	formatted := make([]string, 0, len(entries))
	for _, faq := range entries {
		formatted = append(formatted, fmt.Sprintf("P: %s\nR: %s", faq.Question, faq.Answer))
	}
	return strings.Join(formatted, "\n\n")
}

// BusinessDoc returns the full business knowledge document.
func (b *Base) BusinessDoc() string {
	return businessDoc
}
