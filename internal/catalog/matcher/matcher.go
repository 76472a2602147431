// Package matcher scores free-text item descriptions against priced catalog
// entries. Matching is token-set based: cheap, deterministic, and good enough
// for the short noun phrases technicians dictate.
package matcher

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type filter values accepted by Match. TypeFilterPart restricts candidates
// to products, TypeFilterService to services.
const (
	TypeFilterPart    = "part"
	TypeFilterService = "service"
)

// Catalog entry type tags.
const (
	ItemTypeProduct = "product"
	ItemTypeService = "service"
)

// PriceItem is one read-only catalog entry.
type PriceItem struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Price       decimal.Decimal
	Unit        string
	Type        string
}

// Candidate is a scored catalog entry.
type Candidate struct {
	Item  PriceItem
	Score float64
}

// Result of a match: the best candidate when one survives the score floor,
// its confidence, and up to three runner-ups.
type Result struct {
	Best         *Candidate
	Confidence   float64
	Alternatives []Candidate
}

// Spanish stopwords stripped before scoring.
var stopwords = map[string]struct{}{
	"de": {}, "la": {}, "el": {}, "un": {}, "una": {},
	"para": {}, "con": {}, "por": {}, "y": {}, "en": {},
}

const (
	scoreFloor      = 0.2
	descriptionScale = 0.7
	unitBonus       = 0.1
	maxAlternatives = 3
)

// Match scores extractedName against the catalog and returns the best match,
// its confidence, and alternatives. typeFilter narrows candidates to products
// or services; a filter that matches nothing falls back to the full catalog.
// The function is pure and never fails.
func Match(extractedName, extractedUnit string, catalog []PriceItem, typeFilter string) Result {
	nameTokens := Tokenize(extractedName)
	if len(nameTokens) == 0 || len(catalog) == 0 {
		return Result{}
	}

	candidates := filterByType(catalog, typeFilter)
	if len(candidates) == 0 {
		candidates = catalog
	}

	scored := make([]Candidate, 0, len(candidates))
	for _, item := range candidates {
		score := scoreItem(nameTokens, extractedUnit, item)
		if score <= scoreFloor {
			continue
		}
		scored = append(scored, Candidate{Item: item, Score: score})
	}
	if len(scored) == 0 {
		return Result{}
	}

	// Stable keeps catalog order on ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	result := Result{
		Best:       &scored[0],
		Confidence: scored[0].Score,
	}
	if len(scored) > 1 {
		rest := scored[1:]
		if len(rest) > maxAlternatives {
			rest = rest[:maxAlternatives]
		}
		result.Alternatives = rest
	}
	return result
}

func scoreItem(nameTokens map[string]struct{}, extractedUnit string, item PriceItem) float64 {
	score := jaccard(nameTokens, Tokenize(item.Name))

	if item.Description != nil {
		if descScore := descriptionScale * jaccard(nameTokens, Tokenize(*item.Description)); descScore > score {
			score = descScore
		}
	}

	if extractedUnit != "" && strings.EqualFold(extractedUnit, item.Unit) {
		score += unitBonus
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func filterByType(catalog []PriceItem, typeFilter string) []PriceItem {
	var want string
	switch typeFilter {
	case TypeFilterPart:
		want = ItemTypeProduct
	case TypeFilterService:
		want = ItemTypeService
	default:
		return catalog
	}

	var filtered []PriceItem
	for _, item := range catalog {
		if item.Type == want {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Tokenize lowercases, strips non-word runes, splits on whitespace, removes
// stopwords, and drops tokens of length two or less.
func Tokenize(text string) map[string]struct{} {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(b.String()) {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if len([]rune(tok)) <= 2 {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
