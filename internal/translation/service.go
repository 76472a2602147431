// Package translation detects the language of a transcript and translates it
// into the business language when needed.
package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"fieldvoice_backend/platform/ai/completion"
	"fieldvoice_backend/platform/logger"
)

const detectPrompt = `Sos un detector y traductor de idiomas para un negocio de servicios de campo en Argentina.
Recibís la transcripción de un audio de un cliente. Determiná el idioma y, si no está en la lista de idiomas del negocio, traducila al español rioplatense preservando nombres propios, direcciones, números y marcas.

Idiomas del negocio: %s

Respondé SOLO un objeto JSON:
{"language_code": "código ISO 639-1", "language_name": "nombre del idioma en español", "confidence": 0.0-1.0, "translation": "texto traducido o null si no hace falta"}`

// supportedLanguages maps ISO 639-1 codes to the display names shown to
// operators. Codes outside the map fall back to whatever the model named.
var supportedLanguages = map[string]string{
	"es": "Español",
	"en": "English",
	"pt": "Português",
	"fr": "Français",
	"it": "Italiano",
	"de": "Deutsch",
	"zh": "中文",
	"ja": "日本語",
	"ko": "한국어",
	"ru": "Русский",
	"ar": "العربية",
	"he": "עברית",
}

func displayName(code, fallback string) string {
	if name, ok := supportedLanguages[code]; ok {
		return name
	}
	if fallback != "" {
		return fallback
	}
	return code
}

// Result is the outcome of detection plus optional translation. Text always
// holds the transcript to feed downstream: the translation when one was made,
// the original otherwise.
type Result struct {
	Text         string
	LanguageCode string
	LanguageName string
	Confidence   float64
	Translated   *string
}

// Completer is the completion surface the service needs.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// Service wraps the LLM for language detection and translation.
type Service struct {
	llm               Completer
	businessLanguages []string
	log               *logger.Logger
}

// NewService builds the service. businessLanguages are ISO 639-1 codes the
// business operates in; transcripts already in one of them pass through.
func NewService(llm Completer, businessLanguages []string, log *logger.Logger) *Service {
	if len(businessLanguages) == 0 {
		businessLanguages = []string{"es"}
	}
	return &Service{llm: llm, businessLanguages: businessLanguages, log: log}
}

type detectResponse struct {
	LanguageCode string  `json:"language_code"`
	LanguageName string  `json:"language_name"`
	Confidence   float64 `json:"confidence"`
	Translation  *string `json:"translation"`
}

// DetectAndTranslate analyzes the transcript. On LLM failure it returns a
// usable pass-through Result alongside the error so the pipeline can record
// a warning and continue with the original text.
func (s *Service) DetectAndTranslate(ctx context.Context, text string) (Result, error) {
	passthrough := Result{
		Text:         text,
		LanguageCode: s.businessLanguages[0],
		LanguageName: displayName(s.businessLanguages[0], ""),
		Confidence:   0.5,
	}

	// Too short to detect anything; assume the business language.
	if countNonSpace(text) < 3 {
		return passthrough, nil
	}

	raw, err := s.llm.Complete(ctx, completion.Request{
		System:      fmt.Sprintf(detectPrompt, strings.Join(s.businessLanguages, ", ")),
		User:        text,
		Temperature: 0.1,
		JSONOutput:  true,
	})
	if err != nil {
		return passthrough, fmt.Errorf("language detection: %w", err)
	}

	payload, ok := completion.ExtractJSONObject(raw)
	if !ok {
		return passthrough, fmt.Errorf("language detection: no JSON in model output")
	}

	var parsed detectResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return passthrough, fmt.Errorf("language detection: decode: %w", err)
	}

	code := strings.ToLower(strings.TrimSpace(parsed.LanguageCode))
	result := Result{
		Text:         text,
		LanguageCode: code,
		LanguageName: displayName(code, parsed.LanguageName),
		Confidence:   parsed.Confidence,
	}

	if s.isBusinessLanguage(result.LanguageCode) {
		return result, nil
	}

	if parsed.Translation != nil && strings.TrimSpace(*parsed.Translation) != "" {
		translated := strings.TrimSpace(*parsed.Translation)
		result.Text = translated
		result.Translated = &translated
		s.log.Info("transcript translated",
			"from", result.LanguageCode,
			"confidence", result.Confidence,
		)
	}

	return result, nil
}

func (s *Service) isBusinessLanguage(code string) bool {
	for _, lang := range s.businessLanguages {
		if strings.EqualFold(lang, code) {
			return true
		}
	}
	return false
}

func countNonSpace(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
