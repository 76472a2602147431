package knowledge

import (
	"strings"
	"testing"
)

func TestLoadParsesAllCategories(t *testing.T) {
	kb, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	for _, category := range []string{"ventas", "caracteristicas", "facturacion", "pagos", "whatsapp", "cuenta", "app_movil", "otro"} {
		faqs := kb.FAQsFor(category)
		if !strings.Contains(faqs, "P: ") || !strings.Contains(faqs, "R: ") {
			t.Fatalf("category %s missing formatted entries: %q", category, faqs)
		}
	}
}

func TestFAQsForUnknownCategoryFallsBack(t *testing.T) {
	kb, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if kb.FAQsFor("inexistente") != kb.FAQsFor("otro") {
		t.Fatalf("unknown category must fall back to otro")
	}
}

func TestBusinessDocMentionsPlans(t *testing.T) {
	kb, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	doc := kb.BusinessDoc()
	for _, want := range []string{"Plan Gratis", "Plan Profesional", "21 días"} {
		if !strings.Contains(doc, want) {
			t.Fatalf("business doc missing %q", want)
		}
	}
}
