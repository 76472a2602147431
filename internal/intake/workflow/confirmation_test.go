package workflow

import (
	"strings"
	"testing"
)

func TestFormatConfirmationMessageFullExtraction(t *testing.T) {
	msg := FormatConfirmationMessage(JobExtraction{
		Title:              "Reparación de heladera",
		ServiceType:        "refrigeracion",
		ApplianceBrand:     "Samsung",
		ApplianceModel:     "RT38",
		ProblemDescription: "No enfría",
		Address:            "Av. Belgrano 1250",
		City:               "Salta",
		Province:           "Salta",
		PreferredDate:      "mañana",
		PreferredTime:      "tarde",
		Urgency:            "urgente",
	})

	for _, want := range []string{
		"📝 *Resumen de tu pedido:*",
		"Reparación de heladera",
		"Refrigeración",
		"Samsung RT38",
		"No enfría",
		"Av. Belgrano 1250, Salta (Salta)",
		"mañana - tarde",
		"🟡 *Urgencia:* Urgente",
		"¿Es correcto?",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected message to contain %q, got:\n%s", want, msg)
		}
	}
}

func TestFormatConfirmationMessageOmitsEmptyFields(t *testing.T) {
	msg := FormatConfirmationMessage(JobExtraction{
		Title: "Revisión de aire acondicionado",
	})

	if strings.Contains(msg, "*Tipo:*") {
		t.Fatal("expected no service type line")
	}
	if strings.Contains(msg, "*Equipo:*") {
		t.Fatal("expected no appliance line")
	}
	if strings.Contains(msg, "*Dirección:*") {
		t.Fatal("expected no address line")
	}
	if !strings.Contains(msg, "Revisión de aire acondicionado") {
		t.Fatal("expected title present")
	}
	if !strings.Contains(msg, "¿Es correcto?") {
		t.Fatal("expected closing prompt")
	}
}

func TestFormatConfirmationMessageNormalUrgencyHidden(t *testing.T) {
	msg := FormatConfirmationMessage(JobExtraction{
		Title:   "Cambio de canilla",
		Urgency: "normal",
	})
	if strings.Contains(msg, "Urgencia") {
		t.Fatal("expected normal urgency to be omitted")
	}
}

func TestFormatConfirmationMessageEmergencyEmoji(t *testing.T) {
	msg := FormatConfirmationMessage(JobExtraction{
		Title:   "Pérdida de gas",
		Urgency: "emergencia",
	})
	if !strings.Contains(msg, "🔴 *Urgencia:* Emergencia") {
		t.Fatalf("expected red urgency marker, got:\n%s", msg)
	}
}

func TestFormatConfirmationMessageUnknownServiceTypePassesThrough(t *testing.T) {
	msg := FormatConfirmationMessage(JobExtraction{
		ServiceType: "jardineria",
	})
	if !strings.Contains(msg, "🔧 *Tipo:* jardineria") {
		t.Fatalf("expected raw tag pass-through, got:\n%s", msg)
	}
}
