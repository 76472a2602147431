package workflow

import (
	"fmt"
	"strings"
)

var serviceTypeLabels = map[string]string{
	"refrigeracion":      "Refrigeración",
	"lavarropas":         "Lavarropas",
	"aire_acondicionado": "Aire Acondicionado",
	"electricidad":       "Electricidad",
	"plomeria":           "Plomería",
	"gasista":            "Gasista",
	"cerrajeria":         "Cerrajería",
	"otros":              "Otros",
}

// FormatConfirmationMessage renders the extraction summary sent to the
// customer for confirmation. Only populated fields appear.
func FormatConfirmationMessage(extraction JobExtraction) string {
	parts := []string{"📝 *Resumen de tu pedido:*\n"}

	if extraction.Title != "" {
		parts = append(parts, fmt.Sprintf("✅ *Servicio:* %s", extraction.Title))
	}

	if extraction.ServiceType != "" {
		label, ok := serviceTypeLabels[extraction.ServiceType]
		if !ok {
			label = extraction.ServiceType
		}
		parts = append(parts, fmt.Sprintf("🔧 *Tipo:* %s", label))
	}

	if extraction.ApplianceBrand != "" {
		brandInfo := extraction.ApplianceBrand
		if extraction.ApplianceModel != "" {
			brandInfo += " " + extraction.ApplianceModel
		}
		parts = append(parts, fmt.Sprintf("📱 *Equipo:* %s", brandInfo))
	}

	if extraction.ProblemDescription != "" {
		parts = append(parts, fmt.Sprintf("❌ *Problema:* %s", extraction.ProblemDescription))
	}

	if extraction.Address != "" {
		addr := extraction.Address
		if extraction.City != "" {
			addr += ", " + extraction.City
		}
		if extraction.Province != "" {
			addr += fmt.Sprintf(" (%s)", extraction.Province)
		}
		parts = append(parts, fmt.Sprintf("📍 *Dirección:* %s", addr))
	}

	if extraction.PreferredDate != "" || extraction.PreferredTime != "" {
		var when []string
		if extraction.PreferredDate != "" {
			when = append(when, extraction.PreferredDate)
		}
		if extraction.PreferredTime != "" {
			when = append(when, extraction.PreferredTime)
		}
		parts = append(parts, fmt.Sprintf("📅 *Cuándo:* %s", strings.Join(when, " - ")))
	}

	if extraction.Urgency != "" && extraction.Urgency != "normal" {
		emoji := "🟡"
		if extraction.Urgency == "emergencia" {
			emoji = "🔴"
		}
		parts = append(parts, fmt.Sprintf("%s *Urgencia:* %s", emoji, capitalize(extraction.Urgency)))
	}

	parts = append(parts, "\n¿Es correcto? Respondé *Sí* para confirmar o contame qué debemos corregir.")

	return strings.Join(parts, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
