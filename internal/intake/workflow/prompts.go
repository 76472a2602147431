package workflow

import (
	"fmt"
	"strings"
)

const extractSystemPrompt = `Sos el asistente de una plataforma de servicios técnicos en Argentina.
Tu tarea es extraer información estructurada de mensajes de voz de clientes que solicitan servicios.

Extraé los siguientes campos cuando estén disponibles:
- title: Título corto del trabajo (ej: "Reparación de lavarropas")
- description: Descripción detallada del problema
- service_type: Tipo de servicio (refrigeracion, lavarropas, aire_acondicionado, electricidad, plomeria, gasista, cerrajeria, otros)
- address: Dirección completa
- city: Ciudad
- province: Provincia (Buenos Aires, Córdoba, Santa Fe, etc.)
- preferred_date: Fecha preferida (formato YYYY-MM-DD o texto como "mañana", "próxima semana")
- preferred_time: Horario preferido (mañana, tarde, noche, o rango horario)
- urgency: Nivel de urgencia (normal, urgente, emergencia)
- customer_name: Nombre del cliente
- appliance_brand: Marca del electrodoméstico
- appliance_model: Modelo del electrodoméstico
- problem_description: Descripción del problema técnico

Para cada campo extraído, asigná un nivel de confianza (0.0 a 1.0):
- 1.0: El cliente lo mencionó explícitamente
- 0.7-0.9: Se puede inferir con alta probabilidad
- 0.4-0.6: Se puede inferir pero con incertidumbre
- 0.0-0.3: Muy especulativo

Respondé SOLO con JSON válido.`

// historyWindow limits how many prior turns go into the extraction prompt.
const historyWindow = 10

func buildExtractUserPrompt(transcription string, history []ConversationMessage) string {
	historyText := "(Sin historial previo)"
	if len(history) > 0 {
		if len(history) > historyWindow {
			history = history[len(history)-historyWindow:]
		}
		lines := make([]string, 0, len(history))
		for _, msg := range history {
			lines = append(lines, fmt.Sprintf("[%s]: %s", msg.Role, msg.Content))
		}
		historyText = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`Historial de conversación:
%s

Nuevo mensaje de voz transcrito:
%q

Extraé la información del trabajo en formato JSON con los campos especificados.
Incluí un diccionario "field_confidences" con la confianza de cada campo.
Incluí "overall_confidence" como promedio ponderado de las confianzas.`, historyText, transcription)
}
