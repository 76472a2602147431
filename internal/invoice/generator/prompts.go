package generator

import (
	"fmt"
	"strings"
)

const extractSystemPrompt = `Eres un sistema experto en extraer información de reportes de trabajo de técnicos en Argentina.

Tu tarea es analizar la transcripción de un reporte de voz de un técnico y extraer la información estructurada.

## Contexto
- Los técnicos reportan trabajo completado mediante notas de voz
- Mencionan: partes usadas, materiales, servicios realizados, tiempo trabajado
- Hablan en español argentino informal
- Pueden mencionar marcas, modelos, cantidades, precios

## Reglas de Extracción

### Partes/Materiales
- Extrae TODAS las partes y materiales mencionados
- Incluye cantidades ("dos caños", "3 metros de cable" → quantity: 3, unit: "metro")
- Unidades comunes: unidad, metro, kg, litro, rollo, caja
- Si no se menciona cantidad, asume 1

### Servicios/Mano de Obra
- Identifica todos los servicios realizados
- Tipos: diagnostico, reparacion, instalacion, mantenimiento, limpieza, calibracion
- Si menciona duración, extráela ("estuve 2 horas" → duration_minutes: 120)

### Tiempo
- arrival_time: hora de llegada si se menciona
- departure_time: hora de salida si se menciona
- total_labor_hours: tiempo total trabajado

### Estado Final
- equipment_status: funcionando, requiere_seguimiento, no_reparable
- follow_up_required: true si menciona volver o revisar después

## Formato de Salida
Responde SOLO con JSON válido siguiendo el schema proporcionado.`

const extractSchema = `{
  "job_summary": "string - brief summary",
  "work_performed": "string - detailed work description",
  "parts_used": [
    {
      "name": "string - part name",
      "quantity": "number - how many",
      "unit": "string - unidad, metro, kg, etc.",
      "source_text": "string - original text mentioning this"
    }
  ],
  "services_performed": [
    {
      "description": "string - what was done",
      "duration_minutes": "number or null",
      "service_type": "string - diagnostico, reparacion, instalacion, etc.",
      "source_text": "string"
    }
  ],
  "arrival_time": "string or null - e.g. '9:30'",
  "departure_time": "string or null",
  "total_labor_hours": "number or null",
  "equipment_status": "string - funcionando, requiere_seguimiento, no_reparable",
  "recommendations": "string or null",
  "follow_up_required": "boolean",
  "follow_up_notes": "string or null",
  "photos_mentioned": "boolean",
  "signature_obtained": "boolean"
}`

func buildExtractUserPrompt(transcription, serviceType, equipmentInfo string) string {
	if serviceType == "" {
		serviceType = "No especificado"
	}
	if equipmentInfo == "" {
		equipmentInfo = "No especificado"
	}

	var b strings.Builder
	b.WriteString("Analiza este reporte de voz de un técnico y extrae la información:\n\n")
	b.WriteString("TRANSCRIPCIÓN:\n")
	b.WriteString(transcription)
	b.WriteString("\n\nCONTEXTO DEL TRABAJO:\n")
	fmt.Fprintf(&b, "- Tipo de servicio: %s\n", serviceType)
	fmt.Fprintf(&b, "- Equipo: %s\n\n", equipmentInfo)
	b.WriteString("Extrae:\n")
	b.WriteString("1. Resumen del trabajo (job_summary)\n")
	b.WriteString("2. Trabajo realizado detallado (work_performed)\n")
	b.WriteString("3. Lista de partes/materiales usados (parts_used) con cantidades\n")
	b.WriteString("4. Lista de servicios realizados (services_performed)\n")
	b.WriteString("5. Tiempo trabajado si se menciona\n")
	b.WriteString("6. Estado final del equipo (equipment_status)\n")
	b.WriteString("7. Si requiere seguimiento (follow_up_required)\n")
	b.WriteString("8. Si menciona fotos o firma\n\n")
	b.WriteString("Responde en JSON siguiendo este schema exacto:\n")
	b.WriteString(extractSchema)
	return b.String()
}
