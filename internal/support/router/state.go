// Package router runs the support chat graph: classify the question,
// answer it from the knowledge base, and escalate when the bot cannot help.
package router

// Support categories. Unrecognized classifier output is coerced to
// CategoryOther.
const (
	CategorySales     = "ventas"
	CategoryFeatures  = "caracteristicas"
	CategoryBilling   = "facturacion"
	CategoryPayments  = "pagos"
	CategoryWhatsApp  = "whatsapp"
	CategoryAccount   = "cuenta"
	CategoryMobileApp = "app_movil"
	CategoryOther     = "otro"
)

var validCategories = map[string]struct{}{
	CategorySales:     {},
	CategoryFeatures:  {},
	CategoryBilling:   {},
	CategoryPayments:  {},
	CategoryWhatsApp:  {},
	CategoryAccount:   {},
	CategoryMobileApp: {},
	CategoryOther:     {},
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State flows through the support graph.
type State struct {
	Messages       []Message
	UserID         string
	OrganizationID string
	SessionID      string

	Category     string
	LastResponse string
	Escalate     bool
	Resolved     bool
}

// lastUserMessage returns the content of the most recent user turn.
func (s State) lastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == "user" {
			return s.Messages[i].Content
		}
	}
	return ""
}
