package model

// TicketRecord mirrors one row of the ticket management sheet. The sheet is
// the source of truth; records are never deleted on the station side.
type TicketRecord struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Event            string `json:"event"`
	TicketType       string `json:"ticket_type"`
	TicketNumber     string `json:"ticket_number"`
	MainTicketNumber string `json:"main_ticket_number"`
	Amount           int64  `json:"amount"`
	PurchaseDate     string `json:"purchase_date"`
	PaymentStatus    string `json:"payment_status"`
	EntryStatus      string `json:"entry_status"`
	SessionID        string `json:"session_id"`
}

type RemoteConfig struct {
	Pin         string `json:"pin"`
	MaxAttempts int    `json:"max_attempts"`
}
