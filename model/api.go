package model

type ErrorResponse struct {
	Error string `json:"error"`
	Data  any    `json:"data,omitempty"`
}

type ScanRequest struct {
	Payload string `json:"payload" validate:"required,max=4296"`
}

type TicketResponse struct {
	Ticket          TicketRecord `json:"ticket"`
	Source          string       `json:"source"`
	AmountFormatted string       `json:"amount_formatted"`
	CanEnter        bool         `json:"can_enter"`
}

type CheckinLogResponse struct {
	ID           int32  `json:"id"`
	Station      string `json:"station"`
	TicketNumber string `json:"ticket_number,omitempty"`
	RawPayload   string `json:"raw_payload"`
	Kind         string `json:"kind"`
	Result       string `json:"result"`
	ScannedAt    string `json:"scanned_at"`
}

type ListCheckinsResponse struct {
	Checkins []CheckinLogResponse `json:"checkins"`
}
