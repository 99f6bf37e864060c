package model

const (
	ScanResultResolved     = "resolved"
	ScanResultNotFound     = "not_found"
	ScanResultAmbiguous    = "ambiguous"
	ScanResultNetworkError = "network_error"
	ScanResultEntered      = "entered"
)

type CheckinEventMessage struct {
	Station      string `json:"station"`
	TicketNumber string `json:"ticket_number,omitempty"`
	RawPayload   string `json:"raw_payload"`
	Kind         string `json:"kind"`
	Result       string `json:"result"`
	ScannedAt    string `json:"scanned_at"`
}
