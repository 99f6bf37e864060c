package model

type IdentifierKind string

const (
	KindTicketNumber  IdentifierKind = "ticket_number"
	KindPartialNumber IdentifierKind = "partial_number"
	KindSessionID     IdentifierKind = "session_id"
	KindJSONPayload   IdentifierKind = "json_payload"
	KindURL           IdentifierKind = "url"
	KindUnknown       IdentifierKind = "unknown"
)

// ScanIdentifier is the classified form of a decoded QR payload. Value holds
// the extracted identifier (ticket number, suffix, session id or URL), Raw the
// original decoded text. Payload is only set for KindJSONPayload.
type ScanIdentifier struct {
	Kind    IdentifierKind
	Value   string
	Raw     string
	Payload map[string]any
}
