package ticket

import (
	"encoding/json"
	"net/url"
	"qr-checkin/model"
	"regexp"
	"strings"
)

var (
	ticketNumberPattern = regexp.MustCompile(`^TKT-\d{8}-\d{3}$`)
	partialPattern      = regexp.MustCompile(`^[a-zA-Z0-9]{1,4}$`)
)

// Classify maps a decoded QR payload to exactly one identifier kind. Rule
// order is authoritative: a payload that contains "TKT-" and also parses as a
// URL is a ticket number, never a URL.
func Classify(raw string) model.ScanIdentifier {
	if ticketNumberPattern.MatchString(raw) || strings.Contains(raw, "TKT-") {
		return model.ScanIdentifier{Kind: model.KindTicketNumber, Value: raw, Raw: raw}
	}

	if partialPattern.MatchString(raw) {
		return model.ScanIdentifier{Kind: model.KindPartialNumber, Value: raw, Raw: raw}
	}

	if strings.Contains(raw, "session_id=") {
		if u, err := url.Parse(raw); err == nil {
			if sessionId := u.Query().Get("session_id"); sessionId != "" {
				return model.ScanIdentifier{Kind: model.KindSessionID, Value: sessionId, Raw: raw}
			}
		}
		// unparsable or empty parameter, fall through
	}

	if strings.HasPrefix(raw, "{") {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return model.ScanIdentifier{Kind: model.KindUnknown, Value: raw, Raw: raw}
		}
		return model.ScanIdentifier{Kind: model.KindJSONPayload, Value: raw, Raw: raw, Payload: payload}
	}

	if strings.HasPrefix(raw, "cs_") {
		return model.ScanIdentifier{Kind: model.KindSessionID, Value: raw, Raw: raw}
	}

	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return model.ScanIdentifier{Kind: model.KindURL, Value: raw, Raw: raw}
	}

	// Unrecognized payloads are still tried as a full ticket number lookup
	// before giving up.
	return model.ScanIdentifier{Kind: model.KindUnknown, Value: raw, Raw: raw}
}
