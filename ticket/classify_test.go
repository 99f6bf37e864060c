package ticket

import (
	"qr-checkin/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		expectedKind model.IdentifierKind
		expectedVal  string
	}{
		{
			name:         "full ticket number",
			raw:          "TKT-20250101-001",
			expectedKind: model.KindTicketNumber,
			expectedVal:  "TKT-20250101-001",
		},
		{
			name:         "ticket number embedded in url",
			raw:          "https://example.com/t/TKT-20250101-001",
			expectedKind: model.KindTicketNumber,
			expectedVal:  "https://example.com/t/TKT-20250101-001",
		},
		{
			name:         "malformed ticket number still ticket kind",
			raw:          "TKT-123",
			expectedKind: model.KindTicketNumber,
			expectedVal:  "TKT-123",
		},
		{
			name:         "short digits are partial",
			raw:          "042",
			expectedKind: model.KindPartialNumber,
			expectedVal:  "042",
		},
		{
			name:         "four alphanumerics are partial",
			raw:          "A1b2",
			expectedKind: model.KindPartialNumber,
			expectedVal:  "A1b2",
		},
		{
			name:         "five characters are not partial",
			raw:          "abcde",
			expectedKind: model.KindUnknown,
			expectedVal:  "abcde",
		},
		{
			name:         "session id url parameter",
			raw:          "https://example.com/success?session_id=cs_test_abc123",
			expectedKind: model.KindSessionID,
			expectedVal:  "cs_test_abc123",
		},
		{
			name:         "empty session id parameter falls through to url",
			raw:          "https://example.com/success?session_id=",
			expectedKind: model.KindURL,
			expectedVal:  "https://example.com/success?session_id=",
		},
		{
			name:         "json payload",
			raw:          `{"ticket_number":"TKT-20250101-001"}`,
			expectedKind: model.KindTicketNumber,
			expectedVal:  `{"ticket_number":"TKT-20250101-001"}`,
		},
		{
			name:         "json payload without ticket marker",
			raw:          `{"name":"John Doe"}`,
			expectedKind: model.KindJSONPayload,
			expectedVal:  `{"name":"John Doe"}`,
		},
		{
			name:         "broken json is unknown",
			raw:          `{"name":`,
			expectedKind: model.KindUnknown,
			expectedVal:  `{"name":`,
		},
		{
			name:         "bare checkout session id",
			raw:          "cs_test_abc123",
			expectedKind: model.KindSessionID,
			expectedVal:  "cs_test_abc123",
		},
		{
			name:         "absolute url",
			raw:          "https://example.com/whatever",
			expectedKind: model.KindURL,
			expectedVal:  "https://example.com/whatever",
		},
		{
			name:         "free text is unknown",
			raw:          "hello world",
			expectedKind: model.KindUnknown,
			expectedVal:  "hello world",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id := Classify(tc.raw)

			assert.Equal(t, tc.expectedKind, id.Kind)
			assert.Equal(t, tc.expectedVal, id.Value)
			assert.Equal(t, tc.raw, id.Raw)
		})
	}
}

func TestClassifyJSONPayloadKeepsFields(t *testing.T) {
	id := Classify(`{"name":"John Doe","seat":"A1"}`)

	assert.Equal(t, model.KindJSONPayload, id.Kind)
	assert.Equal(t, "John Doe", id.Payload["name"])
	assert.Equal(t, "A1", id.Payload["seat"])
}
