package constant

const (
	CheckinStreamName = "qr_checkin_stream"
)

const (
	AllWildcard     = "events.>"
	CheckinWildcard = "events.checkin.>"

	SubjectTicketScanned = "events.checkin.scanned"
	SubjectTicketEntered = "events.checkin.entered"
)
