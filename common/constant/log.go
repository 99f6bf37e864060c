package constant

const (
	LogFieldErr     = "err"
	LogFieldPayload = "payload"
	LogFieldTraceId = "trace_id"
	LogFieldTicket  = "ticket_number"
)
