package http

import (
	"net/http"
	"qr-checkin/model"
	"qr-checkin/outbound/sqlgen"
	"strconv"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type HistoryHttp struct {
	Querier *sqlgen.Queries
}

func RegisterHistoryHttp(mux *http.ServeMux, querier *sqlgen.Queries) *HistoryHttp {
	in := &HistoryHttp{Querier: querier}

	mux.HandleFunc("GET /api/checkins", in.list)

	return in
}

func (in HistoryHttp) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxHistoryLimit)
		}
	}

	logs, err := in.Querier.ListRecentScanLogs(r.Context(), int32(limit))
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	checkins := make([]model.CheckinLogResponse, 0, len(logs))
	for _, row := range logs {
		checkins = append(checkins, model.CheckinLogResponse{
			ID:           row.ID,
			Station:      row.Station,
			TicketNumber: row.TicketNumber.String,
			RawPayload:   row.RawPayload,
			Kind:         row.Kind,
			Result:       row.Result,
			ScannedAt:    row.ScannedAt.Time.UTC().Format(time.RFC3339),
		})
	}

	writeJSONResponse(w, http.StatusOK, model.ListCheckinsResponse{Checkins: checkins})
}
