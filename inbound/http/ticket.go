package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"qr-checkin/common"
	"qr-checkin/common/constant"
	"qr-checkin/common/errs"
	"qr-checkin/common/otel"
	"qr-checkin/model"
	"qr-checkin/ticket"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"golang.org/x/text/message"
)

// TicketHttp is the manual side of the station: operators type or paste a
// payload when the camera cannot read a code, and confirm entry from the
// result panel.
type TicketHttp struct {
	Cache                *ticket.Cache
	CacheClient          *redis.Client
	Resolver             *ticket.Resolver
	Updater              *ticket.Updater
	Validate             *validator.Validate
	YenCurrencyFormatter *message.Printer
}

func RegisterTicketHttp(
	mux *http.ServeMux,
	cfg *viper.Viper,
	cache *ticket.Cache,
	cacheClient *redis.Client,
	resolver *ticket.Resolver,
	updater *ticket.Updater,
	validate *validator.Validate,
	yenCurrencyFormatter *message.Printer,
) *TicketHttp {
	in := &TicketHttp{
		Cache:                cache,
		CacheClient:          cacheClient,
		Resolver:             resolver,
		Updater:              updater,
		Validate:             validate,
		YenCurrencyFormatter: yenCurrencyFormatter,
	}

	mux.HandleFunc("POST /api/scan", in.scan)
	mux.HandleFunc("GET /api/tickets/{number}", in.get)
	mux.HandleFunc("POST /api/tickets/{number}/entry", in.enter)

	return in
}

func (in TicketHttp) scan(w http.ResponseWriter, r *http.Request) {
	var req model.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "TicketHttp.scan")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "manual scan receive request", slog.Any(constant.LogFieldPayload, req.Payload), traceIdAttr)

	id := ticket.Classify(req.Payload)

	rec, source, err := in.Resolver.Resolve(ctx, id)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, in.ticketResponse(rec, source))
}

func (in TicketHttp) get(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")

	ctx, span := otel.Tracer.Start(r.Context(), "TicketHttp.get")
	defer span.End()

	id := model.ScanIdentifier{Kind: model.KindTicketNumber, Value: number, Raw: number}

	rec, source, err := in.Resolver.Resolve(ctx, id)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, in.ticketResponse(rec, source))
}

func (in TicketHttp) enter(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")

	ctx, span := otel.Tracer.Start(r.Context(), "TicketHttp.enter")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "entry confirm receive request", slog.String(constant.LogFieldTicket, number), traceIdAttr)

	rec, ok := in.Cache.LookupExact(number)
	if !ok {
		writeErrorResponse(w, &errs.NotFoundError{Identifier: number})
		return
	}

	// Preconditions live here, not in the updater.
	if !constant.IsPaid(rec.PaymentStatus) {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusConflict, Message: "Payment not completed"})
		return
	}

	if constant.HasEntered(rec.EntryStatus) {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusConflict, Message: "Already entered"})
		return
	}

	// Guards two stations confirming the same ticket at once.
	entryLock, err := in.CacheClient.SetNX(ctx, fmt.Sprintf(constant.TicketEntryLock, number), true, constant.TicketEntryLockDefaultTTL).Result()
	if err != nil {
		slog.ErrorContext(ctx, "failed to set entry lock", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	if !entryLock {
		slog.DebugContext(ctx, "entry already in progress", traceIdAttr)
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusConflict, Message: "Entry already in progress"})
		return
	}

	if err := in.Updater.MarkEntered(ctx, number); err != nil {
		// Free the lock so the operator can retry right away.
		if redisErr := in.CacheClient.Del(ctx, fmt.Sprintf(constant.TicketEntryLock, number)).Err(); redisErr != nil {
			slog.ErrorContext(ctx, "failed to release entry lock", traceIdAttr, slog.Any(constant.LogFieldErr, redisErr))
		}

		writeErrorResponse(w, err)
		return
	}

	rec.EntryStatus = constant.EntryStatusEntered

	writeJSONResponse(w, http.StatusOK, in.ticketResponse(rec, ticket.SourceCache))
}

func (in TicketHttp) ticketResponse(rec model.TicketRecord, source string) model.TicketResponse {
	return model.TicketResponse{
		Ticket:          rec,
		Source:          source,
		AmountFormatted: in.YenCurrencyFormatter.Sprintf("¥%d", rec.Amount),
		CanEnter:        constant.IsPaid(rec.PaymentStatus) && !constant.HasEntered(rec.EntryStatus),
	}
}
