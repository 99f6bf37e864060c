package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"qr-checkin/common"
	"qr-checkin/common/constant"
	"qr-checkin/common/otel"
	"qr-checkin/model"
	"qr-checkin/outbound/sqlgen"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// CheckinEvent persists scan and entry events into the audit table. Station
// processes publish fire-and-forget; the work queue absorbs bursts and
// redelivers on insert failure.
type CheckinEvent struct {
	Querier *sqlgen.Queries

	Timeout time.Duration
	TimeNow func() time.Time
}

func (in CheckinEvent) RecordHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.CheckinEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "checkin event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	ctx, span := otel.Tracer.Start(ctx, "CheckinEvent.record")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	slog.InfoContext(ctx, "checkin event receive request", slog.Any(constant.LogFieldPayload, req), traceIdAttr)

	scannedAt, err := time.Parse(time.RFC3339, req.ScannedAt)
	if err != nil {
		slog.WarnContext(ctx, "checkin event has no usable timestamp", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		scannedAt = in.now()
	}

	err = in.Querier.InsertScanLog(ctx, sqlgen.InsertScanLogParams{
		Station:      req.Station,
		TicketNumber: pgtype.Text{String: req.TicketNumber, Valid: req.TicketNumber != ""},
		RawPayload:   req.RawPayload,
		Kind:         req.Kind,
		Result:       req.Result,
		ScannedAt:    pgtype.Timestamptz{Time: scannedAt, Valid: true},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to insert scan log", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return err
	}

	slog.DebugContext(ctx, "scan log recorded", traceIdAttr)

	return nil
}

func (in CheckinEvent) now() time.Time {
	if in.TimeNow != nil {
		return in.TimeNow()
	}
	return time.Now()
}
