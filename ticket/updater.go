package ticket

import (
	"context"
	"log/slog"
	"qr-checkin/common"
	"qr-checkin/common/constant"
	"qr-checkin/common/errs"
	"qr-checkin/common/otel"
	"qr-checkin/model"
	"qr-checkin/monitoring"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// EntryService is the remote write side of the sheet web app.
type EntryService interface {
	UpdateEntryStatus(ctx context.Context, number, status string) error
}

// Updater transitions a ticket to entered. Preconditions (payment complete,
// not already entered) are the caller's responsibility.
type Updater struct {
	Cache     *Cache
	Remote    EntryService
	Publisher jetstream.Publisher
	Station   string

	TimeNow func() time.Time
}

// MarkEntered dispatches the entry transition to the sheet and applies the
// same mutation to the local cache regardless of the remote outcome. The
// remote write is optimistic: a response that cannot be interpreted still
// counts as success, and only a failed dispatch is reported.
func (u *Updater) MarkEntered(ctx context.Context, number string) error {
	ctx, span := otel.Tracer.Start(ctx, "Updater.MarkEntered")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	remoteErr := u.Remote.UpdateEntryStatus(ctx, number, constant.EntryStatusEntered)

	// The local view reflects the entry even when the remote ack is
	// unobservable. Divergence after a silently failed remote write is a known
	// trade-off; the audit trail is the operational recourse.
	if err := u.Cache.UpdateEntryStatus(ctx, number, constant.EntryStatusEntered); err != nil {
		slog.ErrorContext(ctx, "entry status cache write failed", traceIdAttr,
			slog.String(constant.LogFieldTicket, number),
			slog.Any(constant.LogFieldErr, err))
	}

	if remoteErr != nil {
		slog.ErrorContext(ctx, "entry status dispatch failed", traceIdAttr,
			slog.String(constant.LogFieldTicket, number),
			slog.Any(constant.LogFieldErr, remoteErr))
		common.UtilSpanError(span, remoteErr)
		return &errs.UpdateFailedError{TicketNumber: number, Err: remoteErr}
	}

	if u.Publisher != nil {
		msg := model.CheckinEventMessage{
			Station:      u.Station,
			TicketNumber: number,
			RawPayload:   number,
			Kind:         string(model.KindTicketNumber),
			Result:       model.ScanResultEntered,
			ScannedAt:    u.now().UTC().Format(time.RFC3339),
		}

		if err := common.PublishMessage(ctx, u.Publisher, constant.SubjectTicketEntered, msg); err != nil {
			slog.WarnContext(ctx, "entered event publish failed", traceIdAttr,
				slog.String(constant.LogFieldTicket, number),
				slog.Any(constant.LogFieldErr, err))
		}
	}

	monitoring.IncEntries()

	slog.InfoContext(ctx, "ticket marked as entered", traceIdAttr,
		slog.String(constant.LogFieldTicket, number))

	return nil
}

func (u *Updater) now() time.Time {
	if u.TimeNow != nil {
		return u.TimeNow()
	}
	return time.Now()
}
