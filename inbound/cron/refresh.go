package cron

import (
	"context"
	"log/slog"
	"qr-checkin/common"
	"qr-checkin/common/constant"
	"qr-checkin/model"
	"qr-checkin/ticket"
	"time"

	"github.com/spf13/viper"
)

// TicketFetcher is the bulk read side of the sheet web app.
type TicketFetcher interface {
	FetchAll(ctx context.Context) ([]model.TicketRecord, error)
}

// TicketCron keeps the station cache in sync with the sheet. A failed refresh
// keeps the previous collection; the station stays usable on stale data.
type TicketCron struct {
	Cfg    *viper.Viper
	Cache  *ticket.Cache
	Sheets TicketFetcher
}

func (in TicketCron) Start(ctx context.Context) {
	refreshTicker := time.NewTicker(in.Cfg.GetDuration("cron.refresh.interval"))
	defer refreshTicker.Stop()

	// Run initial refresh
	in.Refresh(ctx)

	slog.Info("ticket refresh cron started")

	for {
		select {
		case <-refreshTicker.C:
			in.Refresh(ctx)
		case <-ctx.Done():
			slog.Info("ticket refresh cron stopped")
			return
		}
	}
}

func (in TicketCron) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, in.Cfg.GetDuration("cron.refresh.timeout"))
	defer cancel()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	slog.DebugContext(ctx, "refreshing ticket cache", traceIdAttr)

	records, err := in.Sheets.FetchAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch tickets from sheet", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	if err := in.Cache.ReplaceAll(ctx, records); err != nil {
		slog.ErrorContext(ctx, "failed to persist refreshed tickets", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	slog.DebugContext(ctx, "ticket cache refreshed", traceIdAttr, slog.Int("count", len(records)))
}
