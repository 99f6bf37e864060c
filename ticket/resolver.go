package ticket

import (
	"context"
	"errors"
	"log/slog"
	"qr-checkin/common"
	"qr-checkin/common/constant"
	"qr-checkin/common/errs"
	"qr-checkin/common/otel"
	"qr-checkin/model"
	"qr-checkin/monitoring"
	"qr-checkin/outbound/sheets"
	"time"
)

const (
	SourceCache  = "cache"
	SourceRemote = "remote"
)

// RemoteService is the subset of the sheet web app the resolver needs.
type RemoteService interface {
	FetchByTicketNumber(ctx context.Context, number string) (model.TicketRecord, error)
	SearchByPartial(ctx context.Context, suffix string) (model.TicketRecord, error)
}

type Resolver struct {
	Cache  *Cache
	Remote RemoteService
}

// Resolve returns the ticket for a classified identifier, consulting the
// cache before the remote service. The source tag only feeds latency
// reporting; it has no behavioral significance. Exactly one remote lookup is
// issued per call and there is no internal retry.
func (r *Resolver) Resolve(ctx context.Context, id model.ScanIdentifier) (model.TicketRecord, string, error) {
	ctx, span := otel.Tracer.Start(ctx, "Resolver.Resolve")
	defer span.End()

	start := time.Now()
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	rec, source, err := r.resolve(ctx, id)
	if err != nil {
		slog.DebugContext(ctx, "resolve failed", traceIdAttr,
			slog.String("kind", string(id.Kind)),
			slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return model.TicketRecord{}, "", err
	}

	monitoring.ObserveResolve(source, time.Since(start))

	slog.DebugContext(ctx, "resolve succeeded", traceIdAttr,
		slog.String(constant.LogFieldTicket, rec.TicketNumber),
		slog.String("source", source))

	return rec, source, nil
}

func (r *Resolver) resolve(ctx context.Context, id model.ScanIdentifier) (model.TicketRecord, string, error) {
	switch id.Kind {
	case model.KindTicketNumber, model.KindUnknown:
		return r.resolveExact(ctx, id.Value)
	case model.KindPartialNumber:
		return r.resolvePartial(ctx, id.Value)
	default:
		// Legacy payload formats (checkout sessions, embedded JSON, URLs) have
		// no lookup in the current backend contract. The identifier is kept so
		// the station can show what failed to match.
		return model.TicketRecord{}, "", &errs.NotFoundError{Identifier: id.Value}
	}
}

func (r *Resolver) resolveExact(ctx context.Context, number string) (model.TicketRecord, string, error) {
	rec, ok := r.Cache.LookupExact(number)
	monitoring.ObserveCacheLookup(ok)
	if ok {
		return rec, SourceCache, nil
	}

	rec, err := r.Remote.FetchByTicketNumber(ctx, number)
	if err != nil {
		if errors.Is(err, sheets.ErrTicketNotFound) {
			return model.TicketRecord{}, "", &errs.NotFoundError{Identifier: number}
		}
		return model.TicketRecord{}, "", err
	}

	return rec, SourceRemote, nil
}

func (r *Resolver) resolvePartial(ctx context.Context, suffix string) (model.TicketRecord, string, error) {
	matches := r.Cache.LookupSuffix(suffix)
	monitoring.ObserveCacheLookup(len(matches) == 1)

	switch {
	case len(matches) == 1:
		return matches[0], SourceCache, nil
	case len(matches) > 1:
		// Ambiguity is reported, never resolved by falling through to a remote
		// search.
		return model.TicketRecord{}, "", &errs.AmbiguousMatchError{Suffix: suffix, Count: len(matches)}
	}

	rec, err := r.Remote.SearchByPartial(ctx, suffix)
	if err != nil {
		if errors.Is(err, sheets.ErrTicketNotFound) {
			return model.TicketRecord{}, "", &errs.NotFoundError{Identifier: suffix}
		}
		return model.TicketRecord{}, "", err
	}

	return rec, SourceRemote, nil
}
