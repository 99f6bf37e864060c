package cmd

import (
	"context"
	"log"
	"log/slog"
	"qr-checkin/common/constant"
	"qr-checkin/inbound/event"
	"qr-checkin/outbound/sqlgen"

	"github.com/nats-io/nats.go/jetstream"
)

func runQueueCheckinCmd(ctx context.Context) {
	cfg := newCfg("env")

	shutdownTracing := initTracing(ctx, cfg)
	defer shutdownTracing(context.Background())

	db := newDb(cfg)
	defer db.Close()

	querier := sqlgen.New(db)

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamCheckin(ctx, js)

	st, err := js.Stream(ctx, constant.CheckinStreamName)
	if err != nil {
		log.Fatalln("failed to get stream", err)
	}

	checkinEvent := event.CheckinEvent{
		Querier: querier,
		Timeout: cfg.GetDuration("queue.checkin.timeout"),
	}

	cons, err := st.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       "consumer:checkin",
		FilterSubject: constant.CheckinWildcard,
		MaxDeliver:    cfg.GetInt("queue.checkin.max_deliver"),
		AckWait:       cfg.GetDuration("queue.checkin.ack_wait"),
	})
	if err != nil {
		log.Fatalln("failed to create consumer", err)
	}

	iter, err := cons.Messages()
	if err != nil {
		panic(err)
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := iter.Next()
				if err != nil && err != jetstream.ErrMsgIteratorClosed {
					slog.ErrorContext(ctx, "Error fetching message", slog.Any(constant.LogFieldErr, err))
					continue
				}

				if msg == nil {
					continue
				}

				var eventErr error
				switch msg.Subject() {
				case constant.SubjectTicketScanned, constant.SubjectTicketEntered:
					eventErr = checkinEvent.RecordHandler(ctx, msg.Data())
				}

				if eventErr != nil {
					msg.Nak()
					continue
				}

				if err := msg.Ack(); err != nil {
					slog.ErrorContext(ctx, "Error acknowledging message",
						slog.Any(constant.LogFieldErr, err),
						slog.Any(constant.LogFieldPayload, string(msg.Data())),
						slog.String("subject", msg.Subject()),
					)
					continue
				}
			}
		}
	}()

	slog.InfoContext(ctx, "checkin queue consumer started")

	<-ctx.Done()

	iter.Stop()

	<-done

	slog.InfoContext(ctx, "checkin queue consumer stopped")
}
