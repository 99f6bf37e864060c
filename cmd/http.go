package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	inboundCron "qr-checkin/inbound/cron"
	inboundHttp "qr-checkin/inbound/http"
	"qr-checkin/outbound/sheets"
	"qr-checkin/outbound/sqlgen"
	"qr-checkin/ticket"
	"runtime/pprof"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func runHttpServerCmd(ctx context.Context) {
	cfg := newCfg("env")

	if cfg.GetString("env") == "dev" {
		cpu, err := os.Create("http-cpu.prof")
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		defer cpu.Close()

		err = pprof.StartCPUProfile(cpu)
		if err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()

		mem, err := os.Create("http-mem.prof")
		if err != nil {
			log.Fatalf("could not create memory profile: %v", err)
		}
		defer mem.Close()

		err = pprof.WriteHeapProfile(mem)
		if err != nil {
			log.Fatalf("could not write memory profile: %v", err)
		}
	}

	shutdownTracing := initTracing(ctx, cfg)
	defer shutdownTracing(context.Background())

	validate := validator.New()

	db := newDb(cfg)
	defer db.Close()

	cacheClient := newRedis(cfg)
	defer cacheClient.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamCheckin(ctx, js)

	querier := sqlgen.New(db)

	sheetsClient := sheets.NewClient(cfg)

	cache := ticket.NewCache(cacheClient)
	cache.Load(ctx)

	resolver := &ticket.Resolver{Cache: cache, Remote: sheetsClient}
	updater := &ticket.Updater{
		Cache:     cache,
		Remote:    sheetsClient,
		Publisher: js,
		Station:   cfg.GetString("scanner.station"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		slog.DebugContext(r.Context(), "health check")
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	timeoutMiddleware := inboundHttp.TimeoutMiddleware(20 * time.Second)

	inboundHttp.RegisterTicketHttp(mux, cfg, cache, cacheClient, resolver, updater, validate, message.NewPrinter(language.Japanese))
	inboundHttp.RegisterHistoryHttp(mux, querier)

	ticketCron := &inboundCron.TicketCron{
		Cfg:    cfg,
		Cache:  cache,
		Sheets: sheetsClient,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetInt("server.port")),
		Handler:           timeoutMiddleware(inboundHttp.CorsMiddleware(mux)),
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln("unable to start server", err)
		}
	}()

	slog.Info("http server started")

	go func() {
		ticketCron.Start(ctx)
	}()

	<-ctx.Done()

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatalln("unable to shutdown server", err)
	}

	slog.Info("http server stopped")
}
