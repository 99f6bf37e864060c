package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"qr-checkin/common/constant"
	inboundCron "qr-checkin/inbound/cron"
	"qr-checkin/inbound/scanner"
	"qr-checkin/outbound/camera"
	"qr-checkin/outbound/decoder"
	"qr-checkin/outbound/sheets"
	"qr-checkin/ticket"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func runScanCmd(ctx context.Context) {
	cfg := newCfg("env")

	shutdownTracing := initTracing(ctx, cfg)
	defer shutdownTracing(context.Background())

	cacheClient := newRedis(cfg)
	defer cacheClient.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamCheckin(ctx, js)

	sheetsClient := sheets.NewClient(cfg)

	cache := ticket.NewCache(cacheClient)
	cache.Load(ctx)

	source := openFrameSource(cfg.GetString("scanner.spool_dir"), cfg.GetString("scanner.device"))
	defer source.Close()

	resolver := &ticket.Resolver{Cache: cache, Remote: sheetsClient}
	updater := &ticket.Updater{
		Cache:     cache,
		Remote:    sheetsClient,
		Publisher: js,
		Station:   cfg.GetString("scanner.station"),
	}

	printer := message.NewPrinter(language.Japanese)
	listener := &scanner.ConsoleListener{Out: os.Stdout, YenCurrencyFormatter: printer}
	beeper := &scanner.TerminalBeeper{Out: os.Stdout}

	controller := scanner.NewController(cfg, source, decoder.NewZXing(), resolver, listener, beeper, js)

	ticketCron := &inboundCron.TicketCron{
		Cfg:    cfg,
		Cache:  cache,
		Sheets: sheetsClient,
	}

	go func() {
		ticketCron.Start(ctx)
	}()

	go func() {
		controller.Run(ctx)
	}()

	slog.Info("scanner started", slog.String("station", cfg.GetString("scanner.station")))

	fmt.Println("Enter: シャッター / 入場確定, r: リセット, q: 終了")

	go func() {
		readTriggers(ctx, controller, updater)
	}()

	<-ctx.Done()

	slog.Info("scanner stopped")
}

// readTriggers maps the operator keyboard onto the scan loop. Enter acts as
// the shutter while idle, aborts while scanning, and confirms entry while a
// resolvable ticket is on display.
func readTriggers(ctx context.Context, controller *scanner.Controller, updater *ticket.Updater) {
	lines := bufio.NewScanner(os.Stdin)

	for lines.Scan() {
		if ctx.Err() != nil {
			return
		}

		switch strings.TrimSpace(lines.Text()) {
		case "q":
			fmt.Println("終了します")
			os.Exit(0)
		case "r":
			controller.Reset()
		default:
			switch controller.State() {
			case scanner.StateIdle:
				controller.Start()
			case scanner.StateScanning:
				controller.Stop()
			case scanner.StateDisplaying:
				confirmEntry(ctx, controller, updater)
			}
		}
	}
}

func confirmEntry(ctx context.Context, controller *scanner.Controller, updater *ticket.Updater) {
	rec := controller.CurrentTicket()
	if rec == nil {
		controller.Reset()
		return
	}

	if !constant.IsPaid(rec.PaymentStatus) || constant.HasEntered(rec.EntryStatus) {
		controller.Reset()
		return
	}

	if err := updater.MarkEntered(ctx, rec.TicketNumber); err != nil {
		fmt.Printf("入場の記録に失敗しました: %s\n", rec.TicketNumber)
		return
	}

	fmt.Printf("入場を確定しました: %s\n", rec.TicketNumber)
	controller.Reset()
}

func openFrameSource(spoolDir, preferred string) camera.FrameSource {
	devices, err := camera.EnumerateDevices(spoolDir)
	if err != nil {
		log.Fatalln("unable to enumerate capture devices", err)
	}

	device, ok := camera.SelectDefaultDevice(devices)
	if preferred != "" {
		for _, d := range devices {
			if d.ID == preferred {
				device, ok = d, true
			}
		}
	}

	if !ok {
		log.Fatalln("no capture device available under", spoolDir)
	}

	source, err := camera.Open(spoolDir, device.ID)
	if err != nil {
		log.Fatalln("unable to open capture device", err)
	}

	return source
}
