package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func Start() {
	cfg := newCfg("env")
	slog.SetLogLoggerLevel(slog.Level(cfg.GetInt("log.level")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{}
	cmd := []*cobra.Command{
		{
			Use:   "scan",
			Short: "Run the interactive station scanner",
			Run: func(cmd *cobra.Command, args []string) {
				runScanCmd(ctx)
			},
		},
		{
			Use:   "serve-http",
			Short: "Run HTTP server",
			Run: func(cmd *cobra.Command, args []string) {
				runHttpServerCmd(ctx)
			},
		},
		{
			Use:   "serve-queue:checkin",
			Short: "Run queue checkin server",
			Run: func(cmd *cobra.Command, args []string) {
				runQueueCheckinCmd(ctx)
			},
		},
		{
			Use:   "generate-qr [ticket-number] [file]",
			Short: "Generate a QR code image for a ticket number",
			Args:  cobra.ExactArgs(2),
			Run: func(cmd *cobra.Command, args []string) {
				runGenerateQrCmd(args[0], args[1])
			},
		},
		{
			Use:   "dev",
			Short: "Run dev server, for testing purpose",
			Run: func(cmd *cobra.Command, args []string) {
				runHttpServerCmd(ctx)
			},
			PreRun: func(cmd *cobra.Command, args []string) {
				go func() {
					runQueueCheckinCmd(ctx)
				}()
			},
		},
	}

	rootCmd.AddCommand(cmd...)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
