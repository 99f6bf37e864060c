package cmd

import (
	"log"
	"log/slog"

	"github.com/skip2/go-qrcode"
)

func runGenerateQrCmd(payload, file string) {
	if err := qrcode.WriteFile(payload, qrcode.Medium, 256, file); err != nil {
		log.Fatalln("unable to write qr code", err)
	}

	slog.Info("qr code written", slog.String("file", file))
}
