package main

import (
	"qr-checkin/cmd"

	_ "go.uber.org/automaxprocs"
)

func main() {
	cmd.Start()
}
