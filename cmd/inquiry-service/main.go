package main

import (
	"log/slog"
	"os"

	"github.com/psds-microservice/inquiry-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		slog.Error("inquiry-service", slog.Any("err", err))
		os.Exit(1)
	}
}
