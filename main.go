package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/quizboard/app"
	"github.com/Black-And-White-Club/quizboard/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	runErr := application.Run(ctx)

	if err := application.Close(); err != nil {
		application.Observability.Logger.Error("Error during shutdown", "error", err)
	}

	if runErr != nil {
		application.Observability.Logger.Error("Application stopped with error", "error", runErr)
		os.Exit(1)
	}
	application.Observability.Logger.Info("Application shut down gracefully")
}
