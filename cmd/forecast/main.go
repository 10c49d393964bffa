package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"sales-forecast-client/internal/bootstrap"
	"sales-forecast-client/internal/cli"
	"sales-forecast-client/internal/config"
	"sales-forecast-client/internal/tracer"
)

func main() {
	shutdownTracer := tracer.InitTracer("sales-forecast-cli")
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	// Logs go to the file only so they do not interleave with the prompt.
	container := bootstrap.NewContainer(cfg, bootstrap.Options{FileOnlyLogs: true})
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := container.RelayService.Consume(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "event relay unavailable: %v\n", err)
	}

	app := cli.NewApp(container.Workflow, container.Auth, container.Pipeline, os.Stdin, os.Stdout)
	if err := app.Run(ctx); err != nil {
		fmt.Printf("❌ Application error: %v\n", err)
		os.Exit(1)
	}
}
