package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sales-forecast-client/internal/bootstrap"
	"sales-forecast-client/internal/config"
	"sales-forecast-client/internal/server"
	"sales-forecast-client/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer("sales-forecast-bridge")
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg, bootstrap.Options{})
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Start Background Services
	if err := container.RelayService.Consume(ctx); err != nil {
		log.Printf("Background Relay Error: %v", err)
	}

	// 4. Restore a stored session (shared redis credential or none)
	if user, err := container.Auth.Restore(ctx); err == nil && user != nil {
		log.Printf("[INFO] Restored session for %s", user.DisplayName())
		container.Workflow.Start(ctx)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.Printf("[WARN] Shutdown: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("[ERROR] %v", err)
	}
}
