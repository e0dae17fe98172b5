package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/stayease/pkg/config"
	"github.com/diagnosis/stayease/pkg/events"
	"github.com/diagnosis/stayease/pkg/logger"
	mw "github.com/diagnosis/stayease/pkg/middleware"
)

// notify consumes domain events from NATS and writes them to the log. It
// serves only health and metrics.
func main() {
	cfg := config.Load()
	logger.SetDefault(logger.New(os.Stdout, cfg.App.LogLevel))

	bus, err := events.NewNATSEventBus(cfg.NATS.URL, cfg.App.Name+"-notify")
	if err != nil {
		logger.Error("Failed to connect to NATS", logger.Err(err))
		os.Exit(1)
	}
	defer bus.Close()

	if err := subscribe(bus); err != nil {
		logger.Error("Failed to subscribe", logger.Err(err))
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Health)
	r.Use(mw.Metrics)

	port := os.Getenv("NOTIFY_PORT")
	if port == "" {
		port = "8086"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r, ReadTimeout: cfg.Server.ReadTimeout}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down notify service...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Notify service shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Starting notify service", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Notify service error", logger.Err(err))
		os.Exit(1)
	}
}

var subjects = []string{
	events.UserRegistered,
	events.UserVerified,
	events.ListingCreated,
	events.ListingPublished,
	events.BookingCreated,
	events.SubscriptionActivated,
}

func subscribe(bus events.Subscriber) error {
	for _, subject := range subjects {
		if err := bus.Subscribe(subject, handle); err != nil {
			return err
		}
	}
	return nil
}

func handle(msg *events.Message) {
	logger.Info("Domain event",
		"subject", msg.Subject,
		"payload", string(msg.Data),
		"received_at", msg.Timestamp.Format(time.RFC3339),
	)
}
