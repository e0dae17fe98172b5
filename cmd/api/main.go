package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/diagnosis/stayease/internal/availability"
	"github.com/diagnosis/stayease/internal/cache"
	"github.com/diagnosis/stayease/internal/handlers"
	"github.com/diagnosis/stayease/internal/mailer"
	"github.com/diagnosis/stayease/internal/media"
	"github.com/diagnosis/stayease/internal/payments"
	"github.com/diagnosis/stayease/internal/quota"
	"github.com/diagnosis/stayease/internal/repository"
	"github.com/diagnosis/stayease/internal/search"
	"github.com/diagnosis/stayease/internal/service"
	"github.com/diagnosis/stayease/internal/token"
	"github.com/diagnosis/stayease/internal/verification"
	"github.com/diagnosis/stayease/pkg/config"
	"github.com/diagnosis/stayease/pkg/database"
	"github.com/diagnosis/stayease/pkg/events"
	"github.com/diagnosis/stayease/pkg/logger"
	mw "github.com/diagnosis/stayease/pkg/middleware"
)

func main() {
	cfg := config.Load()
	logger.SetDefault(logger.New(os.Stdout, cfg.App.LogLevel))
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", logger.Err(err))
		os.Exit(1)
	}

	ctx := context.Background()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			logger.Error("Failed to run migrations", logger.Err(err))
			os.Exit(1)
		}
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", logger.Err(err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis backs rate limiting and idempotent replay. Without it both are
	// switched off rather than refusing to start.
	var (
		limiter     handlers.RateLimiter
		idempotency mw.IdempotencyStore
	)
	if rdb, err := cache.New(ctx, cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, running without rate limiting", logger.Err(err))
	} else {
		defer rdb.Close()
		limiter = rdb
		idempotency = rdb
	}

	var eventBus events.Publisher = events.Noop{}
	if bus, err := events.NewNATSEventBus(cfg.NATS.URL, cfg.App.Name); err != nil {
		logger.Warn("NATS unavailable, domain events disabled", logger.Err(err))
	} else {
		defer bus.Close()
		eventBus = bus
	}

	var uploader media.Uploader = media.Disabled{}
	if cfg.Cloudinary.CloudName != "" {
		cld, err := media.NewCloudinary(cfg.Cloudinary)
		if err != nil {
			logger.Error("Failed to configure Cloudinary", logger.Err(err))
			os.Exit(1)
		}
		uploader = cld
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	listingRepo := repository.NewListingRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	availabilityRepo := repository.NewAvailabilityRepository(pool)

	// Initialize services
	provider := payments.NewStripeProvider(cfg.Stripe.SecretKey)
	codec := token.NewCodec(cfg.Auth.VerificationSecret)

	svc := handlers.Services{
		Auth:         service.NewAuthService(userRepo, codec, newMailer(cfg), eventBus, cfg),
		Verifier:     verification.NewService(userRepo, eventBus),
		Listings:     service.NewListingService(listingRepo, quota.NewGate(subscriptionRepo), uploader, eventBus),
		Bookings:     service.NewBookingService(bookingRepo, listingRepo, provider, eventBus, cfg),
		Subscription: service.NewSubscriptionService(subscriptionRepo, provider, eventBus),
		Calendar:     service.NewCalendarService(availabilityRepo, bookingRepo),
		Search:       search.NewService(listingRepo, availability.NewFilter(bookingRepo)),
	}
	h := handlers.New(svc, limiter, idempotency, cfg)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID", "X-Search-Client", "X-Search-Seq"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replay"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("stayease-api"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.Health)
	r.Use(mw.Metrics)

	h.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Starting API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API error", logger.Err(err))
		os.Exit(1)
	}
}

// newMailer prefers MailerSend when it is configured. Dev mode prints the
// message instead of sending it.
func newMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer(cfg.App.Name)
	}

	ms := mailer.NewMailerSend(
		cfg.Email.MailerSendKey,
		cfg.Email.MailerSendFromName,
		cfg.Email.MailerSendFromEmail,
		cfg.Email.VerificationTemplateID,
		cfg.App.Name,
	)
	if ms.Enabled() {
		return ms
	}

	return mailer.NewSMTPMailer(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPFrom,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPass,
		cfg.Email.SMTPUseTLS,
		cfg.App.Name,
	)
}
