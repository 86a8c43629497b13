package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomlock-backend/config"
	"roomlock-backend/internal/api"
	"roomlock-backend/internal/booking"
	"roomlock-backend/internal/clock"
	"roomlock-backend/internal/db"
	"roomlock-backend/internal/delivery"
	"roomlock-backend/internal/events"
	"roomlock-backend/internal/hub"
	"roomlock-backend/internal/notification"
	"roomlock-backend/internal/store"

	"github.com/SherClockHolmes/webpush-go"
	"golang.org/x/time/rate"
)

// deviceHandler fans hub callbacks out to the credential delivery
// coordinator and the check event recorder.
type deviceHandler struct {
	*delivery.Coordinator
	*events.Recorder
}

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "roomlock-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		logger.Fatalf("invalid timezone %q: %v", cfg.Server.Timezone, err)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatalf("failed to run migrations: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Assemble notification senders. Each channel is optional; the worker
	// pool simply runs with whatever is configured.
	var senders []notification.Sender
	if cfg.Notification.BotToken != "" {
		tg, err := notification.NewTelegramSender(cfg.Notification.BotToken, cfg.Notification.AdminChatID)
		if err != nil {
			logger.Fatalf("failed to initialize telegram sender: %v", err)
		}
		senders = append(senders, tg)
		logger.Println("telegram notifications enabled")
	}

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		senders = append(senders, notification.NewWebPushSender(gormDB, webpushOptions))
		logger.Println("web push notifications enabled")
	}

	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, senders...)
	pool.Start(ctx)

	var discloser booking.Discloser
	if cfg.Notification.DiscloseKeys {
		discloser = notification.LogDiscloser{}
	}

	clk := clock.NewSystem()
	bookingSvc := booking.NewService(appStore, clk, loc, pool, discloser)

	// Websocket hub plus the services hanging off device activity.
	sessions := hub.New(cfg.Hub.PingInterval)
	coordinator := delivery.New(appStore, sessions, clk, loc, cfg.Delivery.SweepInterval)
	recorder := events.NewRecorder(appStore, sessions)
	sessions.SetDeviceHandler(deviceHandler{coordinator, recorder})

	if cfg.Delivery.Enabled {
		go coordinator.Run(ctx)
	}

	// Initialize router
	handler := api.NewHandler(appStore, bookingSvc, webpushOptions, clk, loc)
	router := api.NewRouter(handler, sessions,
		rate.Limit(cfg.Server.RateLimitPerSec),
		time.Duration(cfg.Server.CacheTTLSeconds)*time.Second)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
