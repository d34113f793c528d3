package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"laundry-dashboard/config"
	"laundry-dashboard/internal/api"
	"laundry-dashboard/internal/backend"
	"laundry-dashboard/internal/dashboard"
	"laundry-dashboard/internal/db"
	"laundry-dashboard/internal/message"
	"laundry-dashboard/internal/notification"
	"laundry-dashboard/internal/poller"
	"laundry-dashboard/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "laundry-dashboard ", log.LstdFlags)

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

	if cfg.Backend.BaseURL == "" {
		logger.Fatalf("backend.base_url (or BACKEND_URL) must be set")
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := backend.NewClient(cfg.Backend)

	policy := store.LastWriterWins
	if cfg.Poll.DiscardStale {
		policy = store.DiscardStale
	}
	appStore := store.New(policy)
	board := message.NewBoard(cfg.UI.MessageTTL)
	logger.Printf("snapshot store initialized (%s)", policy)

	pollSvc := poller.NewService(client, appStore, board, cfg.Poll.Interval)

	// The database is optional; without it the audit log and push alerts are off.
	var (
		repo     db.Repository
		recorder dashboard.ActionRecorder
	)
	if cfg.Database.DSN != "" {
		gormDB, err := db.Init(&cfg.Database)
		if err != nil {
			logger.Fatalf("failed to initialize database: %v", err)
		}
		repo = db.NewGormRepository(gormDB)
		recorder = repo
		logger.Println("database initialized successfully")
	} else {
		logger.Println("database.dsn is empty; audit log and push subscriptions are disabled")
	}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() && repo != nil {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, repo, webpushOptions)
		pool.Start(ctx)
		go notification.Watch(ctx, appStore, pool)
		logger.Printf("push notifications enabled with %d workers", cfg.WorkerPool.Size)
	} else {
		logger.Println("VAPID keys or database not configured; push notifications are disabled")
	}

	ctrl := dashboard.NewController(appStore, client, pollSvc, board, recorder, dashboard.Options{
		Durations:       cfg.UI.Durations,
		DefaultDuration: cfg.UI.DefaultDuration,
		SessionTTL:      time.Duration(cfg.Server.SessionTTLMinutes) * time.Minute,
	})

	// Start polling the backend in the background
	go pollSvc.Run(ctx)

	// Initialize router
	router := api.NewRouter(api.NewHandler(ctrl, appStore, pollSvc, repo, webpushOptions), cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
		// Cancelling ctx ends open event streams so Shutdown can finish.
		BaseContext: func(net.Listener) context.Context { return ctx },
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
	cancel()

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
