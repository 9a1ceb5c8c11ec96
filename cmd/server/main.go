package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	httpapi "agricoop-backend/internal/api/http"
	"agricoop-backend/internal/config"
	"agricoop-backend/internal/logger"
	"agricoop-backend/internal/repository/postgres"
	"agricoop-backend/internal/security"
	"agricoop-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting AgriCoop Membership Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)

	// Initialize Push Sender (optional)
	var pushSender service.PushSender
	if cfg.Push.Enabled {
		pushSender, err = service.NewFCMPushSender(context.Background(), cfg.Push.CredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize push sender", "error", err)
			log.Fatalf("Failed to initialize push sender: %v", err)
		}
		logger.Info("Push notifications enabled")
	} else {
		logger.Info("Push notifications disabled")
	}

	// Initialize Email Service (optional)
	var emailSvc service.EmailService
	if cfg.Email.Enabled {
		emailSvc = service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
		logger.Info("Email delivery enabled", "from", cfg.Email.FromEmail)
	} else {
		emailSvc = service.NewDisabledEmailService()
		logger.Info("Email delivery disabled")
	}

	// Initialize Membership Mirror (optional)
	var mirror service.MirrorPublisher
	if cfg.Mirror.Enabled {
		mirror = service.NewWebhookMirror(cfg.Mirror.URL, cfg.Mirror.AuthToken, time.Duration(cfg.Mirror.TimeoutSec)*time.Second)
		logger.Info("Membership mirror enabled", "url", cfg.Mirror.URL)
	} else {
		mirror = service.NewNoopMirror()
		logger.Info("Membership mirror disabled")
	}

	// Initialize Services
	noteSvc := service.NewNotificationService(store, pushSender)
	memberSvc := service.NewMemberService(store, cfg.Retry, noteSvc, emailSvc, mirror)
	seatSvc := service.NewSeatService(store, cfg.Retry, noteSvc, emailSvc)
	approvalSvc := service.NewApprovalService(store, cfg.Retry, noteSvc, emailSvc, mirror)
	auditSvc := service.NewAuditService(store)

	// Set up HTTP server
	router := httpapi.NewRouter(httpapi.Services{
		Members:       memberSvc,
		Seats:         seatSvc,
		Approvals:     approvalSvc,
		Audit:         auditSvc,
		Notifications: noteSvc,
	}, tokenManager, cfg)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
