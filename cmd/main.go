package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/Temirlan00/league-system/config"
	"github.com/Temirlan00/league-system/db"
	"github.com/Temirlan00/league-system/handlers"
	"github.com/Temirlan00/league-system/live"
	"github.com/Temirlan00/league-system/middleware"
	"github.com/Temirlan00/league-system/repositories"
	api "github.com/Temirlan00/league-system/routes"
	"github.com/Temirlan00/league-system/services"
	"github.com/Temirlan00/league-system/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2, доказательства штрафов)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// WebSocket Hub для админской live-ленты
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	disputeRepo := repositories.NewPostgresDisputeRepository(dbConn)
	penaltyRepo := repositories.NewPostgresPenaltyRepository(dbConn)
	cancellationRepo := repositories.NewPostgresCancellationRepository(dbConn)
	auditRepo := repositories.NewPostgresMatchAuditRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	emailService := services.NewEmailService(cfg)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, emailService, wsHub, logger)

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	disputeService := services.NewDisputeService(dbConn, disputeRepo, matchRepo, notificationService, wsHub)
	matchService := services.NewMatchService(dbConn, matchRepo, auditRepo, wsHub)
	penaltyService := services.NewPenaltyService(penaltyRepo, cloudflareUploader, notificationService)
	cancellationService := services.NewCancellationService(
		dbConn,
		cancellationRepo,
		penaltyRepo,
		matchRepo,
		notificationService,
		wsHub,
		cfg.DefaultPenaltySeverity,
		cfg.LateCancelWindowHours,
	)
	dashboardService := services.NewDashboardService(disputeRepo, cancellationRepo, matchRepo, penaltyRepo)
	logger.Info("Services initialized")

	// Фоновый диспетчер исходящих уведомлений
	dispatchInterval := time.Duration(cfg.NotifyDispatchInterval) * time.Second
	go func() {
		ticker := time.NewTicker(dispatchInterval)
		defer ticker.Stop()
		logger.Info("Notification dispatcher started", slog.Duration("interval", dispatchInterval))

		// Сразу при старте, дальше по тикеру
		if err := notificationService.DispatchPending(context.Background()); err != nil {
			logger.Error("Dispatcher: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := notificationService.DispatchPending(context.Background()); err != nil {
				logger.Error("Dispatcher: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService)
	disputeHandler := handlers.NewDisputeHandler(disputeService)
	matchHandler := handlers.NewMatchHandler(matchService)
	cancellationHandler := handlers.NewCancellationHandler(cancellationService)
	penaltyHandler := handlers.NewPenaltyHandler(penaltyService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		authHandler,
		disputeHandler,
		matchHandler,
		cancellationHandler,
		penaltyHandler,
		dashboardHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
