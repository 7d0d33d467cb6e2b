package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SamahJonathan/licitacion-ia/config"
	"github.com/SamahJonathan/licitacion-ia/database"
	"github.com/SamahJonathan/licitacion-ia/handler"
	"github.com/SamahJonathan/licitacion-ia/middleware"
	"github.com/SamahJonathan/licitacion-ia/pkg/logger"
	"github.com/SamahJonathan/licitacion-ia/scraper"
	"github.com/SamahJonathan/licitacion-ia/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Local development keeps credentials in .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tenderStore := database.NewTenderStore(db)

	contentStore, err := service.NewMinioStore(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize content store", "error", err)
		os.Exit(1)
	}
	if err := contentStore.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure bucket", "error", err)
		os.Exit(1)
	}

	renderer := scraper.NewRenderer(&cfg.Scraper)
	ingestor := service.NewIngestService(renderer, tenderStore, contentStore, &cfg.Scraper)
	chatSvc := service.NewChatService(tenderStore, service.NewGeminiClient(&cfg.Gemini))

	tenderHandler := handler.NewTenderHandler(ingestor, tenderStore)
	chatHandler := handler.NewChatHandler(chatSvc)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimit(60, time.Minute))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/", tenderHandler.List)

	// Scraping and chat are open by default; configuring a JWT secret puts
	// them behind operator login.
	protected := router.Group("/")
	if cfg.Auth.Enabled() {
		authHandler := handler.NewAuthHandler(cfg)
		router.POST("/auth/login", authHandler.Login)
		protected.Use(middleware.RequireAuth(&cfg.Auth))
	}
	protected.POST("/scrape", tenderHandler.Scrape)
	protected.POST("/chat", chatHandler.Ask)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
		// Scrapes hold the request while attachments download.
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
