package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/Belafone/VivSync/pkg/api"
	"github.com/Belafone/VivSync/pkg/config"
	"github.com/Belafone/VivSync/pkg/crypto"
	"github.com/Belafone/VivSync/pkg/database"
	"github.com/Belafone/VivSync/pkg/log"
	"github.com/Belafone/VivSync/pkg/models"
)

func main() {
	if err := log.Init(os.Getenv("VIVSYNC_ENV") == "production"); err != nil {
		os.Exit(1)
	}
	defer log.Sync()
	logger := log.L()

	logger.Info("Starting VivSync API server", zap.String("version", config.Version))

	port := getEnvOrDefault("PORT", "8080")
	baseURL := getEnvOrDefault("BASE_URL", "https://vivsync.com")
	keyFile := getEnvOrDefault("SECRET_KEY_FILE", "secret.key")

	// MySQL when a DSN is given, otherwise a local SQLite file.
	var store database.Store
	var err error
	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		store, err = database.NewMySQL(dsn)
	} else {
		store, err = database.NewSQLite(getEnvOrDefault("VIVSYNC_DB", "vivsync.db"))
	}
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()

	keeper, err := crypto.LoadOrCreate(keyFile)
	if err != nil {
		logger.Fatal("Failed to load secret key", zap.Error(err))
	}

	// Run scheduling is optional; without a Temporal host the run
	// endpoints answer 503.
	var temporalClient client.Client
	if host := os.Getenv("TEMPORAL_HOST"); host != "" {
		temporalClient, err = client.Dial(client.Options{HostPort: host})
		if err != nil {
			logger.Warn("Failed to connect to Temporal, run endpoints disabled", zap.Error(err))
			temporalClient = nil
		} else {
			defer temporalClient.Close()
		}
	}

	version := models.VersionInfo{
		Version:     config.Version,
		DownloadURL: getEnvOrDefault("DOWNLOAD_URL", "https://vivsync.com/download"),
	}

	handlers := api.NewHandlers(store, keeper, temporalClient, logger, baseURL, config.DefaultExpiryDays(), version)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      c.Handler(handlers.Router()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API server listening", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
