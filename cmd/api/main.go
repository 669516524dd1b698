package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seesound/backend/internal/api"
	"github.com/seesound/backend/internal/api/handlers"
	"github.com/seesound/backend/internal/cache/redis"
	"github.com/seesound/backend/internal/metrics"
	"github.com/seesound/backend/internal/prefs"
	"github.com/seesound/backend/internal/speech"
	"github.com/seesound/backend/internal/storage/sqlite"
	"github.com/seesound/backend/internal/vqa"
	"github.com/seesound/backend/pkg/config"
	appLogger "github.com/seesound/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting SeeSound VQA API Server")

	metrics.Init()

	// Every integration is optional: a missing credential or path disables
	// the capability instead of failing startup.
	var (
		repo        prefs.Repository
		queryLog    handlers.QueryLog
		storageMode = "memory"
	)

	var sqliteClient *sqlite.Client
	if cfg.StorageEnabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0755); err != nil {
			appLogger.Warn("Failed to create data directory", zap.Error(err))
		}

		sqliteClient, err = sqlite.NewClient(cfg.Storage.Path)
		if err == nil {
			err = sqliteClient.InitSchema()
		}
		if err != nil {
			appLogger.Warn("SQLite unavailable, falling back to in-memory preferences", zap.Error(err))
			sqliteClient = nil
		}
	}

	if sqliteClient != nil {
		defer sqliteClient.Close()
		repo = sqliteClient
		queryLog = sqliteClient
		storageMode = "sqlite"
	} else {
		repo = prefs.NewMemoryStore()
	}

	var cache prefs.Cache
	if cfg.RedisEnabled() {
		redisClient, err := redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, preference cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cache = redisClient
		}
	}

	prefsService := prefs.NewService(repo, cache)
	speechClient := speech.NewClient(cfg.Speech.Key, cfg.Speech.Region)
	adapter := vqa.NewAdapter(cfg.VQA)

	appLogger.Info("Capabilities resolved",
		zap.String("storage", storageMode),
		zap.Bool("redis_cache", cache != nil),
		zap.Bool("speech", speechClient.Enabled()),
		zap.Bool("vqa", cfg.VQAEnabled()),
	)

	server := api.NewServer(cfg, api.Deps{
		Prefs:       prefsService,
		QueryLog:    queryLog,
		Adapter:     adapter,
		Speech:      speechClient,
		StorageMode: storageMode,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := server.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Phase two: warm the model after the listener is up. Requests that
	// arrive first get 503 from the VQA route, not a blocked connection.
	if cfg.VQAEnabled() {
		go func() {
			if err := adapter.Init(context.Background()); err != nil {
				appLogger.Error("VQA model initialization failed; /api/vqa stays unavailable", zap.Error(err))
			}
		}()
	}

	pruneDone := make(chan struct{})
	if sqliteClient != nil && cfg.Storage.RetentionDays > 0 {
		go pruneLoop(sqliteClient, cfg.Storage.RetentionDays, pruneDone)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	close(pruneDone)
	server.Shutdown()
	appLogger.Info("Server stopped")
}

func pruneLoop(client *sqlite.Client, retentionDays int, done <-chan struct{}) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := client.PruneQueryHistory(ctx, retentionDays); err != nil {
			appLogger.Warn("Query history prune failed", zap.Error(err))
		}
		cancel()

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
