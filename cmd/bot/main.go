package main

import (
	"log"
	"os"

	"github.com/artur/tube-butler/internal/bot"
	"github.com/artur/tube-butler/internal/config"
	"github.com/artur/tube-butler/internal/database"
	"github.com/artur/tube-butler/internal/database/repository"
	"github.com/artur/tube-butler/internal/downloader"
	"github.com/artur/tube-butler/internal/handler"
	"github.com/artur/tube-butler/internal/logger"
	"github.com/artur/tube-butler/internal/middleware"
	"github.com/artur/tube-butler/internal/service"
	"github.com/artur/tube-butler/internal/worker"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	if err := os.MkdirAll(cfg.StoragePath, 0755); err != nil {
		zapLogger.Fatal("failed to create storage dir", zap.Error(err))
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		zapLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db.DB)
	videoRepo := repository.NewVideoRepository(db.DB)
	downloadRepo := repository.NewDownloadRepository(db.DB)

	pool := worker.NewPool(cfg.WorkerPoolSize)
	dl := downloader.NewYouTubeDownloader(cfg.MaxFileSize)

	svc := service.NewYouTubeService(
		dl, userRepo, videoRepo, downloadRepo, pool,
		cfg.StoragePath, cfg.MaxVideoDuration, cfg.MaxFileSize,
		zapLogger.Named("service"),
	)

	b, err := bot.New(cfg.Token, zapLogger.Named("bot"))
	if err != nil {
		zapLogger.Fatal("failed to create bot", zap.Error(err))
	}

	// Фильтры: аутентификация, затем лимит запросов
	b.Use(middleware.NewAuth(userRepo, cfg.AdminIDs, zapLogger.Named("auth")))
	b.Use(middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.AdminIDs, zapLogger.Named("ratelimit")))

	adminGate := middleware.NewAdmin(zapLogger.Named("admin"))

	b.RegisterHandler(handler.NewStartHandler(zapLogger.Named("start")))
	b.RegisterHandler(handler.NewAdminHandler(svc, userRepo, cfg.CleanupAfterDays, zapLogger.Named("admin")), adminGate)
	b.RegisterHandler(handler.NewYouTubeHandler(svc, videoRepo, downloadRepo, zapLogger.Named("youtube")))

	b.Run()
}
