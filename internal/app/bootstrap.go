package app

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"onchan/internal/app/auth"
	"onchan/internal/app/board"
	"onchan/internal/app/health"
	"onchan/internal/app/image"
	"onchan/internal/app/post"
	"onchan/internal/app/purge"
	"onchan/internal/config"
	"onchan/internal/db"
	"onchan/internal/db/seeder"
	"onchan/internal/providers/redis"
	"onchan/internal/providers/storage"
	"onchan/internal/router"
	"onchan/internal/utils"
	"onchan/internal/validation"
)

type Application struct {
	Router      *router.Router
	DB          *gorm.DB
	PurgeWorker *purge.Worker
}

func Bootstrap(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	// A migration ledger mismatch is fatal: the error propagates up and the
	// process refuses to start.
	if err := db.Migrate(dbConn, cfg.MigrationDir, logger); err != nil {
		return nil, err
	}

	seed := seeder.NewSeeder(dbConn, cfg, logger)
	if err := seed.Seed(); err != nil {
		return nil, err
	}

	redisProvider := redis.NewRedisProvider(cfg.RedisURL, logger, cfg.RedisTTL)

	var store storage.FileStore
	switch cfg.StorageBackend {
	case "minio":
		store, err = storage.NewMinioStore(cfg, logger)
		if err != nil {
			return nil, err
		}
	case "disk":
		store = storage.NewDiskStore(cfg.ImageDir, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	validator := validation.NewValidator(cfg.TripSecret, cfg.MaxFileSize)

	boardRepo := board.NewRepository(dbConn)
	imageRepo := image.NewRepository(dbConn)
	queueRepo := image.NewQueueRepository(dbConn)
	authRepo := auth.NewRepository(dbConn)
	postRepo := post.NewRepository(dbConn, queueRepo)

	boardService := board.NewService(boardRepo)
	imageService := image.NewService(imageRepo, store, cfg.MaxFileSize, logger)
	authService := auth.NewService(authRepo, logger)
	postService := post.NewService(postRepo, boardService, imageService, authService, validator, redisProvider, logger)

	purgeWorker := purge.NewWorker(queueRepo, store, cfg.PurgeDelay, logger)

	healthHandler := health.NewHandler(&utils.HealthChecker{
		DB:    dbConn,
		Redis: redisProvider.Client,
	})
	boardHandler := board.NewHandler(boardService)
	postHandler := post.NewHandler(postService, authService, cfg, logger)

	r := router.NewRouter(logger)
	r.RegisterHealthRoutes(healthHandler)
	r.RegisterBoardRoutes(boardHandler)
	r.RegisterPostRoutes(postHandler)
	if cfg.StorageBackend == "disk" {
		r.RegisterStaticRoutes(cfg.ImageDir)
	}

	return &Application{
		Router:      r,
		DB:          dbConn,
		PurgeWorker: purgeWorker,
	}, nil
}
