// Точка входа Catalog Module — модуль каталога системы SoundStore.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует S3-хранилище, создаёт сервисный слой и API handlers,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/api/handlers"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/api/middleware"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/auth"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/blobstore"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/config"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/database"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/repository"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/server"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Catalog Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("CM_DEPHEALTH_GROUP") == "" {
		logger.Warn("CM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL идёт через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. S3-хранилище аудиофайлов
	blobs, err := blobstore.NewS3Store(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации S3-хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Repositories
	userRepo := repository.NewUserRepository(pool)
	artistRepo := repository.NewArtistRepository(pool)
	trackRepo := repository.NewTrackRepository(pool)
	albumRepo := repository.NewAlbumRepository(pool)
	uow := repository.NewTxRunner(pool)

	// 7. Выпуск и проверка JWT
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	// 8. Services
	accountsSvc := service.NewAccountService(userRepo, artistRepo, uow, tokens, logger)
	authzSvc := service.NewAuthzService(artistRepo, albumRepo, logger)
	tracksCache := service.NewTrackListCache(cfg.TracksCacheSize, cfg.TracksCacheTTL)
	catalogSvc := service.NewCatalogService(authzSvc, trackRepo, uow, blobs, tracksCache, logger)

	// 9. Readiness checkers (PostgreSQL + S3)
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker, blobs)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(healthHandler, accountsSvc, catalogSvc, cfg, logger)

	// 11. JWT middleware
	jwtAuth := middleware.NewJWTAuth(tokens, cfg.TokenLookup, cfg.SessionCookie, logger)
	logger.Info("JWT middleware инициализирован",
		slog.Any("token_lookup", cfg.TokenLookup),
		slog.String("session_cookie", cfg.SessionCookie),
	)

	// 12. topologymetrics — мониторинг зависимостей (PostgreSQL + S3)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"catalog-module",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.S3Endpoint,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 13. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 14. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Catalog Module остановлен")
}
