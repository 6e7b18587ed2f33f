package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/auth"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/blobstore"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/config"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/database"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/repository"
)

// testJWTSecret — секрет подписи токенов в интеграционных тестах.
const testJWTSecret = "test-secret"

// setupTestDB запускает PostgreSQL контейнер и применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("soundstore_test"),
		postgres.WithUsername("soundstore"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	os.Setenv("CM_DB_HOST", host)
	os.Setenv("CM_DB_PORT", port.Port())
	os.Setenv("CM_DB_NAME", "soundstore_test")
	os.Setenv("CM_DB_USER", "soundstore")
	os.Setenv("CM_DB_PASSWORD", "test-password")
	os.Setenv("CM_DB_SSL_MODE", "disable")
	os.Setenv("CM_JWT_SECRET", testJWTSecret)
	os.Setenv("CM_S3_REGION", "us-east-1")
	os.Setenv("CM_S3_ACCESS_KEY", "test")
	os.Setenv("CM_S3_SECRET_KEY", "test")
	os.Setenv("CM_S3_BUCKET", "test-bucket")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// testEnv — собранный сервисный слой поверх тестовой БД.
type testEnv struct {
	pool     *pgxpool.Pool
	accounts *AccountService
	authz    *AuthzService
	catalog  *CatalogService
	tokens   *auth.TokenIssuer
	blobs    *fakeBlobStore
	artists  repository.ArtistRepository
	albums   repository.AlbumRepository
}

// newTestEnv поднимает БД и собирает сервисы поверх неё.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pool := setupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenIssuer(testJWTSecret, time.Hour)
	uow := repository.NewTxRunner(pool)
	users := repository.NewUserRepository(pool)
	artists := repository.NewArtistRepository(pool)
	albums := repository.NewAlbumRepository(pool)
	tracks := repository.NewTrackRepository(pool)
	blobs := &fakeBlobStore{}
	authz := NewAuthzService(artists, albums, logger)
	cache := NewTrackListCache(16, time.Minute)

	return &testEnv{
		pool:     pool,
		accounts: NewAccountService(users, artists, uow, tokens, logger),
		authz:    authz,
		catalog:  NewCatalogService(authz, tracks, uow, blobs, cache, logger),
		tokens:   tokens,
		blobs:    blobs,
		artists:  artists,
		albums:   albums,
	}
}

// countRows возвращает количество строк в таблице.
func (e *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := e.pool.QueryRow(context.Background(), query).Scan(&n); err != nil {
		t.Fatalf("Подсчёт строк %s: %v", table, err)
	}
	return n
}

// fakePut — один вызов Put к фейковому хранилищу.
type fakePut struct {
	Key         string
	ContentType string
	Size        int64
	Body        []byte
}

// fakeBlobStore — in-memory замена blobstore.Store с инъекцией сбоя.
type fakeBlobStore struct {
	mu       sync.Mutex
	puts     []fakePut
	failNext bool
}

func (f *fakeBlobStore) Put(_ context.Context, key string, body io.Reader, contentType string, size int64) (blobstore.Reference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return blobstore.Reference{}, fmt.Errorf("хранилище недоступно")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return blobstore.Reference{}, err
	}
	f.puts = append(f.puts, fakePut{Key: key, ContentType: contentType, Size: size, Body: data})
	return blobstore.Reference{
		URL: "https://test-bucket.s3.amazonaws.com/" + key,
		Key: key,
	}, nil
}

// PutCount возвращает количество успешных записей.
func (f *fakeBlobStore) PutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

// FailNext делает следующий Put неуспешным.
func (f *fakeBlobStore) FailNext() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = true
}
