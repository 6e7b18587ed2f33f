// Пакет config — загрузка и валидация конфигурации Catalog Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Catalog Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- JWT ---

	// Секрет для подписи токенов (HS256)
	JWTSecret string
	// Время жизни токена
	JWTTTL time.Duration
	// Порядок поиска токена в запросе (session, bearer)
	TokenLookup []string
	// Имя cookie с токеном сессии
	SessionCookie string

	// --- Blob-хранилище (S3) ---

	// Регион S3
	S3Region string
	// Access key
	S3AccessKey string
	// Secret key
	S3SecretKey string
	// Имя bucket для аудиофайлов
	S3Bucket string
	// Endpoint S3-совместимого хранилища (пустой — AWS)
	S3Endpoint string

	// --- Загрузка треков ---

	// Максимальный размер загружаемого файла в байтах
	MaxUploadSize int64

	// --- Кэш списков треков ---

	// Максимальное количество записей в LRU-кэше
	TracksCacheSize int
	// TTL записи кэша
	TracksCacheTTL time.Duration

	// --- Dephealth ---

	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CM_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("CM_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("CM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CM_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// CM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CM_LOG_LEVEL: %w", err)
	}

	// CM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// CM_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("CM_DB_HOST")
	if err != nil {
		return nil, err
	}

	// CM_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("CM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("CM_DB_PORT: %w", err)
	}

	// CM_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("CM_DB_NAME")
	if err != nil {
		return nil, err
	}

	// CM_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("CM_DB_USER")
	if err != nil {
		return nil, err
	}

	// CM_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("CM_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// CM_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("CM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("CM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- JWT ---

	// CM_JWT_SECRET — обязательный
	cfg.JWTSecret, err = getEnvRequired("CM_JWT_SECRET")
	if err != nil {
		return nil, err
	}

	// CM_JWT_TTL — время жизни токена (по умолчанию 1h)
	cfg.JWTTTL, err = getEnvDuration("CM_JWT_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CM_JWT_TTL: %w", err)
	}

	// CM_TOKEN_LOOKUP — порядок поиска токена (по умолчанию "session,bearer")
	cfg.TokenLookup = parseCSV(getEnvDefault("CM_TOKEN_LOOKUP", "session,bearer"))
	if len(cfg.TokenLookup) == 0 {
		return nil, fmt.Errorf("CM_TOKEN_LOOKUP: список носителей токена пуст")
	}
	for _, carrier := range cfg.TokenLookup {
		if carrier != "session" && carrier != "bearer" {
			return nil, fmt.Errorf("CM_TOKEN_LOOKUP: недопустимый носитель токена %q, допустимые: session, bearer", carrier)
		}
	}

	// CM_SESSION_COOKIE — имя cookie сессии (по умолчанию "session")
	cfg.SessionCookie = getEnvDefault("CM_SESSION_COOKIE", "session")

	// --- S3 ---

	// CM_S3_REGION — обязательный
	cfg.S3Region, err = getEnvRequired("CM_S3_REGION")
	if err != nil {
		return nil, err
	}

	// CM_S3_ACCESS_KEY — обязательный
	cfg.S3AccessKey, err = getEnvRequired("CM_S3_ACCESS_KEY")
	if err != nil {
		return nil, err
	}

	// CM_S3_SECRET_KEY — обязательный
	cfg.S3SecretKey, err = getEnvRequired("CM_S3_SECRET_KEY")
	if err != nil {
		return nil, err
	}

	// CM_S3_BUCKET — обязательный
	cfg.S3Bucket, err = getEnvRequired("CM_S3_BUCKET")
	if err != nil {
		return nil, err
	}

	// CM_S3_ENDPOINT — endpoint S3-совместимого хранилища (опционально)
	cfg.S3Endpoint = strings.TrimRight(getEnvDefault("CM_S3_ENDPOINT", ""), "/")

	// --- Загрузка ---

	// CM_MAX_UPLOAD_SIZE — максимальный размер файла (по умолчанию 100 MiB)
	maxUpload, err := getEnvInt("CM_MAX_UPLOAD_SIZE", 100*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("CM_MAX_UPLOAD_SIZE: %w", err)
	}
	if maxUpload <= 0 {
		return nil, fmt.Errorf("CM_MAX_UPLOAD_SIZE: значение должно быть положительным")
	}
	cfg.MaxUploadSize = int64(maxUpload)

	// --- Кэш ---

	// CM_TRACKS_CACHE_SIZE — размер LRU-кэша списков треков (по умолчанию 1024)
	cfg.TracksCacheSize, err = getEnvInt("CM_TRACKS_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("CM_TRACKS_CACHE_SIZE: %w", err)
	}

	// CM_TRACKS_CACHE_TTL — TTL записи кэша (по умолчанию 30s)
	cfg.TracksCacheTTL, err = getEnvDuration("CM_TRACKS_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_TRACKS_CACHE_TTL: %w", err)
	}

	// --- Dephealth ---

	// CM_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию "soundstore")
	cfg.DephealthGroup = getEnvDefault("CM_DEPHEALTH_GROUP", "soundstore")

	// CM_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 30s)
	cfg.DephealthCheckInterval, err = getEnvDuration("CM_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// CM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("CM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (для лейблов topologymetrics, не для подключения).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
