// s3.go — реализация Store поверх S3 (aws-sdk-go-v2).
// Поддерживает S3-совместимые хранилища через кастомный endpoint
// (CM_S3_ENDPOINT), например MinIO.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/config"
)

// S3Store — blob-хранилище поверх S3 bucket.
type S3Store struct {
	client   *s3.Client
	bucket   string
	endpoint string
	logger   *slog.Logger
}

// NewS3Store создаёт S3-хранилище из конфигурации.
// Учётные данные статические (CM_S3_ACCESS_KEY / CM_S3_SECRET_KEY),
// инициализация выполняется один раз при старте процесса.
func NewS3Store(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка конфигурации S3: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = &cfg.S3Endpoint
			// S3-совместимые хранилища обычно не поддерживают virtual-host адресацию
			o.UsePathStyle = true
		}
	})

	logger.Info("S3-хранилище инициализировано",
		slog.String("region", cfg.S3Region),
		slog.String("bucket", cfg.S3Bucket),
	)

	return &S3Store{
		client:   client,
		bucket:   cfg.S3Bucket,
		endpoint: cfg.S3Endpoint,
		logger:   logger.With(slog.String("component", "s3_store")),
	}, nil
}

// Put сохраняет объект в bucket и возвращает долговременную ссылку.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) (Reference, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          body,
		ContentType:   &contentType,
		ContentLength: &size,
	})
	if err != nil {
		return Reference{}, fmt.Errorf("ошибка загрузки объекта в S3: %w", err)
	}

	s.logger.Debug("Объект сохранён",
		slog.String("key", key),
		slog.Int64("size", size),
	)

	return Reference{URL: s.objectURL(key), Key: key}, nil
}

// readinessTimeout — таймаут проверки доступности bucket.
const readinessTimeout = 5 * time.Second

// CheckReady проверяет доступность bucket через HeadBucket.
// Реализует интерфейс ReadinessChecker для /health/ready.
func (s *S3Store) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket})
	if err != nil {
		return "fail", fmt.Sprintf("bucket %s недоступен: %v", s.bucket, err)
	}
	return "ok", fmt.Sprintf("bucket %s доступен", s.bucket)
}

// objectURL строит публичный URL объекта.
func (s *S3Store) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
