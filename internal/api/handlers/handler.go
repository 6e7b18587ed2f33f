// handler.go — основной обработчик API Catalog Module.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/gosoundstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/config"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/service"
)

// APIHandler — основной обработчик API Catalog Module.
type APIHandler struct {
	health   *HealthHandler
	accounts *service.AccountService
	catalog  *service.CatalogService
	cfg      *config.Config
	logger   *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	accounts *service.AccountService,
	catalog *service.CatalogService,
	cfg *config.Config,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:   health,
		accounts: accounts,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError маппит ошибки сервисного слоя в HTTP-ответы.
// Неопознанные ошибки логируются и отдаются как 500 без деталей.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrNotArtist), errors.Is(err, service.ErrNotVerified):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrStorage):
		apierrors.StorageUnavailable(w, "Хранилище файлов временно недоступно")
	default:
		h.logger.Error("Внутренняя ошибка обработки запроса", "error", err)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
