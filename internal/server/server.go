// Пакет server — HTTP-сервер Catalog Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/api/handlers"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/api/middleware"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/config"
)

// Server — HTTP-сервер Catalog Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// jwtAuth — JWT middleware (может быть nil для тестирования без auth).
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// JWT middleware с исключениями для публичных endpoints.
	// Health и metrics проверяются Kubernetes напрямую, без API Gateway;
	// регистрация и вход по определению доступны без токена.
	if jwtAuth != nil {
		router.Use(jwtAuthWithExclusions(jwtAuth,
			publicPrefix{http.MethodGet, "/health/"},
			publicPrefix{http.MethodGet, "/metrics"},
			publicPrefix{http.MethodPost, "/api/v1/users/login"},
			publicPrefix{http.MethodPost, "/api/v1/users"},
		))
	}

	registerRoutes(router, handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// registerRoutes регистрирует все маршруты API.
func registerRoutes(router chi.Router, h *handlers.APIHandler) {
	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Get("/{id}", h.GetUser)
			r.Patch("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})
		r.Route("/tracks", func(r chi.Router) {
			r.Post("/", h.UploadTrack)
			r.Get("/my", h.ListMyTracks)
		})
	})
}

// publicPrefix — метод и префикс пути, доступные без JWT.
type publicPrefix struct {
	method string
	prefix string
}

// jwtAuthWithExclusions оборачивает JWTAuth.Middleware(), пропуская публичные пути.
// Публичным считается запрос, метод и путь которого совпадают с одним
// из указанных префиксов. POST /api/v1/users/logout намеренно не публичен.
func jwtAuthWithExclusions(jwtAuth *middleware.JWTAuth, public ...publicPrefix) func(http.Handler) http.Handler {
	jwtMiddleware := jwtAuth.Middleware()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range public {
				if r.Method != p.method || !strings.HasPrefix(r.URL.Path, p.prefix) {
					continue
				}
				// POST /api/v1/users — только сама коллекция,
				// вложенные пути (кроме login) требуют токен
				if p.prefix == "/api/v1/users" && r.URL.Path != "/api/v1/users" && r.URL.Path != "/api/v1/users/" {
					continue
				}
				next.ServeHTTP(w, r)
				return
			}

			jwtMiddleware(next).ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
