package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"interview-practice-server/internal/coach"
	"interview-practice-server/internal/config"
	"interview-practice-server/internal/evaluator"
	"interview-practice-server/internal/extractor"
	"interview-practice-server/internal/metrics"
	"interview-practice-server/internal/questions"
	"interview-practice-server/internal/registry"
	"interview-practice-server/internal/report"
	"interview-practice-server/internal/session"
	"interview-practice-server/internal/storage"
)

// Services собирает зависимости HTTP-слоя
type Services struct {
	Extractor *extractor.Service
	Questions *questions.Service
	Evaluator *evaluator.Service
	Coach     *coach.Service
	Registry  *registry.Service
	Sessions  *session.Manager
	Store     *storage.Service
	Report    *report.Service
	Metrics   *metrics.Metrics
}

// Server представляет HTTP-сервер приложения
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New создает сервер со всеми маршрутами и middleware
func New(cfg *config.AppConfig, svc Services) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	engine.Use(MaxBodySize(cfg.Server.MaxUploadBytes))
	engine.Use(CORS())
	engine.Use(RateLimit(NewRateLimiter(60, time.Minute)))

	api := NewAPI(cfg, svc)
	registerRoutes(engine, api)

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Run запускает сервер и блокируется до остановки
func (s *Server) Run() error {
	return s.http.ListenAndServe()
}

// Shutdown останавливает сервер, дожидаясь текущих запросов
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
