package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/cinematch/backend/internal/chat"
	"github.com/cinematch/backend/internal/config"
	"github.com/cinematch/backend/internal/engine"
)

type Server struct {
	Engine *engine.Engine
	Chat   *chat.Conversation
	Logger *logrus.Entry
	Router chi.Router

	server      config.ServerConfig
	recommender config.RecommenderConfig
	validate    *validator.Validate
	startedAt   time.Time
	httpServer  *http.Server
}

func NewServer(eng *engine.Engine, conv *chat.Conversation, cfg *config.Config, logger *logrus.Entry) *Server {
	s := &Server{
		Engine:      eng,
		Chat:        conv,
		Logger:      logger.WithField("component", "api"),
		Router:      chi.NewRouter(),
		server:      cfg.Server,
		recommender: cfg.Recommender,
		validate:    validator.New(),
		startedAt:   time.Now(),
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.Router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.cors())

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit())
		r.Use(s.requestLogger)
		r.Use(prometheusMetrics)

		r.Get("/recommend", s.handleRecommend)
		r.Get("/search", s.handleSearch)
		r.Get("/titles", s.handleTitles)
		r.Get("/status", s.handleStatus)

		r.Route("/chat/sessions", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Get("/{id}", s.handleGetSession)
			r.Post("/{id}/messages", s.handleSendMessage)
			r.Delete("/{id}", s.handleEndSession)
		})
	})
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	s.Logger.Infof("Starting API Server on %s", s.server.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("Shutting down API Server")
	return s.httpServer.Shutdown(ctx)
}

// Responses
type ErrorResponse struct {
	Error string `json:"error"`
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		code = http.StatusInternalServerError
		response = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func errorResponse(w http.ResponseWriter, code int, msg string) {
	jsonResponse(w, code, ErrorResponse{Error: msg})
}
