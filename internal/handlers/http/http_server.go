package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Afonso017/fraud-detector/internal/app/dto"
	"github.com/Afonso017/fraud-detector/internal/domain/service"
	"github.com/Afonso017/fraud-detector/internal/domain/useCases"
	"github.com/Afonso017/fraud-detector/internal/metrics"
)

// Server exposes the public HTTP surface: transaction analysis, the profile
// read endpoint, health, metrics and the websocket feed.
type Server struct {
	analysis    useCases.AnalysisService
	profiles    useCases.ProfileService
	broadcaster useCases.ProfileBroadcaster
	engine      *gin.Engine
	server      *http.Server
	log         *slog.Logger
}

// NewServer creates a new HTTP server with configured routes
func NewServer(addr string, analysis useCases.AnalysisService, profiles useCases.ProfileService, broadcaster useCases.ProfileBroadcaster, debug bool, log *slog.Logger) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		analysis:    analysis,
		profiles:    profiles,
		broadcaster: broadcaster,
		engine:      engine,
		log:         log,
		server: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.engine.POST("/analyze", s.handleAnalyze)
	s.engine.GET("/profiles/:userId", s.handleGetProfile)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	s.engine.GET("/ws", gin.WrapF(s.broadcaster.Handler()))
}

// handleAnalyze handles POST /analyze
func (s *Server) handleAnalyze(c *gin.Context) {
	var req dto.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.AnalysesTotal.WithLabelValues("invalid_input").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "malformed request body"})
		return
	}
	if req.Value == nil {
		metrics.AnalysesTotal.WithLabelValues("invalid_input").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": "value is required"})
		return
	}

	result, err := s.analysis.Analyze(c.Request.Context(), req.ToModel())
	if err != nil {
		status, code := mapAnalysisError(err)
		metrics.AnalysesTotal.WithLabelValues(code).Inc()
		if status >= http.StatusInternalServerError {
			s.log.Error("analysis failed", "userId", req.UserID, "err", err)
		}
		c.JSON(status, gin.H{"error": code})
		return
	}

	metrics.AnalysesTotal.WithLabelValues("complete").Inc()
	c.JSON(http.StatusOK, dto.FromResult(result))
}

// handleGetProfile handles GET /profiles/:userId. Never returns 404: an
// unknown user gets the default zero profile.
func (s *Server) handleGetProfile(c *gin.Context) {
	userID := c.Param("userId")

	profile, err := s.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		s.log.Error("profile lookup failed", "userId", userID, "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dependency_unavailable"})
		return
	}

	c.JSON(http.StatusOK, dto.FromProfile(profile))
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func mapAnalysisError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, service.ErrScoringUnavailable):
		return http.StatusBadGateway, "scoring_unavailable"
	case errors.Is(err, service.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable, "dependency_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Handler exposes the route tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
