package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kthimi/invoicer/internal/domain/invoice"
)

// Pinger reports database connectivity.
type Pinger interface {
	Ping() error
}

// Server exposes the operational HTTP surface: liveness, queue depths and
// Prometheus metrics. It serves no business endpoints.
type Server struct {
	engine    *gin.Engine
	srv       *http.Server
	db        Pinger
	inspector invoice.QueueInspector
	logger    *zap.Logger
}

// NewServer builds the ops server on addr.
func NewServer(addr string, db Pinger, inspector invoice.QueueInspector, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		db:        db,
		inspector: inspector,
		logger:    logger.Named("ops"),
	}
	s.registerRoutes()

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/stats", s.stats)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) health(c *gin.Context) {
	if err := s.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) stats(c *gin.Context) {
	depths, err := s.inspector.Depths(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to read queue depths", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "queue depths unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": depths})
}

// Handler exposes the underlying engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("ops server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("ops server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
