// Package http provides the HTTP adapter for the application layer.
// It is a thin translation layer: requests map onto service calls and
// service errors map onto status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/benefit-claims/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	claimService service.ClaimService,
	settlementService service.SettlementService,
	periodService service.PeriodService,
	auditService service.AuditLogService,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(claimService, settlementService, periodService, auditService, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		claims := api.Group("/claims")
		{
			claims.POST("", s.handlers.SubmitClaim)
			claims.GET("", s.handlers.ListClaims)
			claims.GET("/:id", s.handlers.GetClaim)
			claims.PUT("/:id", s.handlers.UpdateClaim)
			claims.DELETE("/:id", s.handlers.DeleteClaim)
			claims.POST("/:id/review", s.handlers.StartReview)
			claims.POST("/:id/approve", s.handlers.ApproveClaim)
			claims.POST("/:id/reject", s.handlers.RejectClaim)
		}

		reviews := api.Group("/reviews")
		{
			reviews.POST("/batch-approve", s.handlers.BatchApprove)
			reviews.POST("/batch-reject", s.handlers.BatchReject)
		}

		periods := api.Group("/periods")
		{
			periods.GET("", s.handlers.ListPeriods)
			periods.GET("/current", s.handlers.CurrentPeriod)
			periods.GET("/submission", s.handlers.SubmissionPeriod)
			periods.POST("/:id/settlement", s.handlers.ProcessSettlement)
		}

		api.DELETE("/settlements/:id", s.handlers.DeleteSettlement)
		api.GET("/audit-log", s.handlers.ListAuditEntries)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server starting", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
