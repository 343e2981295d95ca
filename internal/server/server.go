package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medwarehouse/internal/handler"
	"medwarehouse/internal/repository"
)

// Server is the analytics query service: a stateless read API over the marts
// schema.
type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	logger *zap.Logger
}

func NewServer(db *sqlx.DB, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		logger: logger,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	analyticsRepo := repository.NewAnalyticsRepository(s.db, s.logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsRepo, s.logger)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		api.GET("/reports/top-products", analyticsHandler.TopProducts)
		api.GET("/reports/visual-content", analyticsHandler.VisualContent)
		api.GET("/channels/:channel_name/activity", analyticsHandler.ChannelActivity)
		api.GET("/search/messages", analyticsHandler.SearchMessages)
	}
}

// Run starts the HTTP server on the given address.
func (s *Server) Run(addr string) error {
	s.logger.Info("Analytics API starting", zap.String("addr", addr))
	return s.router.Run(addr)
}
