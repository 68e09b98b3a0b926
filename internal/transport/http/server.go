// Package httpapi exposes the engine over a thin JSON API: evaluate an
// intent, score components, and inspect breaker and journal state. The API is
// a shell over the library; every decision stays in the internal packages.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tradegate/internal/flowstate"
	"tradegate/internal/logger"
	"tradegate/internal/pipeline"
	"tradegate/internal/pkg/circuit"
	"tradegate/internal/store/decisionlog"
)

// ServerConfig describes the server dependencies. Only the orchestrator is
// required; the rest degrade to 503 on their endpoints.
type ServerConfig struct {
	Addr         string
	Orchestrator *pipeline.Orchestrator
	Journal      *decisionlog.Store
	Overlays     *flowstate.Registry
	Breakers     []*circuit.Breaker
}

// Server owns the gin engine and its http.Server lifecycle.
type Server struct {
	addr   string
	router *gin.Engine
	http   *http.Server
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("http server requires an orchestrator")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{
		orchestrator: cfg.Orchestrator,
		journal:      cfg.Journal,
		overlays:     cfg.Overlays,
		breakers:     cfg.Breakers,
	}
	api := router.Group("/api/v1")
	{
		api.POST("/evaluate", h.handleEvaluate)
		api.POST("/score", h.handleScore)
		api.GET("/circuit", h.handleCircuit)
		api.GET("/decisions", h.handleDecisions)
		api.GET("/decisions/:trace", h.handleDecisionByTrace)
	}

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Run serves until ctx is canceled, then drains with a short grace period.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http: listening on %s", s.addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("http: %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
