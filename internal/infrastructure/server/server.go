package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sensorlink/internal/app"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/sensorlink/internal/middleware"
)

const shutdownTimeout = 5 * time.Second

// System is what the operator endpoint observes and controls.
type System interface {
	Status() app.Status
	TerminatePrimary() bool
}

// Server wraps the operator HTTP endpoint and its dependencies
type Server struct {
	router  *gin.Engine
	system  System
	logger  *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	addr    string
}

// New creates the operator endpoint for system, listening on addr.
func New(addr string, system System, logger *logging.Logger, metrics *monitoring.Metrics) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:  gin.New(),
		system:  system,
		logger:  logger.Component("server"),
		metrics: metrics,
		tracer:  tracing.New("sensorlink", logger),
		addr:    addr,
	}

	s.router.Use(gin.Recovery())
	s.router.Use(tracing.HTTPMiddleware(s.tracer))
	s.router.Use(monitoring.Middleware(metrics))
	s.router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	s.router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	s.router.GET("/health", s.health)
	s.router.GET("/status", s.status)
	if metrics != nil {
		handler := metrics.Handler()
		s.router.GET("/metrics", func(c *gin.Context) {
			handler.ServeHTTP(c.Writer, c.Request)
		})
	}
	s.router.POST("/faults/primary",
		middleware.GlobalRateLimit(middleware.FaultRateLimitConfig()),
		s.terminatePrimary,
	)

	return s
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the tracer. Run calls it on return.
func (s *Server) Close() {
	s.tracer.Close()
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	st := s.system.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"run_id":  st.RunID,
		"started": st.Started,
		"tick":    st.Tick,
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.system.Status())
}

func (s *Server) terminatePrimary(c *gin.Context) {
	if !s.system.TerminatePrimary() {
		c.JSON(http.StatusConflict, gin.H{"error": "primary controller is not running"})
		return
	}
	s.logger.Warn("primary fault injected", zap.String("client", c.ClientIP()))
	c.JSON(http.StatusAccepted, gin.H{"terminated": app.PrimaryName})
}
