package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// AdminServer serves /healthz and /metrics.
type AdminServer struct {
	address string
	logger  logging.Logger
	engine  *gin.Engine
}

func NewAdminServer(address string, m *Metrics, check HealthCheck, logger logging.Logger) *AdminServer {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if check != nil {
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	return &AdminServer{address: address, logger: logger.With("module", "admin"), engine: r}
}

func (a *AdminServer) Handler() http.Handler { return a.engine }

// Run serves until ctx is cancelled.
func (a *AdminServer) Run(ctx context.Context) error {
	srv := &http.Server{Addr: a.address, Handler: a.engine, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		a.logger.Info(ctx, "Stopping admin server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info(ctx, "Starting admin server", "address", a.address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
