package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"SwapGate/internal/domain/repository"
	api "SwapGate/internal/handler/api"
	mid "SwapGate/internal/middleware"
	"SwapGate/internal/service/ratelimit"
	"SwapGate/pkg/config"
	xhttp "SwapGate/pkg/http"
	xmiddleware "SwapGate/pkg/http/middleware"
	applogger "SwapGate/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	gateway    *api.GatewayHandler
	stream     *api.ThreatStreamHandler
	limiter    *ratelimit.Limiter
	audit      *mid.AuditPipeline
	cache      repository.DecisionCache
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	gateway *api.GatewayHandler,
	stream *api.ThreatStreamHandler,
	limiter *ratelimit.Limiter,
	audit *mid.AuditPipeline,
	cache repository.DecisionCache,
) *App {
	return &App{
		cfg:     cfg,
		log:     log,
		gateway: gateway,
		stream:  stream,
		limiter: limiter,
		audit:   audit,
		cache:   cache,
	}
}

// RegisterRoutes installs request metrics and the rate limiter, then mounts
// every handler.
func (a *App) RegisterRoutes(e *echo.Echo) {
	e.Use(echo.WrapMiddleware(xmiddleware.Metrics(a.log, time.Second)))
	if a.limiter != nil {
		e.Use(a.limiter.Middleware())
	}
	a.gateway.RegisterRoutes(e)
	a.stream.RegisterRoutes(e)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.audit.Start(ctx)

	a.httpServer = xhttp.NewServer(a,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("validation gateway started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("env", a.cfg.Environment),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// Flush pending audit records and close the sinks behind them.
	if err := a.audit.Close(); err != nil {
		a.log.Warn("audit pipeline close error", applogger.Error(err))
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("decision cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
