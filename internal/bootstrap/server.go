package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"trustlens-server-go/internal/domain/eventbus"
	platformerrors "trustlens-server-go/internal/platform/errors"
	platformobservability "trustlens-server-go/internal/platform/observability"
	httptransport "trustlens-server-go/internal/transport/http"
	httpdetect "trustlens-server-go/internal/transport/http/detect"
	httphistory "trustlens-server-go/internal/transport/http/history"
	httpjobs "trustlens-server-go/internal/transport/http/jobs"
	httpsystem "trustlens-server-go/internal/transport/http/system"
	"trustlens-server-go/internal/utils"
)

const httpDrainTimeout = 10 * time.Second

// routeRegistrar is what every HTTP service exposes to the router.
type routeRegistrar interface {
	Register(ctx context.Context, group *gin.RouterGroup) error
}

// buildRouter assembles the gin engine with every service registered.
func buildRouter(ctx context.Context, state *appState) (*httptransport.Router, error) {
	cfg := state.config
	logger := state.logger

	opts := httptransport.Options{
		Config:  cfg,
		Logger:  logger,
		Metrics: platformobservability.CurrentMetrics(),
	}
	if state.tokens != nil {
		opts.AuthMiddleware = httptransport.BearerAuth(state.tokens, logger)
	}
	router, err := httptransport.Build(opts)
	if err != nil {
		return nil, err
	}

	// a nil *AsyncEventBus must not become a non-nil Publisher
	var publisher eventbus.Publisher
	if state.bus != nil {
		publisher = state.bus
	}

	detect, err := httpdetect.NewService(httpdetect.Options{
		Config:    cfg,
		Logger:    logger,
		Pipeline:  state.pipeline,
		Scorer:    state.mediaScorer,
		Sampler:   state.sampler,
		Publisher: publisher,
	})
	if err != nil {
		return nil, err
	}
	jobs, err := httpjobs.NewService(state.jobScorer, publisher, logger)
	if err != nil {
		return nil, err
	}
	system, err := httpsystem.NewService(httpsystem.Options{
		Logger:   logger,
		Version:  state.options.Version,
		History:  state.history,
		Pipeline: state.pipeline,
	})
	if err != nil {
		return nil, err
	}

	protected := []routeRegistrar{detect, jobs}
	if state.history != nil {
		lookup, err := httphistory.NewService(state.history, logger)
		if err != nil {
			return nil, err
		}
		protected = append(protected, lookup)
	}
	for _, svc := range protected {
		if err := svc.Register(ctx, router.Protected()); err != nil {
			return nil, err
		}
	}
	if err := system.Register(ctx, &router.Engine.RouterGroup); err != nil {
		return nil, err
	}
	return router, nil
}

// startHTTPServer serves until groupCtx ends, then drains in-flight requests.
func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	cfg := state.config.Server
	logger := state.logger

	router, err := buildRouter(groupCtx, state)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "http:build-router", "failed to build router", err)
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.IP, strconv.Itoa(cfg.Port)),
		Handler:      router.Engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "listening on http://%s (docs at /docs)", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), httpDrainTimeout)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			logger.ErrorTag("HTTP", "graceful shutdown failed: %v", err)
			return nil
		}
		logger.InfoTag("HTTP", "server stopped")
		return nil
	})
	return srv, nil
}

// startHistoryCleanup sweeps expired records for drivers without their own GC.
func startHistoryCleanup(state *appState, g *errgroup.Group, groupCtx context.Context) {
	interval := state.config.History.Cleanup
	if state.history == nil || interval <= 0 {
		return
	}

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
			}
			if err := state.history.CleanupExpired(groupCtx); err != nil && groupCtx.Err() == nil {
				state.logger.WarnTag("History", "cleanup failed: %v", err)
			}
		}
	})
}

func startServices(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	if _, err := startHTTPServer(state, g, groupCtx); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	startHistoryCleanup(state, g, groupCtx)
	return nil
}

// waitForShutdown blocks until ctx ends, cancels the services and waits at most
// shutdownTimeout for them to return.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, logger *utils.Logger, g *errgroup.Group) error {
	<-ctx.Done()
	logger.InfoTag("Bootstrap", "shutting down: %v", context.Cause(ctx))
	cancel()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("Bootstrap", "shutdown finished with error: %v", err)
			return err
		}
		logger.InfoTag("Bootstrap", "all services stopped")
		return nil
	case <-time.After(shutdownTimeout):
		logger.ErrorTag("Bootstrap", "shutdown timed out")
		return errors.New("shutdown timed out")
	}
}
