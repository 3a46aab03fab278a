// Package bootstrap wires configuration, logging, storage and the HTTP services
// into a running process.
package bootstrap

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainauth "trustlens-server-go/internal/domain/auth"
	"trustlens-server-go/internal/domain/authenticity"
	"trustlens-server-go/internal/domain/eventbus"
	"trustlens-server-go/internal/domain/history"
	domainimage "trustlens-server-go/internal/domain/image"
	"trustlens-server-go/internal/domain/jobfraud"
	"trustlens-server-go/internal/domain/media"
	platformconfig "trustlens-server-go/internal/platform/config"
	platformlogging "trustlens-server-go/internal/platform/logging"
	platformobservability "trustlens-server-go/internal/platform/observability"
	platformstorage "trustlens-server-go/internal/platform/storage"
	"trustlens-server-go/internal/utils"
)

const (
	shutdownTimeout = 15 * time.Second
	eventWorkers    = 4
)

// Options are the process-level inputs that do not come from the config file.
type Options struct {
	ConfigPath string
	Version    string
}

type appState struct {
	options               Options
	config                *platformconfig.Config
	configPath            string
	logProvider           *platformlogging.Logger
	logger                *utils.Logger
	slogger               *slog.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	db                    *gorm.DB
	history               history.Store
	bus                   *eventbus.AsyncEventBus
	tokens                *domainauth.AuthToken
	pipeline              *domainimage.Pipeline
	mediaScorer           *authenticity.Scorer
	jobScorer             *jobfraud.Scorer
	sampler               *media.FFmpegSampler
}

// Run loads configuration, builds every dependency and serves HTTP until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, opts Options) error {
	state := &appState{options: opts}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		state.close()
		return err
	}
	defer state.close()

	logger := state.logger
	logBootstrapGraph(steps, logger)

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startServices(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	// a failing service stops the process the same way a signal does
	go func() {
		<-groupCtx.Done()
		cancel()
	}()

	return waitForShutdown(signalCtx, cancel, logger, group)
}

// close releases everything the init steps created, in reverse order.
func (s *appState) close() {
	if s.bus != nil {
		s.bus.Stop()
	}
	if s.history != nil {
		if err := s.history.Close(context.Background()); err != nil && s.logger != nil {
			s.logger.WarnTag("History", "close failed: %v", err)
		}
	}
	if s.db != nil {
		if err := platformstorage.Close(s.db); err != nil && s.logger != nil {
			s.logger.WarnTag("Storage", "close failed: %v", err)
		}
	}
	if s.observabilityShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.observabilityShutdown(shutdownCtx); err != nil && s.logger != nil {
			s.logger.WarnTag("Bootstrap", "observability shutdown failed: %v", err)
		}
		cancel()
	}
	if s.logProvider != nil {
		_ = s.logProvider.Close()
	}
}
