package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskibarqy/gameweek-oracle/external/fpl"
	"github.com/riskibarqy/gameweek-oracle/internal/config"
	"github.com/riskibarqy/gameweek-oracle/internal/domain/points"
	"github.com/riskibarqy/gameweek-oracle/internal/infrastructure/pointstore/evm"
	"github.com/riskibarqy/gameweek-oracle/internal/infrastructure/pointstore/memory"
	"github.com/riskibarqy/gameweek-oracle/internal/infrastructure/seed"
	"github.com/riskibarqy/gameweek-oracle/internal/interfaces/httpapi"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/cache"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/resilience"
	"github.com/riskibarqy/gameweek-oracle/internal/usecase"
)

// App holds the wired service graph and its lifecycle hooks.
type App struct {
	Server    *http.Server
	Scheduler *usecase.SyncSchedulerService

	closers []func()
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	provider := fpl.NewClient(fpl.ClientConfig{
		BaseURL:    cfg.FPLBaseURL,
		Timeout:    cfg.FPLTimeout,
		MaxRetries: cfg.FPLMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})

	gateway := usecase.NewStatsGatewayService(provider, cache.NewStore(cfg.CacheTTL), cfg.LiveCacheTTL, logger)

	rows, err := seed.Load(cfg.PlayerMappingsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load player mapping table: %w", err)
	}
	registry := usecase.NewPlayerRegistryService(rows, gateway, logger)

	app := &App{}

	var store points.Store
	if cfg.ChainEnabled {
		chainStore, err := evm.NewStore(evm.Config{
			RPCURL:          cfg.ChainRPCURL,
			ContractAddress: cfg.ChainPointsStoreAddress,
			PrivateKeyHex:   cfg.ChainPrivateKey,
			ChainID:         cfg.ChainID,
			Logger:          logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build chain points store: %w", err)
		}
		app.closers = append(app.closers, chainStore.Close)
		store = chainStore
	} else {
		logger.Info("chain writes disabled, using in-memory points store")
		store = memory.NewStore()
	}

	syncService := usecase.NewPointsSyncService(registry, gateway, store, logger)
	app.Scheduler = usecase.NewSyncSchedulerService(syncService, usecase.SchedulerConfig{
		Enabled:    cfg.SyncScheduleEnabled,
		Interval:   cfg.SyncScheduleInterval,
		MaxWorkers: cfg.SyncMaxWorkers,
	}, logger)

	handler := httpapi.NewHandler(registry, gateway, syncService, app.Scheduler, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if app.Server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return app, nil
}

// Start begins background work. The HTTP server is started by the caller.
func (a *App) Start(ctx context.Context) error {
	return a.Scheduler.Start(ctx)
}

// Close stops background work and releases held connections.
func (a *App) Close() {
	a.Scheduler.Stop()
	for _, closeFn := range a.closers {
		closeFn()
	}
}
