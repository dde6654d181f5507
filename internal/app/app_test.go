package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/gameweek-oracle/internal/config"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

func baseConfig() config.Config {
	return config.Config{
		AppEnv:               config.EnvDev,
		ServiceName:          "gameweek-oracle",
		HTTPAddr:             ":0",
		CORSAllowedOrigins:   []string{"*"},
		CacheTTL:             time.Minute,
		LiveCacheTTL:         30 * time.Second,
		FPLBaseURL:           "http://127.0.0.1:9",
		FPLTimeout:           time.Second,
		SyncScheduleInterval: time.Minute,
		SyncMaxWorkers:       1,
	}
}

func TestNew_WiresServiceGraph(t *testing.T) {
	t.Parallel()

	application, err := New(baseConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(application.Close)

	require.NotNil(t, application.Server)
	require.NotNil(t, application.Server.Handler)
	require.NotNil(t, application.Scheduler)
	require.Equal(t, ":0", application.Server.Addr)
}

func TestNew_RejectsMissingMappingFile(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.PlayerMappingsPath = "does-not-exist.yaml"

	_, err := New(cfg, logging.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "player mapping table")
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.HTTPAddr = ""

	_, err := New(cfg, logging.NewNop())
	require.Error(t, err)
}

func TestNew_ChainEnabledRequiresValidConfig(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.ChainEnabled = true

	_, err := New(cfg, logging.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "chain points store")
}
