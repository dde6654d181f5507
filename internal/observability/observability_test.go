package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/gameweek-oracle/internal/config"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

func TestInitUptrace_DisabledReturnsNoopShutdown(t *testing.T) {
	t.Parallel()

	shutdown, err := InitUptrace(config.Config{UptraceEnabled: false}, logging.NewNop())
	if err != nil {
		t.Fatalf("InitUptrace returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown returned error: %v", err)
	}
}

func TestInitUptrace_EmptyDSNDisables(t *testing.T) {
	t.Parallel()

	shutdown, err := InitUptrace(config.Config{UptraceEnabled: true, UptraceDSN: "   "}, logging.NewNop())
	if err != nil {
		t.Fatalf("InitUptrace returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown returned error: %v", err)
	}
}

func TestInitPyroscope_DisabledReturnsNoopStop(t *testing.T) {
	t.Parallel()

	stop, err := InitPyroscope(config.Config{PyroscopeEnabled: false}, logging.NewNop())
	if err != nil {
		t.Fatalf("InitPyroscope returned error: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("noop stop returned error: %v", err)
	}
}
