package fpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/resilience"
	"github.com/riskibarqy/gameweek-oracle/internal/usecase"
)

const (
	defaultBaseURL = "https://fantasy.premierleague.com/api"

	pathBootstrap = "/bootstrap-static/"
	pathFixtures  = "/fixtures/"
)

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the Fantasy Premier League public API. All fetches share a
// circuit breaker and collapse identical in-flight requests.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchBootstrap returns the season-wide snapshot of players, teams and
// gameweeks in one call.
func (c *Client) FetchBootstrap(ctx context.Context) (usecase.ExternalBootstrap, error) {
	var envelope bootstrapEnvelope
	if err := c.doJSON(ctx, pathBootstrap, nil, &envelope); err != nil {
		return usecase.ExternalBootstrap{}, fmt.Errorf("fetch bootstrap: %w", err)
	}
	return mapBootstrap(envelope), nil
}

// FetchLiveGameweek returns per-player stat lines for a gameweek keyed by the
// provider player id. Players without a stat line that round are absent.
func (c *Client) FetchLiveGameweek(ctx context.Context, gameweek int) (map[int]usecase.ExternalLiveStats, error) {
	if gameweek <= 0 {
		return nil, fmt.Errorf("gameweek must be greater than zero")
	}

	path := fmt.Sprintf("/event/%d/live/", gameweek)
	var envelope liveEnvelope
	if err := c.doJSON(ctx, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch live gameweek=%d: %w", gameweek, err)
	}
	return mapLiveElements(envelope), nil
}

// FetchPlayerHistory returns per-gameweek rows for one provider player id in
// the current season.
func (c *Client) FetchPlayerHistory(ctx context.Context, externalID int) ([]usecase.ExternalPlayerRound, error) {
	if externalID <= 0 {
		return nil, fmt.Errorf("external player id must be greater than zero")
	}

	path := fmt.Sprintf("/element-summary/%d/", externalID)
	var envelope elementSummaryEnvelope
	if err := c.doJSON(ctx, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch player history external_id=%d: %w", externalID, err)
	}
	return mapPlayerHistory(externalID, envelope.History), nil
}

// FetchFixtures returns fixtures for one gameweek, or every fixture in the
// season when gameweek is zero.
func (c *Client) FetchFixtures(ctx context.Context, gameweek int) ([]usecase.ExternalFixture, error) {
	if gameweek < 0 {
		return nil, fmt.Errorf("gameweek must not be negative")
	}

	var query map[string]string
	if gameweek > 0 {
		query = map[string]string{"event": strconv.Itoa(gameweek)}
	}

	var items []fixtureItem
	if err := c.doJSON(ctx, pathFixtures, query, &items); err != nil {
		return nil, fmt.Errorf("fetch fixtures gameweek=%d: %w", gameweek, err)
	}
	return mapFixtures(items), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: stats provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isFPLCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errFPLTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFPLTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else {
				if !isRetryableStatus(resp.StatusCode) {
					return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
				}
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errFPLTransient, resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isFPLCircuitFailure(err error) bool {
	return crerr.Is(err, errFPLTransient)
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	value := strings.TrimSpace(string(raw))
	if len(value) > 256 {
		return value[:256] + "..."
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
