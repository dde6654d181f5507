package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
	"github.com/riskibarqy/gameweek-oracle/internal/usecase"
)

type Handler struct {
	registry  *usecase.PlayerRegistryService
	gateway   *usecase.StatsGatewayService
	sync      *usecase.PointsSyncService
	scheduler *usecase.SyncSchedulerService
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(
	registry *usecase.PlayerRegistryService,
	gateway *usecase.StatsGatewayService,
	syncService *usecase.PointsSyncService,
	scheduler *usecase.SyncSchedulerService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		registry:  registry,
		gateway:   gateway,
		sync:      syncService,
		scheduler: scheduler,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, req any) error {
	if err := h.validator.StructCtx(ctx, req); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	mappings, err := h.registry.ListAll(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list players failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]mappingDTO, 0, len(mappings))
	for _, m := range mappings {
		items = append(items, mappingToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type searchPlayersRequest struct {
	Query string `validate:"required"`
}

func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchPlayers")
	defer span.End()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if err := h.validateRequest(ctx, searchPlayersRequest{Query: query}); err != nil {
		writeError(ctx, w, err)
		return
	}

	mappings, err := h.registry.Search(ctx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "player search failed", "query", query, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]mappingDTO, 0, len(mappings))
	for _, m := range mappings {
		items = append(items, mappingToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetPlayerLiveStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerLiveStats")
	defer span.End()

	internalID, err := parseInternalID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	gameweek, err := parseGameweekQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if gameweek == 0 {
		current, err := h.gateway.CurrentGameweek(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "resolve current gameweek failed", "error", err)
			writeError(ctx, w, err)
			return
		}
		gameweek = current.ID
	}

	stats, err := h.registry.LiveStats(ctx, internalID, gameweek)
	if err != nil {
		h.logger.WarnContext(ctx, "get live stats failed", "internal_id", internalID, "gameweek", gameweek, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, liveStatsDTO{
		InternalID: internalID,
		Gameweek:   gameweek,
		Stats:      stats,
	})
}

func (h *Handler) GetPlayerHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerHistory")
	defer span.End()

	internalID, err := parseInternalID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rounds, err := h.registry.History(ctx, internalID)
	if err != nil {
		h.logger.WarnContext(ctx, "get player history failed", "internal_id", internalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rounds)
}

func (h *Handler) GetCurrentGameweek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentGameweek")
	defer span.End()

	current, err := h.gateway.CurrentGameweek(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get current gameweek failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameweekToDTO(current))
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	gameweek, err := parseGameweekQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	fixtures, err := h.gateway.Fixtures(ctx, gameweek)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "gameweek", gameweek, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]fixtureDTO, 0, len(fixtures))
	for _, f := range fixtures {
		items = append(items, fixtureToDTO(f))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListSyncStatuses(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSyncStatuses")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.sync.AllSyncStatuses(ctx))
}

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSyncStatus")
	defer span.End()

	gameweek, err := parseGameweekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status, err := h.sync.SyncStatusFor(ctx, gameweek)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, status)
}

func (h *Handler) ListUnsyncedGameweeks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUnsyncedGameweeks")
	defer span.End()

	gameweeks, err := h.sync.UnsyncedGameweeks(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list unsynced gameweeks failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"gameweeks": gameweeks})
}

func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSync")
	defer span.End()

	gameweek, err := parseGameweekPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status, err := h.sync.SyncGameweek(ctx, gameweek)
	if err != nil {
		h.logger.WarnContext(ctx, "sync run failed", "gameweek", gameweek, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, status)
}

func (h *Handler) RunCatchUp(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunCatchUp")
	defer span.End()

	result, err := h.scheduler.RunCatchUp(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "catch-up run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func parseInternalID(r *http.Request) (uint64, error) {
	raw := strings.TrimSpace(r.PathValue("internalID"))
	internalID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || internalID == 0 {
		return 0, fmt.Errorf("%w: invalid internal player id %q", usecase.ErrInvalidInput, raw)
	}
	return internalID, nil
}

func parseGameweekPath(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("gameweek"))
	gameweek, err := strconv.Atoi(raw)
	if err != nil || gameweek <= 0 {
		return 0, fmt.Errorf("%w: invalid gameweek %q", usecase.ErrInvalidInput, raw)
	}
	return gameweek, nil
}

// parseGameweekQuery reads the optional gameweek query parameter; zero means
// the caller did not pick one.
func parseGameweekQuery(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("gameweek"))
	if raw == "" {
		return 0, nil
	}
	gameweek, err := strconv.Atoi(raw)
	if err != nil || gameweek <= 0 {
		return 0, fmt.Errorf("%w: invalid gameweek %q", usecase.ErrInvalidInput, raw)
	}
	return gameweek, nil
}

type mappingDTO struct {
	InternalID uint64 `json:"internal_id"`
	ExternalID int    `json:"external_id"`
	Name       string `json:"name"`
	Team       string `json:"team"`
	Position   string `json:"position"`
}

type gameweekDTO struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	DeadlineTime time.Time `json:"deadline_time"`
	Finished     bool      `json:"finished"`
	DataChecked  bool      `json:"data_checked"`
	IsCurrent    bool      `json:"is_current"`
	IsNext       bool      `json:"is_next"`
}

type fixtureDTO struct {
	ID             int       `json:"id"`
	Gameweek       int       `json:"gameweek"`
	HomeTeamID     int       `json:"home_team_id"`
	AwayTeamID     int       `json:"away_team_id"`
	HomeScore      *int      `json:"home_score,omitempty"`
	AwayScore      *int      `json:"away_score,omitempty"`
	Started        bool      `json:"started"`
	Finished       bool      `json:"finished"`
	KickoffAt      time.Time `json:"kickoff_at"`
	HomeDifficulty int       `json:"home_difficulty"`
	AwayDifficulty int       `json:"away_difficulty"`
}

type liveStatsDTO struct {
	InternalID uint64                    `json:"internal_id"`
	Gameweek   int                       `json:"gameweek"`
	Stats      usecase.ExternalLiveStats `json:"stats"`
}
