package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/search", handler.SearchPlayers)
	mux.HandleFunc("GET /v1/players/{internalID}/live", handler.GetPlayerLiveStats)
	mux.HandleFunc("GET /v1/players/{internalID}/history", handler.GetPlayerHistory)
	mux.HandleFunc("GET /v1/gameweeks/current", handler.GetCurrentGameweek)
	mux.HandleFunc("GET /v1/fixtures", handler.ListFixtures)
	mux.HandleFunc("GET /v1/sync/status", handler.ListSyncStatuses)
	mux.HandleFunc("GET /v1/sync/status/{gameweek}", handler.GetSyncStatus)
	mux.HandleFunc("GET /v1/sync/unsynced", handler.ListUnsyncedGameweeks)
	mux.HandleFunc("POST /v1/sync/{gameweek}", handler.RunSync)
	mux.HandleFunc("POST /v1/sync/catch-up", handler.RunCatchUp)
}
