package httpapi

import (
	"net/http"
	"strings"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerStatusRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/status", handler.GetStatus)
	mux.HandleFunc("POST /v1/status/check", handler.CheckStatus)
}

func registerFeedRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/feeds", handler.ListFeeds)
	mux.HandleFunc("GET /v1/feeds/live-matches", handler.GetLiveMatches)
	mux.HandleFunc("GET /v1/feeds/premier-league-standings", handler.GetPremierLeagueStandings)
	mux.HandleFunc("GET /v1/feeds/upcoming-matches", handler.GetUpcomingMatches)
	mux.HandleFunc("GET /v1/feeds/team-details", handler.GetTeamDetails)
	mux.HandleFunc("POST /v1/feeds/{name}/refetch", handler.RefetchFeed)
}

func registerCatalogRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/competitions", handler.ListCompetitions)
	mux.HandleFunc("GET /v1/competitions/{code}/standings", handler.GetCompetitionStandings)
	mux.HandleFunc("GET /v1/competitions/{code}/matches", handler.ListCompetitionMatches)
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/teams/{teamID}/matches", handler.ListTeamMatches)
}

// RelayHandler is the same-origin upstream relay mounted under its prefix.
type RelayHandler interface {
	http.Handler
	Prefix() string
}

func registerRelayRoutes(mux *http.ServeMux, relay RelayHandler) {
	if relay == nil {
		return
	}
	prefix := strings.TrimRight(relay.Prefix(), "/")
	mux.Handle(prefix+"/", relay)
}
