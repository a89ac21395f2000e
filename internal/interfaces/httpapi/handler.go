package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/football-dashboard/external/footballdata"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
	"github.com/riskibarqy/football-dashboard/internal/usecase"
)

const dateLayout = "2006-01-02"

// Catalog is the read-only football-data surface exposed as passthrough routes.
type Catalog interface {
	Competitions(ctx context.Context) (footballdata.CompetitionsResponse, error)
	CompetitionStandings(ctx context.Context, code string) (footballdata.StandingsResponse, error)
	CompetitionMatches(ctx context.Context, code string) (footballdata.MatchesResponse, error)
	MatchesBetween(ctx context.Context, from, to time.Time) (footballdata.MatchesResponse, error)
	TodaysMatches(ctx context.Context) (footballdata.MatchesResponse, error)
	TeamDetails(ctx context.Context, teamID string) (footballdata.TeamDetails, error)
	TeamMatches(ctx context.Context, teamID string) (footballdata.MatchesResponse, error)
}

type HandlerConfig struct {
	// Location resolves dateFrom/dateTo query values into calendar days.
	Location *time.Location
	Logger   *logging.Logger
}

type Handler struct {
	session   *usecase.DashboardSession
	catalog   Catalog
	location  *time.Location
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(session *usecase.DashboardSession, catalog Catalog, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	return &Handler{
		session:   session,
		catalog:   catalog,
		location:  location,
		logger:    logger.Named("httpapi"),
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type upcomingMatchesQuery struct {
	Days int `validate:"gte=0,lte=30"`
}

type teamDetailsQuery struct {
	TeamID string `validate:"omitempty,numeric,max=12"`
}

type competitionPath struct {
	Code string `validate:"required,alphanum,min=2,max=6"`
}

type teamPath struct {
	TeamID string `validate:"required,numeric,max=12"`
}

type matchesQuery struct {
	DateFrom string `validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `validate:"required_with=DateFrom,omitempty,datetime=2006-01-02"`
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.session.Status())
}

func (h *Handler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CheckStatus")
	defer span.End()

	// The shared status must not take the outcome of an aborted request.
	writeSuccess(ctx, w, http.StatusOK, h.session.CheckConnection(context.WithoutCancel(ctx)))
}

// ListFeeds returns every dashboard feed's current state keyed by feed name.
func (h *Handler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFeeds")
	defer span.End()

	names := usecase.FeedNames()
	feeds := make(map[usecase.FeedName]any, len(names))
	for _, name := range names {
		snapshot, err := h.session.Snapshot(name)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		feeds[name] = snapshot
	}
	writeSuccess(ctx, w, http.StatusOK, feeds)
}

func (h *Handler) GetLiveMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLiveMatches")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.session.LiveMatches())
}

func (h *Handler) GetPremierLeagueStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPremierLeagueStandings")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.session.PremierLeagueStandings())
}

func (h *Handler) GetUpcomingMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUpcomingMatches")
	defer span.End()

	query := upcomingMatchesQuery{}
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: days must be an integer", usecase.ErrInvalidInput))
			return
		}
		query.Days = days
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.session.UpcomingMatches(query.Days)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, state)
}

func (h *Handler) GetTeamDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamDetails")
	defer span.End()

	query := teamDetailsQuery{TeamID: strings.TrimSpace(r.URL.Query().Get("teamId"))}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.session.TeamDetails(query.TeamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, state)
}

func (h *Handler) RefetchFeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefetchFeed")
	defer span.End()

	name := usecase.FeedName(strings.TrimSpace(r.PathValue("name")))
	if err := h.session.Refetch(ctx, name); err != nil {
		writeError(ctx, w, err)
		return
	}

	snapshot, err := h.session.Snapshot(name)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusAccepted, snapshot)
}

func (h *Handler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCompetitions")
	defer span.End()

	resp, err := h.catalog.Competitions(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list competitions failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, resp)
}

func (h *Handler) GetCompetitionStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCompetitionStandings")
	defer span.End()

	path := competitionPath{Code: strings.ToUpper(strings.TrimSpace(r.PathValue("code")))}
	if err := h.validateRequest(ctx, path); err != nil {
		writeError(ctx, w, err)
		return
	}

	resp, err := h.catalog.CompetitionStandings(ctx, path.Code)
	if err != nil {
		h.logger.WarnContext(ctx, "get competition standings failed", "competition", path.Code, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, resp)
}

func (h *Handler) ListCompetitionMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCompetitionMatches")
	defer span.End()

	path := competitionPath{Code: strings.ToUpper(strings.TrimSpace(r.PathValue("code")))}
	if err := h.validateRequest(ctx, path); err != nil {
		writeError(ctx, w, err)
		return
	}

	resp, err := h.catalog.CompetitionMatches(ctx, path.Code)
	if err != nil {
		h.logger.WarnContext(ctx, "list competition matches failed", "competition", path.Code, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, resp)
}

// ListMatches serves a date window. Without dateFrom it returns today's matches.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	values := r.URL.Query()
	query := matchesQuery{
		DateFrom: strings.TrimSpace(values.Get("dateFrom")),
		DateTo:   strings.TrimSpace(values.Get("dateTo")),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	var (
		resp footballdata.MatchesResponse
		err  error
	)
	if query.DateFrom == "" && query.DateTo != "" {
		writeError(ctx, w, fmt.Errorf("%w: dateTo requires dateFrom", usecase.ErrInvalidInput))
		return
	}
	if query.DateFrom == "" {
		resp, err = h.catalog.TodaysMatches(ctx)
	} else {
		from, _ := time.ParseInLocation(dateLayout, query.DateFrom, h.location)
		to, _ := time.ParseInLocation(dateLayout, query.DateTo, h.location)
		if to.Before(from) {
			writeError(ctx, w, fmt.Errorf("%w: dateTo must not be before dateFrom", usecase.ErrInvalidInput))
			return
		}
		resp, err = h.catalog.MatchesBetween(ctx, from, to)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "date_from", query.DateFrom, "date_to", query.DateTo, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, resp)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	path := teamPath{TeamID: strings.TrimSpace(r.PathValue("teamID"))}
	if err := h.validateRequest(ctx, path); err != nil {
		writeError(ctx, w, err)
		return
	}

	resp, err := h.catalog.TeamDetails(ctx, path.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", path.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, resp)
}

func (h *Handler) ListTeamMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamMatches")
	defer span.End()

	path := teamPath{TeamID: strings.TrimSpace(r.PathValue("teamID"))}
	if err := h.validateRequest(ctx, path); err != nil {
		writeError(ctx, w, err)
		return
	}

	resp, err := h.catalog.TeamMatches(ctx, path.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list team matches failed", "team_id", path.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, resp)
}
