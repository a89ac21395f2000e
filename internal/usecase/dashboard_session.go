package usecase

import (
	"context"
	"strings"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-dashboard/external/footballdata"
	"github.com/riskibarqy/football-dashboard/internal/domain/apistatus"
	"github.com/riskibarqy/football-dashboard/internal/platform/feed"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
)

type FeedName string

const (
	FeedLiveMatches            FeedName = "live-matches"
	FeedPremierLeagueStandings FeedName = "premier-league-standings"
	FeedUpcomingMatches        FeedName = "upcoming-matches"
	FeedTeamDetails            FeedName = "team-details"
)

const (
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 30
)

func FeedNames() []FeedName {
	return []FeedName{FeedLiveMatches, FeedPremierLeagueStandings, FeedUpcomingMatches, FeedTeamDetails}
}

// FootballAPI is the slice of the football-data client the dashboard feeds read.
type FootballAPI interface {
	TodaysMatches(ctx context.Context) (footballdata.MatchesResponse, error)
	PremierLeagueStandings(ctx context.Context) (footballdata.StandingsResponse, error)
	UpcomingMatches(ctx context.Context, days int) (footballdata.MatchesResponse, error)
	TeamDetails(ctx context.Context, teamID string) (footballdata.TeamDetails, error)
}

type DashboardSessionConfig struct {
	UpcomingDays int
	Runner       feed.Runner
	Logger       *logging.Logger
}

// DashboardSession owns the named feeds behind the dashboard views and the
// status monitor. Everything it starts is torn down by Close.
type DashboardSession struct {
	api     FootballAPI
	monitor *StatusMonitor
	logger  *logging.Logger

	live      *feed.Feed[footballdata.MatchesResponse]
	standings *feed.Feed[footballdata.StandingsResponse]
	upcoming  *feed.Feed[footballdata.MatchesResponse]
	team      *feed.Feed[*footballdata.TeamDetails]

	mu           sync.Mutex
	upcomingDays int
	teamID       string
	closed       bool
}

func NewDashboardSession(ctx context.Context, api FootballAPI, monitor *StatusMonitor, cfg DashboardSessionConfig) *DashboardSession {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	days := cfg.UpcomingDays
	if days <= 0 {
		days = DefaultUpcomingDays
	}

	opts := func(name FeedName) []feed.Option {
		return []feed.Option{
			feed.WithName(string(name)),
			feed.WithRunner(cfg.Runner),
			feed.WithLogger(logger),
			feed.WithContext(ctx),
		}
	}

	s := &DashboardSession{
		api:          api,
		monitor:      monitor,
		logger:       logger.Named("dashboard_session"),
		upcomingDays: days,
	}
	s.live = feed.New(api.TodaysMatches, opts(FeedLiveMatches)...)
	s.standings = feed.New(api.PremierLeagueStandings, opts(FeedPremierLeagueStandings)...)
	s.upcoming = feed.New(s.upcomingProducer(days), opts(FeedUpcomingMatches)...)
	s.team = feed.New(s.teamProducer(""), opts(FeedTeamDetails)...)
	return s
}

// Start runs the first cycle of every feed and starts the status monitor.
func (s *DashboardSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	days, teamID := s.upcomingDays, s.teamID
	s.mu.Unlock()

	var errs error
	errs = crerr.CombineErrors(errs, s.live.Start())
	errs = crerr.CombineErrors(errs, s.standings.Start())
	_, err := s.upcoming.Update(s.upcomingProducer(days), days)
	errs = crerr.CombineErrors(errs, err)
	_, err = s.team.Update(s.teamProducer(teamID), teamID)
	errs = crerr.CombineErrors(errs, err)

	if s.monitor != nil {
		s.monitor.Start(ctx)
	}
	if errs != nil {
		s.logger.WarnContext(ctx, "dashboard session started with errors", "error", errs)
	}
	return errs
}

func (s *DashboardSession) LiveMatches() feed.State[footballdata.MatchesResponse] {
	return s.live.State()
}

func (s *DashboardSession) PremierLeagueStandings() feed.State[footballdata.StandingsResponse] {
	return s.standings.State()
}

// UpcomingMatches switches the window to days (0 keeps the current one) and
// returns the feed state. A changed window starts a new cycle.
func (s *DashboardSession) UpcomingMatches(days int) (feed.State[footballdata.MatchesResponse], error) {
	if days < 0 || days > MaxUpcomingDays {
		return feed.State[footballdata.MatchesResponse]{}, crerr.Wrapf(ErrInvalidInput, "days must be between 0 and %d", MaxUpcomingDays)
	}

	s.mu.Lock()
	if days == 0 {
		days = s.upcomingDays
	}
	s.upcomingDays = days
	s.mu.Unlock()

	if _, err := s.upcoming.Update(s.upcomingProducer(days), days); err != nil {
		return feed.State[footballdata.MatchesResponse]{}, s.mapFeedErr(err)
	}
	return s.upcoming.State(), nil
}

// TeamDetails selects teamID and returns the feed state. An empty id resolves
// to empty data without calling upstream.
func (s *DashboardSession) TeamDetails(teamID string) (feed.State[*footballdata.TeamDetails], error) {
	teamID = strings.TrimSpace(teamID)

	s.mu.Lock()
	s.teamID = teamID
	s.mu.Unlock()

	if _, err := s.team.Update(s.teamProducer(teamID), teamID); err != nil {
		return feed.State[*footballdata.TeamDetails]{}, s.mapFeedErr(err)
	}
	return s.team.State(), nil
}

// Snapshot returns the current state of the named feed without changing its
// dependencies.
func (s *DashboardSession) Snapshot(name FeedName) (any, error) {
	switch name {
	case FeedLiveMatches:
		return s.live.State(), nil
	case FeedPremierLeagueStandings:
		return s.standings.State(), nil
	case FeedUpcomingMatches:
		return s.upcoming.State(), nil
	case FeedTeamDetails:
		return s.team.State(), nil
	default:
		return nil, crerr.Wrapf(ErrUnknownFeed, "%q", name)
	}
}

// Refetch triggers a manual cycle of the named feed.
func (s *DashboardSession) Refetch(ctx context.Context, name FeedName) error {
	var err error
	switch name {
	case FeedLiveMatches:
		err = s.live.Refetch()
	case FeedPremierLeagueStandings:
		err = s.standings.Refetch()
	case FeedUpcomingMatches:
		err = s.upcoming.Refetch()
	case FeedTeamDetails:
		err = s.team.Refetch()
	default:
		return crerr.Wrapf(ErrUnknownFeed, "%q", name)
	}
	if err != nil {
		return s.mapFeedErr(err)
	}
	s.logger.InfoContext(ctx, "feed refetch requested", "feed", string(name))
	return nil
}

func (s *DashboardSession) Status() apistatus.Status {
	if s.monitor == nil {
		return apistatus.Initial()
	}
	return s.monitor.Status()
}

func (s *DashboardSession) CheckConnection(ctx context.Context) apistatus.Status {
	if s.monitor == nil {
		return apistatus.Initial()
	}
	return s.monitor.CheckConnection(ctx)
}

// Close stops the monitor, tears down every feed and waits for in-flight
// cycles to return.
func (s *DashboardSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.monitor != nil {
		s.monitor.Stop()
	}
	s.live.Close()
	s.standings.Close()
	s.upcoming.Close()
	s.team.Close()

	s.live.Wait()
	s.standings.Wait()
	s.upcoming.Wait()
	s.team.Wait()
}

func (s *DashboardSession) upcomingProducer(days int) feed.Producer[footballdata.MatchesResponse] {
	return func(ctx context.Context) (footballdata.MatchesResponse, error) {
		return s.api.UpcomingMatches(ctx, days)
	}
}

func (s *DashboardSession) teamProducer(teamID string) feed.Producer[*footballdata.TeamDetails] {
	return func(ctx context.Context) (*footballdata.TeamDetails, error) {
		if teamID == "" {
			return nil, nil
		}
		details, err := s.api.TeamDetails(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return &details, nil
	}
}

func (s *DashboardSession) mapFeedErr(err error) error {
	if crerr.Is(err, feed.ErrClosed) {
		return ErrSessionClosed
	}
	return err
}
