package footballdata

// Payload shapes of the football-data.org v4 resources used by the dashboard.

type Area struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Flag string `json:"flag,omitempty"`
}

type Competition struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Code   string  `json:"code"`
	Type   string  `json:"type"`
	Emblem string  `json:"emblem"`
	Area   *Area   `json:"area,omitempty"`
	Season *Season `json:"currentSeason,omitempty"`
}

type Season struct {
	ID              int64  `json:"id"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	CurrentMatchday *int   `json:"currentMatchday"`
}

type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
	Crest     string `json:"crest"`
}

type TeamDetails struct {
	Team
	Area                *Area         `json:"area,omitempty"`
	Address             string        `json:"address"`
	Website             string        `json:"website"`
	Founded             *int          `json:"founded"`
	ClubColors          string        `json:"clubColors"`
	Venue               string        `json:"venue"`
	RunningCompetitions []Competition `json:"runningCompetitions"`
	Squad               []SquadMember `json:"squad"`
}

type SquadMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Position    string `json:"position"`
	DateOfBirth string `json:"dateOfBirth"`
	Nationality string `json:"nationality"`
}

// MatchStatus mirrors the provider's match lifecycle values.
type MatchStatus string

const (
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchTimed     MatchStatus = "TIMED"
	MatchLive      MatchStatus = "LIVE"
	MatchInPlay    MatchStatus = "IN_PLAY"
	MatchPaused    MatchStatus = "PAUSED"
	MatchFinished  MatchStatus = "FINISHED"
	MatchPostponed MatchStatus = "POSTPONED"
	MatchSuspended MatchStatus = "SUSPENDED"
	MatchCancelled MatchStatus = "CANCELLED"
)

// IsLive reports whether the match is currently being played.
func (s MatchStatus) IsLive() bool {
	switch s {
	case MatchLive, MatchInPlay, MatchPaused:
		return true
	default:
		return false
	}
}

type ScoreLine struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type Score struct {
	Winner   *string   `json:"winner"`
	Duration string    `json:"duration"`
	FullTime ScoreLine `json:"fullTime"`
	HalfTime ScoreLine `json:"halfTime"`
}

type Match struct {
	ID          int64        `json:"id"`
	UTCDate     string       `json:"utcDate"`
	Status      MatchStatus  `json:"status"`
	Matchday    *int         `json:"matchday"`
	Stage       string       `json:"stage"`
	HomeTeam    Team         `json:"homeTeam"`
	AwayTeam    Team         `json:"awayTeam"`
	Score       Score        `json:"score"`
	Competition *Competition `json:"competition,omitempty"`
}

type ResultSet struct {
	Count  int    `json:"count"`
	First  string `json:"first"`
	Last   string `json:"last"`
	Played int    `json:"played"`
}

type MatchesResponse struct {
	Filters     map[string]any `json:"filters"`
	ResultSet   ResultSet      `json:"resultSet"`
	Competition *Competition   `json:"competition,omitempty"`
	Matches     []Match        `json:"matches"`
}

type Standing struct {
	Position       int    `json:"position"`
	Team           Team   `json:"team"`
	PlayedGames    int    `json:"playedGames"`
	Form           string `json:"form"`
	Won            int    `json:"won"`
	Draw           int    `json:"draw"`
	Lost           int    `json:"lost"`
	Points         int    `json:"points"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
}

type StandingGroup struct {
	Stage string     `json:"stage"`
	Type  string     `json:"type"`
	Group *string    `json:"group"`
	Table []Standing `json:"table"`
}

type StandingsResponse struct {
	Competition Competition     `json:"competition"`
	Season      Season          `json:"season"`
	Standings   []StandingGroup `json:"standings"`
}

// TotalTable returns the overall table, or the first group when no TOTAL group exists.
func (r StandingsResponse) TotalTable() []Standing {
	for _, group := range r.Standings {
		if group.Type == "TOTAL" {
			return group.Table
		}
	}
	if len(r.Standings) > 0 {
		return r.Standings[0].Table
	}
	return nil
}

type CompetitionsResponse struct {
	Count        int           `json:"count"`
	Competitions []Competition `json:"competitions"`
}

// ConnectionResult is the outcome of TestConnection. Data is the raw probe payload.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
