package footballdata

import (
	"context"
	"fmt"
	"net/url"
	"time"

	sonic "github.com/bytedance/sonic"
)

const (
	CompetitionPremierLeague   = "PL"
	CompetitionChampionsLeague = "CL"

	isoDateLayout = "2006-01-02"
	// probePath is the cheapest lookup the provider offers.
	probePath = "/competitions/" + CompetitionPremierLeague
)

func (c *Client) Competitions(ctx context.Context) (CompetitionsResponse, error) {
	return decodeResult[CompetitionsResponse](c.Request(ctx, "/competitions"))
}

func (c *Client) CompetitionStandings(ctx context.Context, code string) (StandingsResponse, error) {
	path := fmt.Sprintf("/competitions/%s/standings", pathSegment(code))
	return decodeResult[StandingsResponse](c.Request(ctx, path))
}

func (c *Client) CompetitionMatches(ctx context.Context, code string) (MatchesResponse, error) {
	path := fmt.Sprintf("/competitions/%s/matches", pathSegment(code))
	return decodeResult[MatchesResponse](c.Request(ctx, path))
}

// MatchesBetween lists matches in the inclusive calendar-date range [from, to].
func (c *Client) MatchesBetween(ctx context.Context, from, to time.Time) (MatchesResponse, error) {
	return decodeResult[MatchesResponse](c.Request(ctx, MatchesBetweenPath(from, to, c.location)))
}

func (c *Client) TodaysMatches(ctx context.Context) (MatchesResponse, error) {
	today := c.today()
	return c.MatchesBetween(ctx, today, today)
}

// UpcomingMatches lists matches from today up to today plus days.
func (c *Client) UpcomingMatches(ctx context.Context, days int) (MatchesResponse, error) {
	today := c.today()
	return c.MatchesBetween(ctx, today, today.AddDate(0, 0, days))
}

func (c *Client) TeamDetails(ctx context.Context, teamID string) (TeamDetails, error) {
	path := fmt.Sprintf("/teams/%s", pathSegment(teamID))
	return decodeResult[TeamDetails](c.Request(ctx, path))
}

func (c *Client) TeamMatches(ctx context.Context, teamID string) (MatchesResponse, error) {
	path := fmt.Sprintf("/teams/%s/matches", pathSegment(teamID))
	return decodeResult[MatchesResponse](c.Request(ctx, path))
}

func (c *Client) PremierLeagueStandings(ctx context.Context) (StandingsResponse, error) {
	return c.CompetitionStandings(ctx, CompetitionPremierLeague)
}

func (c *Client) PremierLeagueMatches(ctx context.Context) (MatchesResponse, error) {
	return c.CompetitionMatches(ctx, CompetitionPremierLeague)
}

func (c *Client) ChampionsLeagueStandings(ctx context.Context) (StandingsResponse, error) {
	return c.CompetitionStandings(ctx, CompetitionChampionsLeague)
}

func (c *Client) ChampionsLeagueMatches(ctx context.Context) (MatchesResponse, error) {
	return c.CompetitionMatches(ctx, CompetitionChampionsLeague)
}

// TestConnection probes the API with a single competition lookup. A reported
// failure is a ConnectionResult with Success=false; the error return is only
// used when ctx ended before an outcome was known.
func (c *Client) TestConnection(ctx context.Context) (ConnectionResult, error) {
	if err := ctx.Err(); err != nil {
		return ConnectionResult{}, err
	}

	res := c.Request(ctx, probePath)
	if res.Err != nil && ctx.Err() != nil {
		return ConnectionResult{}, ctx.Err()
	}
	if res.Err != nil {
		c.logger.WarnContext(ctx, "football-data connection test failed", "kind", string(res.Err.Kind), "error", res.Err.Message)
		return ConnectionResult{Success: false, Error: res.Err.Message}, nil
	}

	c.logger.DebugContext(ctx, "football-data connection test succeeded", "status", res.Status)
	return ConnectionResult{Success: true, Data: res.Payload}, nil
}

// MatchesBetweenPath builds the date-range query using calendar dates in loc.
func MatchesBetweenPath(from, to time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	values := url.Values{}
	values.Set("dateFrom", from.In(loc).Format(isoDateLayout))
	values.Set("dateTo", to.In(loc).Format(isoDateLayout))
	return "/matches?" + values.Encode()
}

func (c *Client) today() time.Time {
	now := c.now().In(c.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.location)
}

func decodeResult[T any](res Result) (T, error) {
	var out T
	if res.Err != nil {
		return out, res.Err
	}
	if err := sonic.Unmarshal(res.Raw, &out); err != nil {
		return out, malformedError(res.Status, err)
	}
	return out, nil
}
