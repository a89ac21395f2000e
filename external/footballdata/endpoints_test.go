package footballdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
)

type recordingUpstream struct {
	mu       sync.Mutex
	requests []string
	status   int
	body     any
}

func (u *recordingUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.requests = append(u.requests, r.URL.RequestURI())
	status, body := u.status, u.body
	u.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = jsoniter.NewEncoder(w).Encode(body)
	}
}

func (u *recordingUpstream) last() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.requests) == 0 {
		return ""
	}
	return u.requests[len(u.requests)-1]
}

func newFixedClock(t *testing.T, srvURL string, now time.Time) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:  srvURL + "/v4",
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
}

func TestUpcomingMatches_SevenDaysFromFixedNow(t *testing.T) {
	t.Parallel()

	upstream := &recordingUpstream{body: map[string]any{"matches": []any{}}}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	now := time.Date(2024, 3, 1, 18, 45, 0, 0, time.UTC)
	client := newFixedClock(t, srv.URL, now)

	if _, err := client.UpcomingMatches(context.Background(), 7); err != nil {
		t.Fatalf("upcoming matches: %v", err)
	}
	if got, want := upstream.last(), "/v4/matches?dateFrom=2024-03-01&dateTo=2024-03-08"; got != want {
		t.Fatalf("unexpected request: got=%s want=%s", got, want)
	}
}

func TestTodaysMatches_UsesSameDateForBothBounds(t *testing.T) {
	t.Parallel()

	upstream := &recordingUpstream{body: map[string]any{
		"resultSet": map[string]any{"count": 1},
		"matches": []any{
			map[string]any{
				"id":       436041,
				"utcDate":  "2024-03-01T20:00:00Z",
				"status":   "IN_PLAY",
				"homeTeam": map[string]any{"id": 65, "name": "Manchester City FC", "tla": "MCI"},
				"awayTeam": map[string]any{"id": 64, "name": "Liverpool FC", "tla": "LIV"},
				"score": map[string]any{
					"fullTime": map[string]any{"home": 1, "away": nil},
				},
			},
		},
	}}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	client := newFixedClock(t, srv.URL, time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC))
	got, err := client.TodaysMatches(context.Background())
	if err != nil {
		t.Fatalf("todays matches: %v", err)
	}
	if want := "/v4/matches?dateFrom=2024-03-01&dateTo=2024-03-01"; upstream.last() != want {
		t.Fatalf("unexpected request: got=%s want=%s", upstream.last(), want)
	}
	if len(got.Matches) != 1 {
		t.Fatalf("expected one match, got=%d", len(got.Matches))
	}
	match := got.Matches[0]
	if !match.Status.IsLive() {
		t.Fatalf("expected live status, got=%s", match.Status)
	}
	if match.Score.FullTime.Home == nil || *match.Score.FullTime.Home != 1 {
		t.Fatalf("unexpected home score: %+v", match.Score.FullTime)
	}
	if match.Score.FullTime.Away != nil {
		t.Fatalf("expected nil away score")
	}
}

func TestMatchesBetweenPath_UsesLocationCalendarDate(t *testing.T) {
	t.Parallel()

	jakarta := time.FixedZone("WIB", 7*60*60)
	late := time.Date(2024, 2, 29, 20, 0, 0, 0, time.UTC)

	got := MatchesBetweenPath(late, late.AddDate(0, 0, 1), jakarta)
	if want := "/matches?dateFrom=2024-03-01&dateTo=2024-03-02"; got != want {
		t.Fatalf("unexpected path: got=%s want=%s", got, want)
	}
}

func TestEndpointCatalog_Paths(t *testing.T) {
	t.Parallel()

	upstream := &recordingUpstream{body: map[string]any{}}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	client := newFixedClock(t, srv.URL, time.Now())
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
		want string
	}{
		{name: "competitions", call: func() error { _, err := client.Competitions(ctx); return err }, want: "/v4/competitions"},
		{name: "standings", call: func() error { _, err := client.CompetitionStandings(ctx, "SA"); return err }, want: "/v4/competitions/SA/standings"},
		{name: "competition matches", call: func() error { _, err := client.CompetitionMatches(ctx, "BL1"); return err }, want: "/v4/competitions/BL1/matches"},
		{name: "team details", call: func() error { _, err := client.TeamDetails(ctx, "65"); return err }, want: "/v4/teams/65"},
		{name: "team matches", call: func() error { _, err := client.TeamMatches(ctx, "65"); return err }, want: "/v4/teams/65/matches"},
		{name: "pl standings", call: func() error { _, err := client.PremierLeagueStandings(ctx); return err }, want: "/v4/competitions/PL/standings"},
		{name: "pl matches", call: func() error { _, err := client.PremierLeagueMatches(ctx); return err }, want: "/v4/competitions/PL/matches"},
		{name: "cl standings", call: func() error { _, err := client.ChampionsLeagueStandings(ctx); return err }, want: "/v4/competitions/CL/standings"},
		{name: "cl matches", call: func() error { _, err := client.ChampionsLeagueMatches(ctx); return err }, want: "/v4/competitions/CL/matches"},
		{name: "escaped team id", call: func() error { _, err := client.TeamDetails(ctx, "a/b"); return err }, want: "/v4/teams/a%2Fb"},
	}

	for _, tc := range cases {
		if err := tc.call(); err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got := upstream.last(); got != tc.want {
			t.Fatalf("%s: unexpected path: got=%s want=%s", tc.name, got, tc.want)
		}
	}
}

func TestTypedEndpoint_ShapeMismatchIsMalformed(t *testing.T) {
	t.Parallel()

	upstream := &recordingUpstream{body: map[string]any{"matches": "not-a-list"}}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	_, err := newFixedClock(t, srv.URL, time.Now()).CompetitionMatches(context.Background(), "PL")
	if KindOf(err) != KindMalformedResponse {
		t.Fatalf("expected malformed response, got %v", err)
	}
}

func TestTypedEndpoint_PropagatesExecutorFailure(t *testing.T) {
	t.Parallel()

	upstream := &recordingUpstream{status: http.StatusForbidden}
	srv := httptest.NewServer(upstream)
	defer srv.Close()

	_, err := newFixedClock(t, srv.URL, time.Now()).PremierLeagueStandings(context.Background())
	if KindOf(err) != KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestStandingsResponse_TotalTable(t *testing.T) {
	t.Parallel()

	resp := StandingsResponse{Standings: []StandingGroup{
		{Type: "HOME", Table: []Standing{{Position: 2}}},
		{Type: "TOTAL", Table: []Standing{{Position: 1}}},
	}}
	if table := resp.TotalTable(); len(table) != 1 || table[0].Position != 1 {
		t.Fatalf("expected TOTAL table, got %+v", table)
	}
	if table := (StandingsResponse{}).TotalTable(); table != nil {
		t.Fatalf("expected nil table, got %+v", table)
	}
}

func TestTestConnection_IdempotentClassification(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		upstream := &recordingUpstream{body: map[string]any{"id": 2021, "code": "PL"}}
		srv := httptest.NewServer(upstream)
		defer srv.Close()

		client := newFixedClock(t, srv.URL, time.Now())
		first, err := client.TestConnection(context.Background())
		if err != nil {
			t.Fatalf("first check: %v", err)
		}
		second, err := client.TestConnection(context.Background())
		if err != nil {
			t.Fatalf("second check: %v", err)
		}
		if !first.Success || !second.Success {
			t.Fatalf("expected both checks to succeed: %+v %+v", first, second)
		}
		if upstream.last() != "/v4/competitions/PL" {
			t.Fatalf("unexpected check path: %s", upstream.last())
		}
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		upstream := &recordingUpstream{status: http.StatusTooManyRequests}
		srv := httptest.NewServer(upstream)
		defer srv.Close()

		client := newFixedClock(t, srv.URL, time.Now())
		first, _ := client.TestConnection(context.Background())
		second, _ := client.TestConnection(context.Background())
		if first.Success || second.Success {
			t.Fatalf("expected both checks to fail")
		}
		if first.Error != second.Error || first.Error != msgRateLimited {
			t.Fatalf("expected identical rate limit errors, got %q and %q", first.Error, second.Error)
		}
		if first.Data != nil {
			t.Fatalf("failed connection test must not carry data")
		}
	})
}

func TestTestConnection_CanceledContextReturnsError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1/v4"})
	if _, err := client.TestConnection(ctx); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}
