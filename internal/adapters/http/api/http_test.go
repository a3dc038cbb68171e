package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/http/api"
	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source/fixture"
	service "github.com/folajindayo/builder-score-app-sub000/internal/app"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/types"
	"github.com/folajindayo/builder-score-app-sub000/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// mockDeps is a scripted Dependencies implementation.
type mockDeps struct {
	started  service.StartOptions
	filters  service.FilterOptions
	round    service.RoundResult
	view     service.View
	viewOpts service.ViewOptions
	entry    types.Entry
	entries  []types.Entry
	err      error
}

func (m *mockDeps) StartSession(_ context.Context, opts service.StartOptions) (service.Handle, error) {
	m.started = opts
	return service.Handle{ID: "s-1"}, m.err
}

func (m *mockDeps) EndSession(context.Context, string) error { return m.err }

func (m *mockDeps) SetFilters(_ context.Context, _ string, opts service.FilterOptions) error {
	m.filters = opts
	return m.err
}

func (m *mockDeps) LoadNextRound(context.Context, string, service.RoundOptions) (service.RoundResult, error) {
	return m.round, m.err
}

func (m *mockDeps) View(_ context.Context, _ string, opts service.ViewOptions) (service.View, error) {
	m.viewOpts = opts
	return m.view, m.err
}

func (m *mockDeps) Builder(context.Context, string, string) (types.Entry, error) {
	return m.entry, m.err
}

func (m *mockDeps) Export(context.Context, string, string) ([]types.Entry, error) {
	return m.entries, m.err
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "activeSessions": 2}
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

func TestSessionHandlers(t *testing.T) {
	Convey("Given an API server over scripted dependencies", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps, api.WithDefaultSponsors([]string{"base", "celo"}))

		Convey("When creating a session without sponsors", func() {
			rec := do(mux, http.MethodPost, "/sessions", `{"time_window":"30d"}`)

			Convey("Then the default sponsors are used", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				So(rec.Body.String(), ShouldContainSubstring, `"id":"s-1"`)
				So(deps.started.Sponsors, ShouldResemble, []string{"base", "celo"})
				So(deps.started.TimeWindow, ShouldEqual, "30d")
			})
		})

		Convey("When the body is not JSON", func() {
			rec := do(mux, http.MethodPost, "/sessions", `{`)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(rec)["code"], ShouldEqual, "bad_request")
				So(decodeError(rec)["message"], ShouldStartWith, "api.create_session")
			})
		})

		Convey("When changing filters", func() {
			rec := do(mux, http.MethodPut, "/sessions/s-1/filters", `{"sponsors":["talent"]}`)

			Convey("Then the new sponsors are passed through", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.filters.Sponsors, ShouldResemble, []string{"talent"})
			})
		})

		Convey("When deleting a session", func() {
			rec := do(mux, http.MethodDelete, "/sessions/s-1", "")

			Convey("Then no content is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusNoContent)
			})
		})

		Convey("When loading a round", func() {
			deps.round = service.RoundResult{HasMore: true, TotalUniqueBuilders: 7, Round: 1, DisplayedBuilders: []types.Entry{{IdentityKey: "talent_1"}}}
			rec := do(mux, http.MethodPost, "/sessions/s-1/rounds?q=ada", "")

			Convey("Then the round result is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var res service.RoundResult
				So(json.Unmarshal(rec.Body.Bytes(), &res), ShouldBeNil)
				So(res.TotalUniqueBuilders, ShouldEqual, 7)
				So(res.DisplayedBuilders[0].IdentityKey, ShouldEqual, "talent_1")
			})
		})

		Convey("When the method does not match a route", func() {
			rec := do(mux, http.MethodGet, "/sessions", "")

			Convey("Then the mux rejects it", func() {
				So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", service.ErrSessionNotFound), http.StatusNotFound, "not_found"},
		{service.ErrBuilderNotFound, http.StatusNotFound, "not_found"},
		{service.ErrNoSponsors, http.StatusBadRequest, "bad_request"},
		{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	Convey("Given dependencies that fail", t, func() {
		for _, tc := range cases {
			deps := &mockDeps{err: tc.err}
			mux := newMux(deps)
			rec := do(mux, http.MethodPost, "/sessions/s-1/rounds", "")

			Convey(fmt.Sprintf("Then %v maps to %d", tc.err, tc.status), func() {
				So(rec.Code, ShouldEqual, tc.status)
				So(decodeError(rec)["code"], ShouldEqual, tc.code)
			})
		}
	})
}

func TestLeaderboardHandlers(t *testing.T) {
	Convey("Given an API server over scripted dependencies", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps, api.WithMaxLimit(50))

		Convey("When requesting a window", func() {
			deps.view = service.View{Total: 3, Limit: 2, Builders: []types.Entry{{IdentityKey: "a"}, {IdentityKey: "b"}}}
			rec := do(mux, http.MethodGet, "/sessions/s-1/leaderboard?q=ada&offset=1&limit=2", "")

			Convey("Then the query is passed through", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.viewOpts, ShouldResemble, service.ViewOptions{Query: "ada", Offset: 1, Limit: 2})
				So(rec.Body.String(), ShouldContainSubstring, `"total":3`)
			})
		})

		Convey("When the limit is invalid or too large", func() {
			bad := do(mux, http.MethodGet, "/sessions/s-1/leaderboard?limit=abc", "")
			neg := do(mux, http.MethodGet, "/sessions/s-1/leaderboard?offset=-1", "")
			big := do(mux, http.MethodGet, "/sessions/s-1/leaderboard?limit=51", "")

			Convey("Then it is rejected", func() {
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(neg.Code, ShouldEqual, http.StatusBadRequest)
				So(big.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(big)["code"], ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When requesting a builder profile", func() {
			deps.entry = types.Entry{IdentityKey: "talent_42", Category: "featured"}
			rec := do(mux, http.MethodGet, "/sessions/s-1/builders/talent_42", "")

			Convey("Then it is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"category":"featured"`)
			})
		})

		Convey("When exporting CSV", func() {
			deps.entries = []types.Entry{{Rank: 1, IdentityKey: "talent_42", DisplayName: "Ada", TotalEarningsUSD: 35}}
			rec := do(mux, http.MethodGet, "/sessions/s-1/export.csv", "")

			Convey("Then a CSV attachment is written", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				So(rec.Header().Get("Content-Disposition"), ShouldContainSubstring, "leaderboard-s-1.csv")
				So(rec.Body.String(), ShouldContainSubstring, "talent_42")
			})
		})

		Convey("When reading stats and metrics", func() {
			stats := do(mux, http.MethodGet, "/stats", "")
			health := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then both respond", func() {
				So(stats.Code, ShouldEqual, http.StatusOK)
				So(stats.Body.String(), ShouldContainSubstring, `"activeSessions":2`)
				So(health.Code, ShouldEqual, http.StatusOK)
				So(health.Body.String(), ShouldContainSubstring, "builderscore_")
			})
		})
	})
}

func TestEndToEnd(t *testing.T) {
	Convey("Given the API over a real service and fixture data", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc := service.New(
			service.WithSource(fixture.Default()),
			service.WithWorkerCount(2),
			service.WithPageSize(3),
			service.WithDisplayStep(10),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)

		created := do(mux, http.MethodPost, "/sessions", `{"sponsors":["base","celo"]}`)
		So(created.Code, ShouldEqual, http.StatusCreated)
		var handle service.Handle
		So(json.Unmarshal(created.Body.Bytes(), &handle), ShouldBeNil)

		Convey("When a round is loaded and the leaderboard read", func() {
			round := do(mux, http.MethodPost, "/sessions/"+handle.ID+"/rounds", "")
			board := do(mux, http.MethodGet, "/sessions/"+handle.ID+"/leaderboard", "")
			profile := do(mux, http.MethodGet, "/sessions/"+handle.ID+"/builders/talent_tp-grace", "")

			Convey("Then the merged aggregate is served", func() {
				So(round.Code, ShouldEqual, http.StatusOK)
				So(round.Body.String(), ShouldContainSubstring, `"total_unique_builders":4`)
				So(board.Code, ShouldEqual, http.StatusOK)
				So(board.Body.String(), ShouldContainSubstring, `"total":4`)
				So(profile.Code, ShouldEqual, http.StatusOK)
				So(profile.Body.String(), ShouldContainSubstring, `"sponsors_seen":["base","celo"]`)
			})
		})

		Convey("When the session is deleted", func() {
			So(do(mux, http.MethodDelete, "/sessions/"+handle.ID, "").Code, ShouldEqual, http.StatusNoContent)
			rec := do(mux, http.MethodPost, "/sessions/"+handle.ID+"/rounds", "")

			Convey("Then further rounds are not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
