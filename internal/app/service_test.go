package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source/fixture"
	service "github.com/folajindayo/builder-score-app-sub000/internal/app"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/categorize"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/scoring"
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

func newService(p *fixture.Provider, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithSource(p),
		service.WithWorkerCount(4),
		service.WithQueueSize(64),
		service.WithPageSize(3),
		service.WithDisplayStep(5),
	}
	return service.New(append(base, opts...)...)
}

func keys(entries []service.RoundResult) []string {
	var out []string
	for _, r := range entries {
		for _, e := range r.DisplayedBuilders {
			out = append(out, e.IdentityKey)
		}
	}
	return out
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service without a source", t, func() {
		svc := service.New()

		Convey("Then it refuses to start", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := newService(fixture.Default())

		Convey("Then session operations fail", func() {
			_, err := svc.StartSession(context.Background(), service.StartOptions{Sponsors: []string{"base"}})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service", t, func() {
		svc := newService(fixture.Default())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When starting a session without sponsors", func() {
			_, err := svc.StartSession(ctx, service.StartOptions{Sponsors: []string{" ", ""}})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrNoSponsors), ShouldBeTrue)
			})
		})

		Convey("When using a session that was never started", func() {
			_, roundErr := svc.LoadNextRound(ctx, "missing", service.RoundOptions{})
			_, viewErr := svc.View(ctx, "missing", service.ViewOptions{})
			endErr := svc.EndSession(ctx, "missing")

			Convey("Then a hard error is returned", func() {
				So(errors.Is(roundErr, service.ErrSessionNotFound), ShouldBeTrue)
				So(errors.Is(viewErr, service.ErrSessionNotFound), ShouldBeTrue)
				So(errors.Is(endErr, service.ErrSessionNotFound), ShouldBeTrue)
			})
		})

		Convey("When a session is ended", func() {
			h, err := svc.StartSession(ctx, service.StartOptions{Sponsors: []string{"base"}})
			So(err, ShouldBeNil)
			So(svc.GetStats()["activeSessions"], ShouldEqual, 1)
			So(svc.EndSession(ctx, h.ID), ShouldBeNil)

			Convey("Then it can no longer be used", func() {
				_, err := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				So(svc.GetStats()["activeSessions"], ShouldEqual, 0)
			})
		})
	})
}

func TestService_LoadNextRound(t *testing.T) {
	Convey("Given a session over two sponsors with overlapping builders", t, func() {
		p := fixture.Default()
		svc := newService(p)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		h, err := svc.StartSession(ctx, service.StartOptions{Sponsors: []string{"base", "celo", "base"}})
		So(err, ShouldBeNil)

		Convey("When the first round is loaded", func() {
			res, err := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
			So(err, ShouldBeNil)

			Convey("Then builders are merged across sponsors and ordered by USD earnings", func() {
				So(res.Round, ShouldEqual, 1)
				So(res.TotalUniqueBuilders, ShouldEqual, 4)
				So(res.HasMore, ShouldBeTrue)
				So(res.FailedSponsors, ShouldBeEmpty)
				So(keys([]service.RoundResult{res}), ShouldResemble, []string{
					"talent_tp-grace", "talent_tp-ada", "name_linus", "name_radia",
				})

				grace := res.DisplayedBuilders[0]
				So(grace.SponsorsSeen, ShouldResemble, []string{"base", "celo"})
				So(grace.TotalEarningsUSD, ShouldAlmostEqual, 1660, 1e-9)
				So(grace.Rank, ShouldEqual, 1)
				So(grace.BestPosition, ShouldEqual, 1)
			})

			Convey("And categories are assigned over the aggregate", func() {
				cat, ok, err := svc.CategoryFor(ctx, h.ID, "talent_tp-grace")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(cat, ShouldEqual, categorize.MostEarnings)

				ada, err := svc.Builder(ctx, h.ID, "talent_tp-ada")
				So(err, ShouldBeNil)
				So(ada.Category, ShouldEqual, string(categorize.SoughtAfter))
				So(ada.Categories, ShouldResemble, []string{"trending", "highest_score", "featured", "sought_after"})
				So(ada.Mcap, ShouldBeGreaterThan, 0)

				_, ok, err = svc.CategoryFor(ctx, h.ID, "name_radia")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("And unknown builders are reported", func() {
				_, err := svc.Builder(ctx, h.ID, "talent_nobody")
				So(errors.Is(err, service.ErrBuilderNotFound), ShouldBeTrue)
			})

			Convey("And prices are fetched once per session", func() {
				_, err := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
				So(err, ShouldBeNil)
				So(p.PriceCalls("base"), ShouldEqual, 1)
				So(p.PageCalls("base"), ShouldEqual, 2)
			})
		})

		Convey("When rounds are loaded until every sponsor is exhausted", func() {
			var last service.RoundResult
			for i := 0; i < 6; i++ {
				last, err = svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
				So(err, ShouldBeNil)
			}

			Convey("Then nothing more is fetched and everything is displayed", func() {
				So(p.PageCalls("base"), ShouldEqual, 3)
				So(p.PageCalls("celo"), ShouldEqual, 2)
				So(last.HasMore, ShouldBeFalse)
				So(len(last.DisplayedBuilders), ShouldEqual, last.TotalUniqueBuilders)
			})
		})
	})
}

func TestService_FailedSponsor(t *testing.T) {
	Convey("Given a sponsor whose page fetch fails once", t, func() {
		p := fixture.Default()
		p.FailPages("celo", 1)
		svc := newService(p)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		h, err := svc.StartSession(ctx, service.StartOptions{Sponsors: []string{"base", "celo"}})
		So(err, ShouldBeNil)

		Convey("When the round settles", func() {
			res, err := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
			So(err, ShouldBeNil)

			Convey("Then only the healthy sponsor is merged", func() {
				So(res.FailedSponsors, ShouldResemble, []string{"celo"})
				So(res.TotalUniqueBuilders, ShouldEqual, 3)
				for _, e := range res.DisplayedBuilders {
					So(e.SponsorsSeen, ShouldResemble, []string{"base"})
				}
			})

			Convey("And the next round asks the failed sponsor for the same page", func() {
				again, err := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
				So(err, ShouldBeNil)
				So(again.FailedSponsors, ShouldBeEmpty)
				So(p.PageCalls("celo"), ShouldEqual, 2)

				radia, err := svc.Builder(ctx, h.ID, "name_radia")
				So(err, ShouldBeNil)
				So(radia.SponsorsSeen, ShouldResemble, []string{"celo"})
			})
		})
	})
}

func TestService_QueryAndView(t *testing.T) {
	Convey("Given a session with one merged round", t, func() {
		svc := newService(fixture.Default())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		h, err := svc.StartSession(ctx, service.StartOptions{Sponsors: []string{"base", "celo"}})
		So(err, ShouldBeNil)
		_, err = svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
		So(err, ShouldBeNil)

		Convey("When a query matches nothing", func() {
			res, err := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{Query: "zzz-no-match"})
			So(err, ShouldBeNil)

			Convey("Then the filtered view is empty while the aggregate is not", func() {
				So(res.DisplayedBuilders, ShouldBeEmpty)
				So(res.HasMore, ShouldBeFalse)
				So(res.TotalUniqueBuilders, ShouldEqual, 0)

				all, err := svc.View(ctx, h.ID, service.ViewOptions{})
				So(err, ShouldBeNil)
				So(all.Total, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When a query matches a bio", func() {
			v, err := svc.View(ctx, h.ID, service.ViewOptions{Query: "COMPILER"})
			So(err, ShouldBeNil)

			Convey("Then only that builder is returned", func() {
				So(v.Total, ShouldEqual, 1)
				So(v.Builders[0].IdentityKey, ShouldEqual, "talent_tp-ada")
			})
		})

		Convey("When paging with offset and limit", func() {
			v, err := svc.View(ctx, h.ID, service.ViewOptions{Offset: 1, Limit: 2})
			So(err, ShouldBeNil)

			Convey("Then the window is a slice of the sorted order", func() {
				So(len(v.Builders), ShouldEqual, 2)
				So(v.Builders[0].IdentityKey, ShouldEqual, "talent_tp-ada")
				So(v.HasMore, ShouldBeTrue)
			})
		})

		Convey("When exporting", func() {
			rows, err := svc.Export(ctx, h.ID, "")
			So(err, ShouldBeNil)

			Convey("Then the full set is returned", func() {
				So(len(rows), ShouldEqual, 4)
			})
		})
	})
}

func TestService_PriceUnavailable(t *testing.T) {
	Convey("Given a sponsor without a listed token price", t, func() {
		svc := newService(fixture.Default())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		h, err := svc.StartSession(ctx, service.StartOptions{Sponsors: []string{"base", "talent"}})
		So(err, ShouldBeNil)

		Convey("When a round is merged", func() {
			res, err := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
			So(err, ShouldBeNil)

			Convey("Then the builder is present but its earnings from that sponsor are unknown", func() {
				So(res.UnpricedSponsors, ShouldResemble, []string{"talent"})
				ada, err := svc.Builder(ctx, h.ID, "talent_tp-ada")
				So(err, ShouldBeNil)
				So(ada.SponsorsSeen, ShouldResemble, []string{"base", "talent"})
				So(ada.UnpricedSponsors, ShouldResemble, []string{"talent"})
				So(len(ada.EarningsBreakdown), ShouldEqual, 1)

				unpriced, err := svc.UnpricedSponsors(ctx, h.ID)
				So(err, ShouldBeNil)
				So(unpriced, ShouldResemble, []string{"talent"})
			})
		})
	})
}

func TestService_StaleRound(t *testing.T) {
	Convey("Given a round in flight against a slow upstream", t, func() {
		p := fixture.Default()
		p.SetDelay(300 * time.Millisecond)
		svc := newService(p)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		h, err := svc.StartSession(ctx, service.StartOptions{Sponsors: []string{"base", "celo"}})
		So(err, ShouldBeNil)

		done := make(chan service.RoundResult, 1)
		go func() {
			res, _ := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
			done <- res
		}()

		Convey("When the filters change before it settles", func() {
			time.Sleep(50 * time.Millisecond)
			So(svc.SetFilters(ctx, h.ID, service.FilterOptions{Sponsors: []string{"talent"}}), ShouldBeNil)
			res := <-done

			Convey("Then its results are discarded", func() {
				So(res.Stale, ShouldBeTrue)
				So(res.DisplayedBuilders, ShouldBeEmpty)

				v, err := svc.View(ctx, h.ID, service.ViewOptions{Limit: 50})
				So(err, ShouldBeNil)
				So(v.Total, ShouldEqual, 0)
			})

			Convey("And the next round uses the new filter set", func() {
				res, err := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
				So(err, ShouldBeNil)
				So(res.Stale, ShouldBeFalse)
				So(res.TotalUniqueBuilders, ShouldEqual, 3)
			})
		})

		Convey("When clearing the filters", func() {
			err := svc.SetFilters(ctx, h.ID, service.FilterOptions{})
			<-done

			Convey("Then an empty sponsor set is rejected", func() {
				So(errors.Is(err, service.ErrNoSponsors), ShouldBeTrue)
			})
		})
	})
}

func TestService_Mcap(t *testing.T) {
	Convey("Given the default calculator", t, func() {
		svc := service.New()
		b := model.AggregatedBuilder{Best: model.BuilderRecord{BuilderScorePoints: 1000, LeaderboardPosition: 1}}

		Convey("Then Mcap matches the scoring package", func() {
			So(svc.Mcap(&b, scoring.PriceContext{Aggregated: true}), ShouldEqual, 3000)
		})
	})
}

func TestService_WindowGrowsAfterExhaustion(t *testing.T) {
	Convey("Given one sponsor whose builders all fit on the first page", t, func() {
		builders := make([]model.BuilderRecord, 0, 12)
		for i := 1; i <= 12; i++ {
			builders = append(builders, model.BuilderRecord{
				ID:                  int64(i),
				DisplayName:         fmt.Sprintf("builder-%02d", i),
				LeaderboardPosition: i,
				RewardAmount:        float64(100 - i),
			})
		}
		p := fixture.New(fixture.Sponsor{Slug: "solo", Symbol: "SOLO", USDPrice: 1, Builders: builders})
		svc := newService(p, service.WithPageSize(20), service.WithDisplayStep(5))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		h, err := svc.StartSession(ctx, service.StartOptions{Sponsors: []string{"solo"}})
		So(err, ShouldBeNil)

		Convey("When further rounds are loaded", func() {
			var shown []int
			var more []bool
			for i := 0; i < 4; i++ {
				res, err := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
				So(err, ShouldBeNil)
				So(res.TotalUniqueBuilders, ShouldEqual, 12)
				shown = append(shown, len(res.DisplayedBuilders))
				more = append(more, res.HasMore)
			}

			Convey("Then the window keeps widening without refetching", func() {
				So(shown, ShouldResemble, []int{5, 10, 12, 12})
				So(more, ShouldResemble, []bool{true, true, false, false})
				So(p.PageCalls("solo"), ShouldEqual, 1)
			})
		})
	})
}
