package fixture_test

import (
	"context"
	"errors"
	"testing"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source"
	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source/fixture"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProvider(t *testing.T) {
	Convey("Given the default fixture provider", t, func() {
		p := fixture.Default()
		ctx := context.Background()

		Convey("When paging through a sponsor", func() {
			first, err1 := p.FetchPage(ctx, model.PageRequest{Sponsor: "base", Page: 1, PageSize: 3})
			last, err2 := p.FetchPage(ctx, model.PageRequest{Sponsor: "base", Page: 3, PageSize: 3})
			beyond, err3 := p.FetchPage(ctx, model.PageRequest{Sponsor: "base", Page: 9, PageSize: 3})

			Convey("Then pages and pagination are consistent", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(len(first.Builders), ShouldEqual, 3)
				So(first.Pagination, ShouldResemble, model.Pagination{CurrentPage: 1, LastPage: 3, Total: 8})
				So(len(last.Builders), ShouldEqual, 2)
				So(beyond.Builders, ShouldBeEmpty)
				So(p.PageCalls("base"), ShouldEqual, 3)
			})
		})

		Convey("When a time window is requested", func() {
			page, _ := p.FetchPage(ctx, model.PageRequest{Sponsor: "celo", Page: 1, TimeWindow: "30d"})

			Convey("Then rewards are scaled", func() {
				So(page.Builders[0].RewardAmount, ShouldEqual, 450)
			})
		})

		Convey("When failures are injected", func() {
			p.FailPages("celo", 1)
			p.FailPrices("base", -1)

			_, pageErr := p.FetchPage(ctx, model.PageRequest{Sponsor: "celo", Page: 1})
			_, retryErr := p.FetchPage(ctx, model.PageRequest{Sponsor: "celo", Page: 1})
			_, priceErr := p.FetchPrice(ctx, "base")
			_, priceErr2 := p.FetchPrice(ctx, "base")

			Convey("Then they fail the requested number of times", func() {
				So(errors.Is(pageErr, source.ErrUpstream), ShouldBeTrue)
				So(retryErr, ShouldBeNil)
				So(priceErr, ShouldNotBeNil)
				So(priceErr2, ShouldNotBeNil)
				So(p.PriceCalls("base"), ShouldEqual, 2)
			})
		})

		Convey("When a sponsor has no listed price", func() {
			_, err := p.FetchPrice(ctx, "talent")

			Convey("Then the price is unavailable", func() {
				So(errors.Is(err, source.ErrPriceUnavailable), ShouldBeTrue)
			})
		})

		Convey("When an unknown sponsor is requested", func() {
			_, err := p.FetchPage(ctx, model.PageRequest{Sponsor: "nope", Page: 1})

			Convey("Then a non-retryable error is returned", func() {
				So(err, ShouldNotBeNil)
				So(source.IsRetryable(err), ShouldBeFalse)
			})
		})

		Convey("When the caller mutates a returned page", func() {
			page, _ := p.FetchPage(ctx, model.PageRequest{Sponsor: "base", Page: 1})
			page.Builders[0].Tags[0] = "changed"
			again, _ := p.FetchPage(ctx, model.PageRequest{Sponsor: "base", Page: 1})

			Convey("Then the fixture data is unaffected", func() {
				So(again.Builders[0].Tags[0], ShouldEqual, "rust")
			})
		})
	})
}
