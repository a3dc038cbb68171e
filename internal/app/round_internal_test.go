package service

import (
	"context"
	"errors"
	"testing"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/mq/queue"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
	"github.com/folajindayo/builder-score-app-sub000/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type rejectingQueue struct {
	accept int
}

func (q *rejectingQueue) Enqueue(_ context.Context, t model.FetchTask) error {
	if q.accept == 0 {
		return queue.ErrFull
	}
	q.accept--
	t.Reply <- model.FetchResult{TaskID: t.TaskID, Kind: t.Kind, Sponsor: t.Sponsor}
	return nil
}

func TestFanOut(t *testing.T) {
	Convey("Given a service and a saturated queue", t, func() {
		s := New(WithLogger(logger.Nop()))
		batch := []model.FetchTask{
			{Kind: model.FetchPage, Sponsor: "a"},
			{Kind: model.FetchPage, Sponsor: "b"},
			{Kind: model.FetchPrice, Sponsor: "a"},
		}

		Convey("When no task can be enqueued", func() {
			_, _, err := s.fanOut(context.Background(), &rejectingQueue{}, "s1", 1, batch)

			Convey("Then the round reports backpressure", func() {
				So(errors.Is(err, ErrBackpressure), ShouldBeTrue)
			})
		})

		Convey("When only some tasks are accepted", func() {
			results, failed, err := s.fanOut(context.Background(), &rejectingQueue{accept: 1}, "s1", 1, batch)

			Convey("Then rejected page fetches count as failed sponsors", func() {
				So(err, ShouldBeNil)
				So(len(results), ShouldEqual, 1)
				So(results[0].TaskID, ShouldEqual, "s1/1/page/a")
				So(failed, ShouldResemble, map[string]bool{"b": true})
			})
		})
	})
}

func TestNormalizeSponsors(t *testing.T) {
	Convey("Given a raw sponsor list", t, func() {
		got := normalizeSponsors([]string{" base", "", "celo", "base ", "  "})

		Convey("Then blanks and duplicates are dropped in order", func() {
			So(got, ShouldResemble, []string{"base", "celo"})
		})
	})
}
