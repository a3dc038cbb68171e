package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/aggregation"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/categorize"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
	"github.com/folajindayo/builder-score-app-sub000/pkg/logger"
	"github.com/folajindayo/builder-score-app-sub000/pkg/metrics"
)

// LoadNextRound fetches the next page of every sponsor that has pages left,
// plus the price of every sponsor whose price is not cached, waits for all of
// them to settle, and merges the successful pages. A failed fetch only
// excludes that sponsor from the round; its cursor stays put so the next round
// asks for the same page again.
func (s *Service) LoadNextRound(ctx context.Context, id string, opts RoundOptions) (RoundResult, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return RoundResult{}, err
	}
	_, tasks, err := s.components()
	if err != nil {
		return RoundResult{}, err
	}

	sess.roundMu.Lock()
	defer sess.roundMu.Unlock()

	start := time.Now()
	sn := sess.snapshot()
	pending := sn.state.Pending(sn.sponsors)

	var batch []model.FetchTask
	for _, sp := range pending {
		batch = append(batch, model.FetchTask{
			Kind:    model.FetchPage,
			Sponsor: sp,
			Page: model.PageRequest{
				Sponsor:    sp,
				Page:       sn.state.NextPage(sp),
				PageSize:   s.pageSize,
				TimeWindow: sn.window,
			},
		})
	}
	for _, sp := range pending {
		if _, ok := sn.prices[sp]; !ok {
			batch = append(batch, model.FetchTask{Kind: model.FetchPrice, Sponsor: sp})
		}
	}

	if len(batch) == 0 {
		// Nothing left to fetch; the round only widens the display window.
		sess.mu.Lock()
		if sess.generation == sn.generation && sess.display < sess.state.Len() {
			sess.display += s.displayStep
			sess.rounds++
		}
		current := sess.snapshotLocked()
		sess.mu.Unlock()

		metrics.RecordRound(metrics.OutcomeEmpty, float64(time.Since(start).Milliseconds()))
		return s.result(&current, opts.Query, nil), nil
	}

	results, failed, err := s.fanOut(ctx, tasks, id, sn.generation, batch)
	if err != nil {
		return RoundResult{}, err
	}

	pages := aggregation.NewPages()
	fetched := map[string]model.Page{}
	for _, res := range results {
		switch res.Kind {
		case model.FetchPage:
			if res.Err != nil {
				failed[res.Sponsor] = true
				continue
			}
			fetched[res.Sponsor] = res.Page
		case model.FetchPrice:
			if res.Err != nil {
				if errors.Is(res.Err, source.ErrPriceUnavailable) {
					metrics.RecordPriceUnavailable(res.Sponsor)
				}
				continue
			}
			sn.prices[res.Sponsor] = res.Price
		}
	}
	// Merge in sponsor selection order, not completion order.
	var failedSponsors []string
	for _, sp := range pending {
		if page, ok := fetched[sp]; ok {
			pages.Set(sp, page)
		} else if failed[sp] {
			failedSponsors = append(failedSponsors, sp)
			metrics.RecordFailedSponsor(sp)
		}
	}

	next, report := aggregation.Aggregate(sn.state, pages, func(sponsor string) (model.TokenPrice, bool) {
		p, ok := sn.prices[sponsor]
		return p, ok
	}, aggregation.WithResolver(s.resolver))

	sess.mu.Lock()
	if sess.generation != sn.generation {
		current := sess.snapshotLocked()
		sess.mu.Unlock()

		metrics.RecordRound(metrics.OutcomeStale, float64(time.Since(start).Milliseconds()))
		s.logger.Debug(ctx, "stale round discarded",
			logger.String("session_id", id),
			logger.Uint64("round_generation", sn.generation),
			logger.Uint64("current_generation", current.generation),
		)
		res := s.result(&current, opts.Query, nil)
		res.Stale = true
		return res, nil
	}

	sn.state = next
	sn.display += s.displayStep
	sn.rounds++
	sn.assignment = s.categorizer(&sn).Categorize(next.Builders())

	sess.state = sn.state
	sess.prices = sn.prices
	sess.display = sn.display
	sess.rounds = sn.rounds
	sess.assignment = sn.assignment
	sess.mu.Unlock()

	metrics.RecordRound(metrics.OutcomeMerged, float64(time.Since(start).Milliseconds()))
	metrics.UpdateAggregatedBuilders(next.Len())
	s.logger.Debug(ctx, "round merged",
		logger.String("session_id", id),
		logger.Int("round", sn.rounds),
		logger.Strings("advanced", report.Advanced),
		logger.Strings("failed", failedSponsors),
		logger.Int("records", report.Records),
		logger.Int("new_builders", report.NewBuilders),
		logger.Int("unique_builders", next.Len()),
	)

	return s.result(&sn, opts.Query, failedSponsors), nil
}

// fanOut enqueues every task and waits until each enqueued task has replied.
// Sponsors whose task could not be enqueued are reported as failed. If no task
// could be enqueued at all, ErrBackpressure is returned.
func (s *Service) fanOut(ctx context.Context, q taskQueue, id string, gen uint64, batch []model.FetchTask) ([]model.FetchResult, map[string]bool, error) {
	reply := make(chan model.FetchResult, len(batch))
	failed := map[string]bool{}

	sent := 0
	for i := range batch {
		t := batch[i]
		t.TaskID = fmt.Sprintf("%s/%d/%s/%s", id, gen, t.Kind, t.Sponsor)
		t.SessionID = id
		t.Generation = gen
		t.Reply = reply

		if err := q.Enqueue(ctx, t); err != nil {
			s.logger.Warn(ctx, "fetch task rejected",
				logger.String("task_id", t.TaskID),
				logger.Error(err),
			)
			if t.Kind == model.FetchPage {
				failed[t.Sponsor] = true
			}
			continue
		}
		sent++
	}
	if sent == 0 {
		return nil, nil, fmt.Errorf("%s: %w", id, ErrBackpressure)
	}

	results := make([]model.FetchResult, 0, sent)
	for len(results) < sent {
		select {
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("round %s: %w", id, ctx.Err())
		case res := <-reply:
			results = append(results, res)
		}
	}
	return results, failed, nil
}

// taskQueue is the enqueue side of the fetch queue.
type taskQueue interface {
	Enqueue(ctx context.Context, t model.FetchTask) error
}

func (s *Service) categorizer(sn *snapshot) *categorize.Categorizer {
	return categorize.New(
		categorize.WithMode(s.categoryMode),
		categorize.WithCalculator(s.calc),
		categorize.WithPriceContext(sn.priceContext()),
	)
}

// result projects the session's display window.
func (s *Service) result(sn *snapshot, query string, failed []string) RoundResult {
	view := sn.state.Window(aggregation.Query{Text: query, Limit: sn.display})
	hasMore := view.HasMore
	if query == "" && len(sn.state.Pending(sn.sponsors)) > 0 {
		hasMore = true
	}
	if sn.display == 0 {
		view.Builders = view.Builders[:0]
		hasMore = len(sn.state.Pending(sn.sponsors)) > 0 || view.Total > 0
	}
	return RoundResult{
		DisplayedBuilders:   s.entries(sn, view.Builders),
		HasMore:             hasMore,
		TotalUniqueBuilders: view.Total,
		FailedSponsors:      failed,
		UnpricedSponsors:    sn.unpriced(),
		Round:               sn.rounds,
	}
}
