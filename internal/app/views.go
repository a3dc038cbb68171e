package service

import (
	"context"
	"fmt"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/aggregation"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/categorize"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/scoring"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/types"
)

// View returns a window over the session's aggregate without fetching.
func (s *Service) View(ctx context.Context, id string, opts ViewOptions) (View, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return View{}, err
	}
	sn := sess.snapshot()

	limit := opts.Limit
	if limit <= 0 {
		limit = sn.display
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	out := View{Offset: offset, Limit: limit, Builders: []types.Entry{}}
	if limit == 0 {
		out.Total = len(sn.state.Search(opts.Query))
		out.HasMore = out.Total > offset
		return out, nil
	}

	w := sn.state.Window(aggregation.Query{Text: opts.Query, Offset: offset, Limit: limit})
	out.Builders = s.entries(&sn, w.Builders)
	out.Total = w.Total
	out.HasMore = w.HasMore
	return out, nil
}

// Export returns every builder matching query, in earnings order.
func (s *Service) Export(ctx context.Context, id, query string) ([]types.Entry, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	sn := sess.snapshot()
	return s.entries(&sn, sn.state.Search(query)), nil
}

// Builder returns the profile of one aggregated builder.
func (s *Service) Builder(ctx context.Context, id, identityKey string) (types.Entry, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}
	sn := sess.snapshot()

	b, ok := sn.state.Lookup(identityKey)
	if !ok {
		return types.Entry{}, fmt.Errorf("%s: %w", identityKey, ErrBuilderNotFound)
	}
	return s.entry(&sn, &b), nil
}

// CategoryFor returns the category exposed for a builder. ok is false when the
// builder holds none.
func (s *Service) CategoryFor(ctx context.Context, id, identityKey string) (categorize.Category, bool, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return "", false, err
	}
	sn := sess.snapshot()
	cat, ok := sn.assignment.For(identityKey)
	return cat, ok, nil
}

// Mcap scores a builder under the given price context.
func (s *Service) Mcap(b *model.AggregatedBuilder, pc scoring.PriceContext) int64 {
	return s.calc.Mcap(b, pc)
}

// UnpricedSponsors lists the session's sponsors whose token price is not known.
func (s *Service) UnpricedSponsors(ctx context.Context, id string) ([]string, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	sn := sess.snapshot()
	return sn.unpriced(), nil
}

func (s *Service) entries(sn *snapshot, builders []model.AggregatedBuilder) []types.Entry {
	out := make([]types.Entry, 0, len(builders))
	for i := range builders {
		out = append(out, s.entry(sn, &builders[i]))
	}
	return out
}

func (s *Service) entry(sn *snapshot, b *model.AggregatedBuilder) types.Entry {
	var category string
	if c, ok := sn.assignment.For(b.IdentityKey); ok {
		category = string(c)
	}
	won := sn.assignment.All(b.IdentityKey)
	categories := make([]string, 0, len(won))
	for _, c := range won {
		categories = append(categories, string(c))
	}
	return types.NewEntry(b, s.calc.Mcap(b, sn.priceContext()), category, categories)
}
