// Package aggregation merges per-sponsor leaderboard pages into one
// deduplicated, earnings-ordered builder list.
//
// A State is an immutable snapshot: Aggregate never mutates the state it is
// given and returns a new one, so a session can drop a stale round's result
// without having touched its current state.
package aggregation

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/dedupe"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

// Pages holds one round's fetched pages keyed by sponsor, in the order the
// sponsors should be merged. A sponsor whose fetch failed is simply absent.
type Pages = orderedmap.OrderedMap[string, model.Page]

// NewPages returns an empty ordered page set.
func NewPages() *Pages {
	return orderedmap.New[string, model.Page]()
}

// PriceLookup resolves a sponsor's token price. ok is false when the price is unknown.
type PriceLookup func(sponsor string) (price model.TokenPrice, ok bool)

// Report describes what a single Aggregate call did.
type Report struct {
	// Advanced lists sponsors whose page was merged and whose cursor moved.
	Advanced []string
	// Unpriced lists merged sponsors that had no token price this round.
	Unpriced []string
	// NewBuilders counts identity keys first seen in this round.
	NewBuilders int
	// Records counts builder records processed.
	Records int
}

// State is an immutable aggregation snapshot.
type State struct {
	builders  []model.AggregatedBuilder // sorted by earnings desc, then first-seen order
	rank      map[string]int            // identity key -> index in builders
	cursors   map[string]int            // sponsor -> last page merged
	lastPages map[string]int            // sponsor -> last page reported upstream
	nextSeq   int
}

// Empty returns the state of a run that has not merged anything yet.
func Empty() State {
	return State{
		rank:      map[string]int{},
		cursors:   map[string]int{},
		lastPages: map[string]int{},
	}
}

// Option applies a configuration option to an Aggregate call.
type Option func(*aggregator)

// WithResolver sets the identity resolver used to merge records.
func WithResolver(r *dedupe.Resolver) Option {
	return func(a *aggregator) {
		if r != nil {
			a.resolver = r
		}
	}
}

type aggregator struct {
	resolver *dedupe.Resolver
}

// Aggregate merges pages into prev and returns the resulting state.
//
// For every sponsor in pages, in order, and every record in that sponsor's
// page, in order, the record's identity key selects (or creates) an aggregated
// builder; the sponsor is added to the builder's sponsor set; a breakdown
// entry is appended when the sponsor's price is known; the best score and best
// reported position are updated. The full set is then re-sorted by total USD
// earnings descending and ranks are re-derived.
func Aggregate(prev State, pages *Pages, prices PriceLookup, opts ...Option) (State, Report) {
	a := aggregator{resolver: dedupe.NewResolver()}
	for _, opt := range opts {
		opt(&a)
	}

	next := prev.clone()
	var report Report
	if pages == nil || pages.Len() == 0 {
		return next, report
	}

	idx := dedupe.NewIndex(len(next.builders))
	for i := range next.builders {
		idx.SeenAndRecord(next.builders[i].IdentityKey, i)
	}

	for pair := pages.Oldest(); pair != nil; pair = pair.Next() {
		sponsor, page := pair.Key, pair.Value

		var price model.TokenPrice
		priced := false
		if prices != nil {
			price, priced = prices(sponsor)
		}
		if !priced {
			report.Unpriced = append(report.Unpriced, sponsor)
		}

		for i := range page.Builders {
			rec := &page.Builders[i]
			key := a.resolver.Key(sponsor, rec)
			pos, seen := idx.SeenAndRecord(key, len(next.builders))
			if !seen {
				next.builders = append(next.builders, seed(key, rec, next.nextSeq))
				next.nextSeq++
				report.NewBuilders++
			}
			merge(&next.builders[pos], sponsor, rec, price, priced)
			report.Records++
		}

		next.advance(sponsor, page.Pagination)
		report.Advanced = append(report.Advanced, sponsor)
	}

	next.resort()
	return next, report
}

func seed(key string, rec *model.BuilderRecord, seq int) model.AggregatedBuilder {
	best := *rec
	best.Tags = append([]string(nil), rec.Tags...)
	return model.AggregatedBuilder{
		IdentityKey: key,
		Best:        best,
		Seq:         seq,
	}
}

func merge(b *model.AggregatedBuilder, sponsor string, rec *model.BuilderRecord, price model.TokenPrice, priced bool) {
	if !b.HasSponsor(sponsor) {
		b.SponsorsSeen = append(b.SponsorsSeen, sponsor)
	}

	if priced {
		usd := rec.RewardAmount * price.USDPrice
		b.EarningsBreakdown = append(b.EarningsBreakdown, model.EarningsEntry{
			Sponsor:     sponsor,
			TokenAmount: rec.RewardAmount,
			USDAmount:   usd,
			TokenSymbol: price.Symbol,
		})
		b.TotalEarningsUSD += usd
	} else if !b.EarningsUnknownFor(sponsor) {
		b.UnpricedSponsors = append(b.UnpricedSponsors, sponsor)
	}

	if rec.BuilderScorePoints > b.Best.BuilderScorePoints {
		b.Best.BuilderScorePoints = rec.BuilderScorePoints
	}
	// Positions <= 0 mean the upstream did not report one.
	if rec.LeaderboardPosition > 0 &&
		(b.Best.LeaderboardPosition <= 0 || rec.LeaderboardPosition < b.Best.LeaderboardPosition) {
		b.Best.LeaderboardPosition = rec.LeaderboardPosition
	}

	fillProfile(&b.Best, rec)
}

// fillProfile completes blank profile metadata from a later sighting.
func fillProfile(best, rec *model.BuilderRecord) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&best.TalentProtocolID, rec.TalentProtocolID)
	fill(&best.DisplayName, rec.DisplayName)
	fill(&best.Name, rec.Name)
	fill(&best.Bio, rec.Bio)
	fill(&best.Location, rec.Location)
	fill(&best.ImageURL, rec.ImageURL)
	fill(&best.WalletAddress, rec.WalletAddress)
	if len(best.Tags) == 0 && len(rec.Tags) > 0 {
		best.Tags = append([]string(nil), rec.Tags...)
	}
}

func (s *State) advance(sponsor string, p model.Pagination) {
	cur := p.CurrentPage
	if cur <= 0 {
		cur = s.cursors[sponsor] + 1
	}
	if cur > s.cursors[sponsor] {
		s.cursors[sponsor] = cur
	}
	if p.LastPage > 0 {
		s.lastPages[sponsor] = p.LastPage
	} else if _, ok := s.lastPages[sponsor]; !ok {
		// No pagination metadata: treat the page as the last one.
		s.lastPages[sponsor] = cur
	}
}

func (s *State) resort() {
	sort.SliceStable(s.builders, func(i, j int) bool {
		bi, bj := &s.builders[i], &s.builders[j]
		if bi.TotalEarningsUSD != bj.TotalEarningsUSD {
			return bi.TotalEarningsUSD > bj.TotalEarningsUSD
		}
		return bi.Seq < bj.Seq
	})
	s.rank = make(map[string]int, len(s.builders))
	for i := range s.builders {
		s.builders[i].Rank = i + 1
		s.rank[s.builders[i].IdentityKey] = i
	}
}

func (s State) clone() State {
	next := State{
		builders:  make([]model.AggregatedBuilder, len(s.builders)),
		rank:      make(map[string]int, len(s.rank)),
		cursors:   make(map[string]int, len(s.cursors)),
		lastPages: make(map[string]int, len(s.lastPages)),
		nextSeq:   s.nextSeq,
	}
	for i := range s.builders {
		next.builders[i] = s.builders[i].Clone()
	}
	for k, v := range s.rank {
		next.rank[k] = v
	}
	for k, v := range s.cursors {
		next.cursors[k] = v
	}
	for k, v := range s.lastPages {
		next.lastPages[k] = v
	}
	return next
}

// Len returns the number of unique builders.
func (s State) Len() int { return len(s.builders) }

// Builders returns the sorted builder list. The slice must be treated as read-only.
func (s State) Builders() []model.AggregatedBuilder { return s.builders }

// Lookup returns the builder with the given identity key.
func (s State) Lookup(key string) (model.AggregatedBuilder, bool) {
	i, ok := s.rank[key]
	if !ok {
		return model.AggregatedBuilder{}, false
	}
	return s.builders[i], true
}

// Cursor returns the last page merged for sponsor, 0 if none.
func (s State) Cursor(sponsor string) int { return s.cursors[sponsor] }

// NextPage returns the page to request next for sponsor.
func (s State) NextPage(sponsor string) int { return s.cursors[sponsor] + 1 }

// Exhausted reports whether sponsor has no pages left to fetch.
func (s State) Exhausted(sponsor string) bool {
	last, ok := s.lastPages[sponsor]
	if !ok {
		return false
	}
	return s.cursors[sponsor] >= last
}

// Pending returns the sponsors, in the given order, that still have pages to fetch.
func (s State) Pending(sponsors []string) []string {
	var out []string
	for _, sp := range sponsors {
		if !s.Exhausted(sp) {
			out = append(out, sp)
		}
	}
	return out
}
