package service

import (
	"strings"
	"sync"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/aggregation"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/categorize"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/scoring"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/types"
)

// Handle identifies a live aggregation session.
type Handle struct {
	ID string `json:"id"`
}

// StartOptions selects what a new session aggregates.
type StartOptions struct {
	Sponsors   []string
	TimeWindow string
}

// FilterOptions replaces a session's filter set.
type FilterOptions = StartOptions

// RoundOptions tunes a single LoadNextRound call.
type RoundOptions struct {
	Query string
}

// RoundResult is what one round leaves on screen.
type RoundResult struct {
	DisplayedBuilders []types.Entry `json:"displayed_builders"`
	// HasMore reports whether another round or a wider window could show more.
	// With an active query it only considers the filtered view.
	HasMore bool `json:"has_more"`
	// TotalUniqueBuilders is the filtered count when a query is active.
	TotalUniqueBuilders int      `json:"total_unique_builders"`
	FailedSponsors      []string `json:"failed_sponsors,omitempty"`
	UnpricedSponsors    []string `json:"unpriced_sponsors,omitempty"`
	// Stale is set when the filter set changed while the round was in flight;
	// its fetches were discarded.
	Stale bool `json:"stale,omitempty"`
	Round int  `json:"round"`
}

// ViewOptions selects a read-only window.
type ViewOptions struct {
	Query  string
	Offset int
	Limit  int // <= 0 means the session's current display size
}

// View is a read-only window over a session's aggregate.
type View struct {
	Builders []types.Entry `json:"builders"`
	Total    int           `json:"total"`
	Offset   int           `json:"offset"`
	Limit    int           `json:"limit"`
	HasMore  bool          `json:"has_more"`
}

// session is the state of one aggregation run. mu guards the fields below it;
// roundMu serialises rounds so they never overlap.
type session struct {
	id        string
	createdAt time.Time

	roundMu sync.Mutex

	mu         sync.RWMutex
	sponsors   []string
	window     string
	generation uint64
	state      aggregation.State
	prices     map[string]model.TokenPrice
	display    int
	rounds     int
	assignment categorize.Assignment
}

func newSession(id string, opts StartOptions) *session {
	s := &session{id: id, createdAt: time.Now()}
	s.reset(opts)
	return s
}

// reset installs a new filter set and drops everything derived from the old
// one. The caller holds mu (or owns s exclusively).
func (s *session) reset(opts StartOptions) {
	s.sponsors = opts.Sponsors
	s.window = strings.TrimSpace(opts.TimeWindow)
	s.generation++
	s.state = aggregation.Empty()
	s.prices = map[string]model.TokenPrice{}
	s.display = 0
	s.rounds = 0
	s.assignment = categorize.Assignment{}
}

// snapshot is a consistent read of a session taken under its read lock.
type snapshot struct {
	sponsors   []string
	window     string
	generation uint64
	state      aggregation.State
	prices     map[string]model.TokenPrice
	display    int
	rounds     int
	assignment categorize.Assignment
}

func (s *session) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *session) snapshotLocked() snapshot {
	prices := make(map[string]model.TokenPrice, len(s.prices))
	for k, v := range s.prices {
		prices[k] = v
	}
	return snapshot{
		sponsors:   append([]string(nil), s.sponsors...),
		window:     s.window,
		generation: s.generation,
		state:      s.state,
		prices:     prices,
		display:    s.display,
		rounds:     s.rounds,
		assignment: s.assignment,
	}
}

// priceContext selects aggregated pricing for multi-sponsor sessions and the
// single sponsor's token price otherwise.
func (sn *snapshot) priceContext() scoring.PriceContext {
	if len(sn.sponsors) != 1 {
		return scoring.PriceContext{Aggregated: true}
	}
	return scoring.PriceContext{TokenPrice: sn.prices[sn.sponsors[0]].USDPrice}
}

func (sn *snapshot) unpriced() []string {
	var out []string
	for _, sp := range sn.sponsors {
		if _, ok := sn.prices[sp]; !ok {
			out = append(out, sp)
		}
	}
	return out
}

// normalizeSponsors trims, drops empties and removes duplicates, keeping the
// first occurrence.
func normalizeSponsors(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, sp := range in {
		sp = strings.TrimSpace(sp)
		if sp == "" {
			continue
		}
		if _, ok := seen[sp]; ok {
			continue
		}
		seen[sp] = struct{}{}
		out = append(out, sp)
	}
	return out
}
