// Package fixture serves deterministic sponsor leaderboards and prices from
// memory. It backs the demo mode and the service tests, and can inject
// failures per sponsor.
package fixture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

const defaultPageSize = 10

// Sponsor is one fixture leaderboard and its token price.
type Sponsor struct {
	Slug     string
	Symbol   string
	USDPrice float64 // <= 0 means the price is unavailable
	Builders []model.BuilderRecord
}

// Provider implements source.Source over in-memory sponsor data.
type Provider struct {
	mu         sync.RWMutex
	sponsors   map[string]Sponsor
	pageFails  map[string]int // sponsor -> remaining page failures, -1 forever
	priceFails map[string]int
	delay      time.Duration
	pageCalls  map[string]int
	priceCalls map[string]int
}

var _ source.Source = (*Provider)(nil)

// New creates a provider serving the given sponsors.
func New(sponsors ...Sponsor) *Provider {
	p := &Provider{
		sponsors:   make(map[string]Sponsor, len(sponsors)),
		pageFails:  map[string]int{},
		priceFails: map[string]int{},
		pageCalls:  map[string]int{},
		priceCalls: map[string]int{},
	}
	for _, s := range sponsors {
		p.sponsors[s.Slug] = s
	}
	return p
}

// Default returns a provider with a small multi-sponsor data set in which
// several builders appear under more than one sponsor.
func Default() *Provider {
	return New(DefaultSponsors()...)
}

// FailPages makes the next n page fetches for sponsor fail; n < 0 fails forever.
func (p *Provider) FailPages(sponsor string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageFails[sponsor] = n
}

// FailPrices makes the next n price fetches for sponsor fail; n < 0 fails forever.
func (p *Provider) FailPrices(sponsor string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.priceFails[sponsor] = n
}

// SetDelay adds latency to every call.
func (p *Provider) SetDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// PageCalls returns how many page fetches were made for sponsor.
func (p *Provider) PageCalls(sponsor string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pageCalls[sponsor]
}

// PriceCalls returns how many price fetches were made for sponsor.
func (p *Provider) PriceCalls(sponsor string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.priceCalls[sponsor]
}

// FetchPage returns one page of the sponsor's builders.
func (p *Provider) FetchPage(ctx context.Context, req model.PageRequest) (model.Page, error) {
	if err := p.wait(ctx); err != nil {
		return model.Page{}, err
	}

	p.mu.Lock()
	p.pageCalls[req.Sponsor]++
	failed := consume(p.pageFails, req.Sponsor)
	sp, ok := p.sponsors[req.Sponsor]
	p.mu.Unlock()

	if failed {
		return model.Page{}, &source.StatusError{Endpoint: "fixture/leaderboards", StatusCode: 503, Body: "injected failure"}
	}
	if !ok {
		return model.Page{}, &source.StatusError{Endpoint: "fixture/leaderboards", StatusCode: 404, Body: "unknown sponsor " + req.Sponsor}
	}

	size := req.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	pageNo := req.Page
	if pageNo <= 0 {
		pageNo = 1
	}
	total := len(sp.Builders)
	last := (total + size - 1) / size
	if last == 0 {
		last = 1
	}

	start := (pageNo - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	builders := make([]model.BuilderRecord, end-start)
	copy(builders, sp.Builders[start:end])
	for i := range builders {
		builders[i].Tags = append([]string(nil), builders[i].Tags...)
		if req.TimeWindow != "" {
			// Narrower windows pay out proportionally less.
			builders[i].RewardAmount = windowed(builders[i].RewardAmount, req.TimeWindow)
		}
	}

	return model.Page{
		Sponsor:    req.Sponsor,
		Builders:   builders,
		Pagination: model.Pagination{CurrentPage: pageNo, LastPage: last, Total: total},
	}, nil
}

// FetchPrice returns the sponsor's token price.
func (p *Provider) FetchPrice(ctx context.Context, sponsor string) (model.TokenPrice, error) {
	if err := p.wait(ctx); err != nil {
		return model.TokenPrice{}, err
	}

	p.mu.Lock()
	p.priceCalls[sponsor]++
	failed := consume(p.priceFails, sponsor)
	sp, ok := p.sponsors[sponsor]
	p.mu.Unlock()

	if failed {
		return model.TokenPrice{}, &source.StatusError{Endpoint: "fixture/token_price", StatusCode: 503, Body: "injected failure"}
	}
	if !ok || sp.USDPrice <= 0 {
		return model.TokenPrice{}, fmt.Errorf("%s: %w", sponsor, source.ErrPriceUnavailable)
	}
	return model.TokenPrice{Sponsor: sponsor, USDPrice: sp.USDPrice, Symbol: sp.Symbol}, nil
}

func (p *Provider) wait(ctx context.Context) error {
	p.mu.RLock()
	d := p.delay
	p.mu.RUnlock()
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// consume reports whether a failure is due and decrements the budget.
func consume(budget map[string]int, sponsor string) bool {
	n, ok := budget[sponsor]
	if !ok || n == 0 {
		return false
	}
	if n > 0 {
		budget[sponsor] = n - 1
	}
	return true
}

func windowed(amount float64, window string) float64 {
	switch strings.ToLower(window) {
	case "7d", "week":
		return amount / 4
	case "30d", "month":
		return amount / 2
	default:
		return amount
	}
}
