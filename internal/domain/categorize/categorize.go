// Package categorize assigns award categories to aggregated builders.
//
// Each category has one winner chosen by an independent "best of" reduction
// over the full builder list. Ties keep the earlier builder in list order.
package categorize

import (
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/scoring"
)

// Category is an award category label.
type Category string

// Award categories.
const (
	MostEarnings Category = "most_earnings"
	Trending     Category = "trending"
	HighestScore Category = "highest_score"
	Featured     Category = "featured"
	SoughtAfter  Category = "sought_after"
)

// Categories lists every category in assignment order.
var Categories = []Category{MostEarnings, Trending, HighestScore, Featured, SoughtAfter}

// Mode controls what happens when one builder tops several categories.
type Mode string

const (
	// LastWriteWins keeps each category's own winner; a builder that wins
	// several categories is labelled with the last one in assignment order.
	LastWriteWins Mode = "last_write_wins"
	// Exclusive gives each category to the best builder not already labelled,
	// so no builder holds more than one category.
	Exclusive Mode = "exclusive"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case LastWriteWins, Exclusive:
		return Mode(s), true
	case "":
		return LastWriteWins, true
	default:
		return "", false
	}
}

// Categorizer computes category assignments.
type Categorizer struct {
	mode  Mode
	calc  *scoring.Calculator
	price scoring.PriceContext
}

// New creates a categorizer. Defaults: last-write-wins, aggregated pricing.
func New(opts ...Option) *Categorizer {
	c := &Categorizer{
		mode:  LastWriteWins,
		calc:  scoring.NewCalculator(),
		price: scoring.PriceContext{Aggregated: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the collision mode in use.
func (c *Categorizer) Mode() Mode { return c.mode }

// Categorize computes the assignment for a snapshot of builders.
func (c *Categorizer) Categorize(builders []model.AggregatedBuilder) Assignment {
	a := newAssignment()
	if len(builders) == 0 {
		return a
	}

	taken := map[string]bool{}
	for _, cat := range Categories {
		metric := c.metric(cat)
		var idx int
		var ok bool
		if c.mode == Exclusive {
			idx, ok = best(builders, metric, func(b *model.AggregatedBuilder) bool { return !taken[b.IdentityKey] })
		} else {
			idx, ok = best(builders, metric, nil)
		}
		if !ok {
			continue
		}
		key := builders[idx].IdentityKey
		taken[key] = true
		a.record(cat, key)
	}
	return a
}

// Winner returns the top builder for one category, ignoring any collision
// handling. ok is false only for an empty list.
func (c *Categorizer) Winner(builders []model.AggregatedBuilder, cat Category) (model.AggregatedBuilder, bool) {
	metric := c.metric(cat)
	if metric == nil {
		return model.AggregatedBuilder{}, false
	}
	idx, ok := best(builders, metric, nil)
	if !ok {
		return model.AggregatedBuilder{}, false
	}
	return builders[idx], true
}

func (c *Categorizer) metric(cat Category) func(*model.AggregatedBuilder) float64 {
	switch cat {
	case MostEarnings:
		return c.earnings
	case Trending:
		return c.trending
	case HighestScore:
		return highestScore
	case Featured:
		return c.featured
	case SoughtAfter:
		return soughtAfter
	default:
		return nil
	}
}

// best is a left fold keeping the first element with the strictly greatest metric.
func best(builders []model.AggregatedBuilder, metric func(*model.AggregatedBuilder) float64, eligible func(*model.AggregatedBuilder) bool) (int, bool) {
	winner := -1
	var top float64
	for i := range builders {
		b := &builders[i]
		if eligible != nil && !eligible(b) {
			continue
		}
		v := metric(b)
		if winner < 0 || v > top {
			winner, top = i, v
		}
	}
	return winner, winner >= 0
}

func (c *Categorizer) earnings(b *model.AggregatedBuilder) float64 {
	if c.price.Aggregated {
		return b.TotalEarningsUSD
	}
	return b.Best.RewardAmount
}

func (c *Categorizer) trending(b *model.AggregatedBuilder) float64 {
	v := b.Best.BuilderScorePoints * 0.1
	if b.Best.RankingChange > 0 {
		v += float64(b.Best.RankingChange) * 10
	}
	if pos := scoring.FromBuilder(b, c.price).Position; pos > 0 && pos <= 10 {
		v += 50
	}
	return v
}

func highestScore(b *model.AggregatedBuilder) float64 {
	return b.Best.BuilderScorePoints
}

func (c *Categorizer) featured(b *model.AggregatedBuilder) float64 {
	return float64(c.calc.Mcap(b, c.price)) + verification(&b.Best)
}

func soughtAfter(b *model.AggregatedBuilder) float64 {
	v := verification(&b.Best) + float64(b.Best.TagCount())*10 + b.Best.BuilderScorePoints*0.5
	if b.Best.Bio != "" {
		v += 30
	}
	if b.Best.Location != "" {
		v += 20
	}
	return v
}

func verification(r *model.BuilderRecord) float64 {
	var v float64
	if r.HumanCheckmark {
		v += 100
	}
	if r.VerifiedNationality {
		v += 50
	}
	return v
}
