// Package scoring computes the composite MCAP score of a builder.
package scoring

import (
	"math"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

// Default MCAP weights.
const (
	defaultEarningsWeight   = 0.4
	defaultScoreScale       = 10
	defaultScoreWeight      = 0.3
	defaultPositionWeight   = 0.2
	defaultPositionSpan     = 1000
	defaultPositionFloor    = 0.1
	defaultTrendingPerRank  = 5
	defaultHumanBonus       = 50
	defaultNationalityBonus = 30
	defaultTagBonus         = 5
)

// Weights holds the coefficients of the MCAP formula.
type Weights struct {
	Earnings         float64
	ScoreScale       float64
	Score            float64
	Position         float64
	PositionSpan     float64
	PositionFloor    float64
	TrendingPerRank  float64
	HumanBonus       float64
	NationalityBonus float64
	TagBonus         float64
}

// DefaultWeights returns the standard MCAP weights.
func DefaultWeights() Weights {
	return Weights{
		Earnings:         defaultEarningsWeight,
		ScoreScale:       defaultScoreScale,
		Score:            defaultScoreWeight,
		Position:         defaultPositionWeight,
		PositionSpan:     defaultPositionSpan,
		PositionFloor:    defaultPositionFloor,
		TrendingPerRank:  defaultTrendingPerRank,
		HumanBonus:       defaultHumanBonus,
		NationalityBonus: defaultNationalityBonus,
		TagBonus:         defaultTagBonus,
	}
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithWeights replaces the formula weights. A zero PositionSpan keeps the default.
func WithWeights(w Weights) Option {
	return func(c *Calculator) {
		if w.PositionSpan <= 0 {
			w.PositionSpan = defaultPositionSpan
		}
		c.w = w
	}
}

// WithEarningsWeight overrides only the earnings coefficient.
func WithEarningsWeight(weight float64) Option {
	return func(c *Calculator) {
		if weight >= 0 {
			c.w.Earnings = weight
		}
	}
}

// Input abstracts the builder fields the formula needs.
type Input struct {
	USDEarnings   float64
	ScorePoints   float64
	Position      int
	RankingChange int
	Human         bool
	Nationality   bool
	TagCount      int
}

// PriceContext tells the formula how to derive USD earnings.
//
// In aggregated mode the builder's cross-sponsor USD total is used. In
// single-sponsor mode the best record's reward is converted with TokenPrice.
type PriceContext struct {
	Aggregated bool
	TokenPrice float64
}

// Calculator computes MCAP scores. It is stateless and safe for concurrent use.
type Calculator struct {
	w Weights
}

// NewCalculator creates a calculator with the default weights.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{w: DefaultWeights()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Weights returns the calculator's coefficients.
func (c *Calculator) Weights() Weights { return c.w }

// Compute returns the rounded sum of the five weighted components. The result
// has no upper bound.
func (c *Calculator) Compute(in Input) int64 {
	w := c.w

	earnings := in.USDEarnings * w.Earnings
	score := in.ScorePoints * w.ScoreScale * w.Score
	position := in.USDEarnings * c.positionMultiplier(in.Position) * w.Position

	trending := 0.0
	if in.RankingChange > 0 {
		trending = float64(in.RankingChange) * w.TrendingPerRank
	}

	activity := float64(in.TagCount) * w.TagBonus
	if in.Human {
		activity += w.HumanBonus
	}
	if in.Nationality {
		activity += w.NationalityBonus
	}

	return int64(math.Round(earnings + score + position + trending + activity))
}

// positionMultiplier is 1.0 at position 1 and falls linearly to the floor.
func (c *Calculator) positionMultiplier(pos int) float64 {
	if pos < 1 {
		pos = 1
	}
	return math.Max(c.w.PositionFloor, 1-float64(pos-1)/c.w.PositionSpan)
}

// Mcap scores an aggregated builder under the given price context.
func (c *Calculator) Mcap(b *model.AggregatedBuilder, pc PriceContext) int64 {
	return c.Compute(FromBuilder(b, pc))
}

// FromBuilder projects an aggregated builder onto the formula input.
//
// In aggregated mode the position is the builder's merged rank when one has
// been assigned; otherwise the best sponsor-reported position is used.
func FromBuilder(b *model.AggregatedBuilder, pc PriceContext) Input {
	usd := b.Best.RewardAmount * pc.TokenPrice
	pos := b.Best.LeaderboardPosition
	if pc.Aggregated {
		usd = b.TotalEarningsUSD
		if b.Rank > 0 {
			pos = b.Rank
		}
	}
	return Input{
		USDEarnings:   usd,
		ScorePoints:   b.Best.BuilderScorePoints,
		Position:      pos,
		RankingChange: b.Best.RankingChange,
		Human:         b.Best.HumanCheckmark,
		Nationality:   b.Best.VerifiedNationality,
		TagCount:      b.Best.TagCount(),
	}
}

var defaultCalculator = NewCalculator()

// Compute scores in with the default weights.
func Compute(in Input) int64 { return defaultCalculator.Compute(in) }

// Mcap scores b with the default weights.
func Mcap(b *model.AggregatedBuilder, pc PriceContext) int64 {
	return defaultCalculator.Mcap(b, pc)
}
