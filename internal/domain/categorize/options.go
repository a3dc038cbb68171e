package categorize

import "github.com/folajindayo/builder-score-app-sub000/internal/domain/scoring"

// Option applies a configuration option to the Categorizer.
type Option func(*Categorizer)

// WithMode sets the collision mode. Unknown modes are ignored.
func WithMode(mode Mode) Option {
	return func(c *Categorizer) {
		if m, ok := ParseMode(string(mode)); ok {
			c.mode = m
		}
	}
}

// WithCalculator sets the MCAP calculator used by the featured category.
func WithCalculator(calc *scoring.Calculator) Option {
	return func(c *Categorizer) {
		if calc != nil {
			c.calc = calc
		}
	}
}

// WithPriceContext sets how earnings are derived.
func WithPriceContext(pc scoring.PriceContext) Option {
	return func(c *Categorizer) {
		c.price = pc
	}
}
