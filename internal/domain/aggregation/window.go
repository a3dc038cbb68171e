package aggregation

import (
	"strings"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

// Query selects a display window over the aggregated set.
type Query struct {
	Text   string // case-insensitive substring filter; empty means no filter
	Offset int
	Limit  int // <= 0 means everything after Offset
}

// View is a display window over a (possibly filtered) aggregate.
type View struct {
	Builders []model.AggregatedBuilder
	// Total is the filtered count when a text filter is active, else the full count.
	Total   int
	HasMore bool
}

// Search returns the builders matching text in earnings order. An empty text
// returns the full sorted set. Matching is a case-insensitive substring test
// against display name, name, bio and wallet address.
func (s State) Search(text string) []model.AggregatedBuilder {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return s.builders
	}
	var out []model.AggregatedBuilder
	for i := range s.builders {
		if Matches(&s.builders[i], needle) {
			out = append(out, s.builders[i])
		}
	}
	return out
}

// Matches reports whether b matches an already lowercased needle.
func Matches(b *model.AggregatedBuilder, needle string) bool {
	for _, field := range []string{b.Best.DisplayName, b.Best.Name, b.Best.Bio, b.Best.WalletAddress} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Window applies the text filter and returns the requested slice of the
// filtered set. The result is a slice of the sorted order, so growing Limit
// never reorders builders already displayed.
func (s State) Window(q Query) View {
	matched := s.Search(q.Text)
	total := len(matched)

	start := q.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < total {
		end = start + q.Limit
	}

	out := make([]model.AggregatedBuilder, end-start)
	copy(out, matched[start:end])
	return View{
		Builders: out,
		Total:    total,
		HasMore:  end < total,
	}
}
