// Package model contains domain models passed between layers.
package model

// BuilderRecord is one builder's standing as reported by a single sponsor page.
// Records are immutable once returned by a source; aggregation never mutates them.
type BuilderRecord struct {
	ID                  int64    // sponsor-local identifier, not unique across sponsors
	TalentProtocolID    string   // optional global identifier
	DisplayName         string   // optional
	Name                string   // optional
	LeaderboardPosition int      // 1-based rank within the sponsor leaderboard
	BuilderScorePoints  float64  // missing upstream values arrive as 0
	RankingChange       int      // signed delta vs previous period
	RewardAmount        float64  // token amount, normalised at the source boundary
	HumanCheckmark      bool     // human verification flag
	VerifiedNationality bool     // nationality verification flag
	Bio                 string   // optional
	Location            string   // optional
	Tags                []string // ordered
	ImageURL            string   // optional
	WalletAddress       string   // lowercase hex when the upstream provided one
}

// TagCount returns the number of tags on the record.
func (r BuilderRecord) TagCount() int { return len(r.Tags) }

// EarningsEntry is one sponsor contribution to a builder's earnings.
type EarningsEntry struct {
	Sponsor     string
	TokenAmount float64
	USDAmount   float64
	TokenSymbol string
}

// AggregatedBuilder is the deduplicated cross-sponsor view of one builder.
//
// TotalEarningsUSD always equals the sum of EarningsBreakdown[].USDAmount.
type AggregatedBuilder struct {
	IdentityKey       string
	Best              BuilderRecord
	EarningsBreakdown []EarningsEntry
	SponsorsSeen      []string // first-appearance order, no duplicates
	UnpricedSponsors  []string // sponsors whose price was unknown when the builder was merged
	TotalEarningsUSD  float64

	// Rank is the 1-based position in the current earnings order. It is a
	// presentation of the sort, unlike Best.LeaderboardPosition which keeps the
	// best position any sponsor reported.
	Rank int

	// Seq is the merge order of the builder's first sighting and breaks sort ties.
	Seq int
}

// HasSponsor reports whether the builder appeared under sponsor.
func (b *AggregatedBuilder) HasSponsor(sponsor string) bool {
	return contains(b.SponsorsSeen, sponsor)
}

// EarningsUnknownFor reports whether a sponsor's earnings could not be priced.
func (b *AggregatedBuilder) EarningsUnknownFor(sponsor string) bool {
	return contains(b.UnpricedSponsors, sponsor)
}

// Clone returns a deep copy so a new aggregation state never shares slices with
// the one it was derived from.
func (b *AggregatedBuilder) Clone() AggregatedBuilder {
	c := *b
	c.Best.Tags = append([]string(nil), b.Best.Tags...)
	c.EarningsBreakdown = append([]EarningsEntry(nil), b.EarningsBreakdown...)
	c.SponsorsSeen = append([]string(nil), b.SponsorsSeen...)
	c.UnpricedSponsors = append([]string(nil), b.UnpricedSponsors...)
	return c
}

// BreakdownUSD sums the USD amounts of the breakdown in append order.
func (b *AggregatedBuilder) BreakdownUSD() float64 {
	var sum float64
	for _, e := range b.EarningsBreakdown {
		sum += e.USDAmount
	}
	return sum
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
