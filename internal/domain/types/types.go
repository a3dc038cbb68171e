// Package types contains the flat read-only builder projection shared by the
// HTTP API and the CSV exporter.
package types

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

// Earnings is one sponsor contribution in an Entry.
type Earnings struct {
	Sponsor     string  `json:"sponsor"`
	TokenAmount float64 `json:"token_amount"`
	USDAmount   float64 `json:"usd_amount"`
	TokenSymbol string  `json:"token_symbol"`
}

// Entry is a flat projection of one aggregated builder for rendering.
type Entry struct {
	Rank                int        `json:"rank"`
	IdentityKey         string     `json:"identity_key"`
	DisplayName         string     `json:"display_name"`
	Name                string     `json:"name,omitempty"`
	TalentProtocolID    string     `json:"talent_protocol_id,omitempty"`
	BuilderScore        float64    `json:"builder_score"`
	BestPosition        int        `json:"best_position"`
	RankingChange       int        `json:"ranking_change"`
	TotalEarningsUSD    float64    `json:"total_earnings_usd"`
	EarningsBreakdown   []Earnings `json:"earnings_breakdown"`
	SponsorsSeen        []string   `json:"sponsors_seen"`
	UnpricedSponsors    []string   `json:"unpriced_sponsors,omitempty"`
	Mcap                int64      `json:"mcap"`
	Category            string     `json:"category,omitempty"`
	Categories          []string   `json:"categories,omitempty"`
	HumanCheckmark      bool       `json:"human_checkmark"`
	VerifiedNationality bool       `json:"verified_nationality"`
	Bio                 string     `json:"bio,omitempty"`
	Location            string     `json:"location,omitempty"`
	Tags                []string   `json:"tags,omitempty"`
	ImageURL            string     `json:"image_url,omitempty"`
	WalletAddress       string     `json:"wallet_address,omitempty"`
}

// NewEntry projects b. category is the single exposed category (may be
// empty) and categories lists every category the builder won.
func NewEntry(b *model.AggregatedBuilder, mcap int64, category string, categories []string) Entry {
	e := Entry{
		Rank:                b.Rank,
		IdentityKey:         b.IdentityKey,
		DisplayName:         displayName(&b.Best),
		Name:                b.Best.Name,
		TalentProtocolID:    b.Best.TalentProtocolID,
		BuilderScore:        b.Best.BuilderScorePoints,
		BestPosition:        b.Best.LeaderboardPosition,
		RankingChange:       b.Best.RankingChange,
		TotalEarningsUSD:    b.TotalEarningsUSD,
		EarningsBreakdown:   make([]Earnings, 0, len(b.EarningsBreakdown)),
		SponsorsSeen:        append([]string{}, b.SponsorsSeen...),
		UnpricedSponsors:    append([]string(nil), b.UnpricedSponsors...),
		Mcap:                mcap,
		Category:            category,
		Categories:          append([]string(nil), categories...),
		HumanCheckmark:      b.Best.HumanCheckmark,
		VerifiedNationality: b.Best.VerifiedNationality,
		Bio:                 b.Best.Bio,
		Location:            b.Best.Location,
		Tags:                append([]string(nil), b.Best.Tags...),
		ImageURL:            b.Best.ImageURL,
		WalletAddress:       b.Best.WalletAddress,
	}
	for _, eb := range b.EarningsBreakdown {
		e.EarningsBreakdown = append(e.EarningsBreakdown, Earnings(eb))
	}
	return e
}

// displayName falls back to Name, then to the sponsor-local id.
func displayName(r *model.BuilderRecord) string {
	if s := strings.TrimSpace(r.DisplayName); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Name); s != "" {
		return s
	}
	return fmt.Sprintf("builder #%d", r.ID)
}

// Row is the CSV form of an Entry. Lists are joined with listSep.
type Row struct {
	Rank             int    `csv:"rank"`
	IdentityKey      string `csv:"identity_key"`
	DisplayName      string `csv:"display_name"`
	BuilderScore     string `csv:"builder_score"`
	BestPosition     int    `csv:"best_position"`
	RankingChange    int    `csv:"ranking_change"`
	TotalEarningsUSD string `csv:"total_earnings_usd"`
	Sponsors         string `csv:"sponsors"`
	UnpricedSponsors string `csv:"unpriced_sponsors"`
	Mcap             int64  `csv:"mcap"`
	Category         string `csv:"category"`
	Human            bool   `csv:"human_checkmark"`
	Nationality      bool   `csv:"verified_nationality"`
	Location         string `csv:"location"`
	Tags             string `csv:"tags"`
	WalletAddress    string `csv:"wallet_address"`
}

const listSep = ";"

// Row converts the entry to its CSV form. USD amounts use two decimals.
func (e Entry) Row() Row {
	return Row{
		Rank:             e.Rank,
		IdentityKey:      e.IdentityKey,
		DisplayName:      e.DisplayName,
		BuilderScore:     formatScore(e.BuilderScore),
		BestPosition:     e.BestPosition,
		RankingChange:    e.RankingChange,
		TotalEarningsUSD: FormatUSD(e.TotalEarningsUSD),
		Sponsors:         strings.Join(e.SponsorsSeen, listSep),
		UnpricedSponsors: strings.Join(e.UnpricedSponsors, listSep),
		Mcap:             e.Mcap,
		Category:         e.Category,
		Human:            e.HumanCheckmark,
		Nationality:      e.VerifiedNationality,
		Location:         e.Location,
		Tags:             strings.Join(e.Tags, listSep),
		WalletAddress:    e.WalletAddress,
	}
}

// FormatUSD renders an amount with exactly two decimals. Non-finite amounts
// render as "n/a".
func FormatUSD(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatScore(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).String()
}

// WriteCSV writes entries as CSV with a header row.
func WriteCSV(w io.Writer, entries []Entry) error {
	rows := make([]Row, 0, len(entries))
	for i := range entries {
		rows = append(rows, entries[i].Row())
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("marshal csv: %w", err)
	}
	return nil
}
