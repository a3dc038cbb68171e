package talent

import "github.com/shopspring/decimal"

// leaderboardResponse is one page of a sponsor leaderboard.
type leaderboardResponse struct {
	Users      []leaderboardEntry `json:"users"`
	Pagination pagination         `json:"pagination"`
}

type pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
}

type leaderboardEntry struct {
	ID                  int64   `json:"id"`
	LeaderboardPosition int     `json:"leaderboard_position"`
	RankingChange       int     `json:"ranking_change"`
	RewardAmount        amount  `json:"reward_amount"`
	User                profile `json:"user"`
}

type profile struct {
	ID                  string   `json:"id"`
	DisplayName         string   `json:"display_name"`
	Name                string   `json:"name"`
	BuilderScore        amount   `json:"builder_score"`
	HumanCheckmark      bool     `json:"human_checkmark"`
	VerifiedNationality bool     `json:"verified_nationality"`
	Bio                 string   `json:"bio"`
	Location            string   `json:"location"`
	Tags                []string `json:"tags"`
	ImageURL            string   `json:"profile_picture_url"`
	MainWallet          string   `json:"main_wallet"`
}

// tokenPriceResponse is the price lookup payload.
type tokenPriceResponse struct {
	USDPrice    amount `json:"usd_price"`
	TokenSymbol string `json:"token_symbol"`
}

// amount accepts a JSON number, a numeric string or null.
type amount = decimal.NullDecimal
