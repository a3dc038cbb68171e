package talent

import "time"

const (
	defaultBaseURL     = "https://api.talentprotocol.com/api/v1"
	defaultPerPage     = 20
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 512

	leaderboardPath = "/leaderboards"
	pricePath       = "/token_price"
)
