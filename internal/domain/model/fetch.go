package model

import "time"

// Pagination is the page metadata a sponsor leaderboard reports.
type Pagination struct {
	CurrentPage int
	LastPage    int
	Total       int
}

// Page is one fetched sponsor leaderboard page.
type Page struct {
	Sponsor    string
	Builders   []BuilderRecord
	Pagination Pagination
}

// PageRequest identifies a single leaderboard page fetch.
type PageRequest struct {
	Sponsor    string
	Page       int
	PageSize   int
	TimeWindow string // optional grant/time window filter
}

// TokenPrice is the USD price of a sponsor's reward token.
type TokenPrice struct {
	Sponsor  string
	USDPrice float64
	Symbol   string
}

// FetchKind distinguishes the two collaborator calls made in a round.
type FetchKind string

// Fetch kinds.
const (
	FetchPage  FetchKind = "page"
	FetchPrice FetchKind = "price"
)

// FetchTask is one unit of fan-out work for a round.
type FetchTask struct {
	TaskID     string
	SessionID  string
	Generation uint64
	Kind       FetchKind
	Page       PageRequest // set for FetchPage
	Sponsor    string
	Reply      chan<- FetchResult
}

// FetchResult is the settled outcome of a FetchTask.
type FetchResult struct {
	TaskID  string
	Kind    FetchKind
	Sponsor string
	Page    Page
	Price   TokenPrice
	Err     error
	Latency time.Duration
}
