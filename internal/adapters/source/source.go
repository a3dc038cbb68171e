// Package source defines the upstream collaborators an aggregation round
// calls: a paginated sponsor leaderboard and a sponsor token price lookup.
package source

import (
	"context"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

// LeaderboardSource fetches one page of a sponsor leaderboard. Records must be
// normalised: reward amounts numeric, wallet addresses lowercase.
type LeaderboardSource interface {
	FetchPage(ctx context.Context, req model.PageRequest) (model.Page, error)
}

// PriceSource fetches the USD price of a sponsor's reward token.
type PriceSource interface {
	FetchPrice(ctx context.Context, sponsor string) (model.TokenPrice, error)
}

// Source combines both collaborator contracts.
type Source interface {
	LeaderboardSource
	PriceSource
}
