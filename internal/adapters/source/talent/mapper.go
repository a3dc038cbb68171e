package talent

import (
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

// mapPage rejects the whole page when any amount is not a finite number.
func mapPage(sponsor string, resp *leaderboardResponse) (model.Page, error) {
	page := model.Page{
		Sponsor:  sponsor,
		Builders: make([]model.BuilderRecord, 0, len(resp.Users)),
		Pagination: model.Pagination{
			CurrentPage: resp.Pagination.CurrentPage,
			LastPage:    resp.Pagination.LastPage,
			Total:       resp.Pagination.Total,
		},
	}
	for i := range resp.Users {
		rec, err := mapEntry(&resp.Users[i])
		if err != nil {
			return model.Page{}, fmt.Errorf("%s: %w", sponsor, err)
		}
		page.Builders = append(page.Builders, rec)
	}
	return page, nil
}

func mapEntry(e *leaderboardEntry) (model.BuilderRecord, error) {
	score, ok := toFloat(e.User.BuilderScore)
	if !ok {
		return model.BuilderRecord{}, fmt.Errorf("builder %d: builder_score: %w", e.ID, source.ErrMalformedResponse)
	}
	reward, ok := toFloat(e.RewardAmount)
	if !ok {
		return model.BuilderRecord{}, fmt.Errorf("builder %d: reward_amount: %w", e.ID, source.ErrMalformedResponse)
	}
	return model.BuilderRecord{
		ID:                  e.ID,
		TalentProtocolID:    strings.TrimSpace(e.User.ID),
		DisplayName:         e.User.DisplayName,
		Name:                e.User.Name,
		LeaderboardPosition: e.LeaderboardPosition,
		BuilderScorePoints:  score,
		RankingChange:       e.RankingChange,
		RewardAmount:        reward,
		HumanCheckmark:      e.User.HumanCheckmark,
		VerifiedNationality: e.User.VerifiedNationality,
		Bio:                 e.User.Bio,
		Location:            e.User.Location,
		Tags:                append([]string(nil), e.User.Tags...),
		ImageURL:            e.User.ImageURL,
		WalletAddress:       NormalizeWallet(e.User.MainWallet),
	}, nil
}

// toFloat maps a missing amount to 0. ok is false when the amount does not
// fit a finite float64.
func toFloat(a amount) (float64, bool) {
	if !a.Valid {
		return 0, true
	}
	return finite(a.Decimal.InexactFloat64())
}

func finite(v float64) (float64, bool) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// NormalizeWallet returns the lowercase 0x-prefixed form of a hex address, or
// "" when s is not one.
func NormalizeWallet(s string) string {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return ""
	}
	return hexutil.Encode(common.HexToAddress(s).Bytes())
}
