package fixture

import "github.com/folajindayo/builder-score-app-sub000/internal/domain/model"

// DefaultSponsors returns the built-in demo data set.
func DefaultSponsors() []Sponsor {
	return []Sponsor{
		{
			Slug:     "base",
			Symbol:   "ETH",
			USDPrice: 3200,
			Builders: []model.BuilderRecord{
				{ID: 1, TalentProtocolID: "tp-ada", DisplayName: "Ada", LeaderboardPosition: 1, BuilderScorePoints: 210, RankingChange: 3, RewardAmount: 0.5, HumanCheckmark: true, VerifiedNationality: true, Bio: "Compiler hacker", Location: "London", Tags: []string{"rust", "zk"}, WalletAddress: "0x00000000000000000000000000000000000000a1"},
				{ID: 2, TalentProtocolID: "tp-grace", DisplayName: "Grace", LeaderboardPosition: 2, BuilderScorePoints: 190, RankingChange: -1, RewardAmount: 0.35, HumanCheckmark: true, Tags: []string{"cobol"}},
				{ID: 3, DisplayName: "Linus", LeaderboardPosition: 3, BuilderScorePoints: 150, RewardAmount: 0.2, Location: "Portland"},
				{ID: 4, Name: "Margaret", LeaderboardPosition: 4, BuilderScorePoints: 175, RankingChange: 12, RewardAmount: 0.1, Bio: "Flight software"},
				{ID: 5, DisplayName: "Ken", LeaderboardPosition: 5, BuilderScorePoints: 120, RewardAmount: 0.05},
				{ID: 6, DisplayName: "Barbara", LeaderboardPosition: 6, BuilderScorePoints: 160, RewardAmount: 0.04, VerifiedNationality: true},
				{ID: 7, DisplayName: "Dennis", LeaderboardPosition: 7, BuilderScorePoints: 140, RewardAmount: 0.03},
				{ID: 8, DisplayName: "Frances", LeaderboardPosition: 8, BuilderScorePoints: 110, RewardAmount: 0.02},
			},
		},
		{
			Slug:     "celo",
			Symbol:   "CELO",
			USDPrice: 0.6,
			Builders: []model.BuilderRecord{
				{ID: 11, TalentProtocolID: "tp-grace", DisplayName: "Grace Hopper", LeaderboardPosition: 1, BuilderScorePoints: 195, RankingChange: 4, RewardAmount: 900},
				{ID: 12, DisplayName: "linus", LeaderboardPosition: 2, BuilderScorePoints: 155, RewardAmount: 700},
				{ID: 13, DisplayName: "Radia", LeaderboardPosition: 3, BuilderScorePoints: 130, RewardAmount: 500, HumanCheckmark: true, Tags: []string{"networking", "spanning-tree", "protocols"}},
				{ID: 14, DisplayName: "Hedy", LeaderboardPosition: 4, BuilderScorePoints: 125, RewardAmount: 300, Location: "Vienna"},
				{ID: 15, DisplayName: "Alan", LeaderboardPosition: 5, BuilderScorePoints: 100, RewardAmount: 100},
			},
		},
		{
			Slug:     "talent",
			Symbol:   "TALENT",
			USDPrice: 0, // price feed not listed yet
			Builders: []model.BuilderRecord{
				{ID: 21, TalentProtocolID: "tp-ada", DisplayName: "Ada L.", LeaderboardPosition: 2, BuilderScorePoints: 220, RewardAmount: 5000},
				{ID: 22, DisplayName: "Hedy", LeaderboardPosition: 1, BuilderScorePoints: 128, RewardAmount: 8000},
				{ID: 23, LeaderboardPosition: 3, RewardAmount: 1000},
			},
		},
	}
}
