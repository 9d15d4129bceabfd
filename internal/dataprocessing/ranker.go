package dataprocessing

import (
	"sort"

	"engageboard/pkg/contracts/domain"
)

// Rank orders rows by total engagement descending, ties broken by page key
// ascending, and numbers them 1..N without gaps or shared ranks.
func Rank(rows []domain.LeaderboardRow) []domain.LeaderboardRow {
	ranked := make([]domain.LeaderboardRow, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalEngagement != ranked[j].TotalEngagement {
			return ranked[i].TotalEngagement > ranked[j].TotalEngagement
		}
		return pageLess(ranked[i].PageKey, ranked[j].PageKey)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
