package dataprocessing

import (
	"sort"

	"engageboard/pkg/contracts/domain"
)

// TopN is how many pages the summary lists in each top table
const TopN = 5

// Summary holds headline metrics for a leaderboard
type Summary struct {
	TotalPages        int                     `json:"total_pages"`
	TotalPosts        int                     `json:"total_posts"`
	TotalEngagement   float64                 `json:"total_engagement"`
	AverageEngagement float64                 `json:"average_engagement"`
	TopByEngagement   []domain.LeaderboardRow `json:"top_by_engagement"`
	TopByDaysWon      []domain.LeaderboardRow `json:"top_by_days_won"`
}

// Summarize computes headline metrics. Average engagement is per page.
// Top lists break ties by rank.
func Summarize(rows []domain.LeaderboardRow) Summary {
	s := Summary{TotalPages: len(rows)}
	for _, row := range rows {
		s.TotalPosts += row.TotalPosts
		s.TotalEngagement += row.TotalEngagement
	}
	if len(rows) > 0 {
		s.AverageEngagement = s.TotalEngagement / float64(len(rows))
	}

	byEngagement := Rank(rows)
	s.TopByEngagement = head(byEngagement, TopN)

	byDays := make([]domain.LeaderboardRow, len(byEngagement))
	copy(byDays, byEngagement)
	sort.SliceStable(byDays, func(i, j int) bool {
		return byDays[i].DaysWon > byDays[j].DaysWon
	})
	s.TopByDaysWon = head(byDays, TopN)
	return s
}

func head(rows []domain.LeaderboardRow, n int) []domain.LeaderboardRow {
	if len(rows) < n {
		n = len(rows)
	}
	out := make([]domain.LeaderboardRow, n)
	copy(out, rows[:n])
	return out
}
