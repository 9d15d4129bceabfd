package dataprocessing

import (
	"strings"

	"engageboard/pkg/contracts/domain"
)

// PercentChange compares a current value with the previous period.
//
//	previous absent          -> absent
//	previous 0, current 0    -> 0
//	previous 0, current != 0 -> absent
//	otherwise                -> (current - previous) / previous * 100
func PercentChange(current float64, previous domain.NullFloat) domain.NullFloat {
	if !previous.Valid {
		return domain.NullFloat{}
	}
	if previous.Float64 == 0 {
		if current == 0 {
			return domain.NewNullFloat(0)
		}
		return domain.NullFloat{}
	}
	return domain.NewNullFloat((current - previous.Float64) / previous.Float64 * 100)
}

// JoinKey normalises a page key for joins across tables: trimmed, lower case,
// inner whitespace collapsed.
func JoinKey(page string) string {
	return strings.ToLower(strings.Join(strings.Fields(page), " "))
}

// Compare left-joins the prior period onto the overall aggregates. Pages without a
// prior record keep null comparison values. When the prior table repeats a page, the
// first record is used.
func Compare(overall []domain.PageAggregate, prior []domain.PriorRecord) []domain.LeaderboardRow {
	byKey := make(map[string]domain.PriorRecord, len(prior))
	for _, p := range prior {
		key := JoinKey(p.PageKey)
		if _, dup := byKey[key]; dup {
			continue
		}
		byKey[key] = p
	}

	rows := make([]domain.LeaderboardRow, 0, len(overall))
	for _, agg := range overall {
		row := domain.LeaderboardRow{
			PageKey:         agg.PageKey,
			TotalPosts:      agg.TotalPosts,
			TotalEngagement: agg.TotalEngagement,
			DaysWon:         agg.DaysWon,
		}
		if p, ok := byKey[JoinKey(agg.PageKey)]; ok {
			row.PctChangePosts = PercentChange(float64(agg.TotalPosts), p.PostCount)
			row.PctChangeEngagement = PercentChange(agg.TotalEngagement, p.Engagement)
			row.PriorDayWon = p.DayWon
			row.PriorRank = p.Rank
		}
		rows = append(rows, row)
	}
	return rows
}
