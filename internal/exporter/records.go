package exporter

import (
	"strconv"

	"engageboard/pkg/contracts/domain"
)

// Records flattens rows in leaderboard column order with full precision.
// Missing values become empty cells.
func Records(rows []domain.LeaderboardRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Followers.String(),
			r.PageKey,
			strconv.Itoa(r.TotalPosts),
			formatFloat(r.TotalEngagement),
			strconv.Itoa(r.Rank),
			strconv.Itoa(r.DaysWon),
			r.PctChangePosts.String(),
			r.PctChangeEngagement.String(),
			r.PriorDayWon.String(),
			r.PriorRank.String(),
		})
	}
	return out
}

// DisplayRecords flattens rows with dashboard formatting
func DisplayRecords(rows []domain.LeaderboardRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			FormatNullInt(r.Followers),
			r.PageKey,
			strconv.Itoa(r.TotalPosts),
			FormatEngagement(r.TotalEngagement),
			strconv.Itoa(r.Rank),
			strconv.Itoa(r.DaysWon),
			FormatPercent(r.PctChangePosts),
			FormatPercent(r.PctChangeEngagement),
			FormatNullInt(r.PriorDayWon),
			FormatNullInt(r.PriorRank),
		})
	}
	return out
}

// DailyColumns is the header row of the per-day breakdown
var DailyColumns = []string{"Date", "Page/Profile/Channel", "Post", "Engagement", "Day Won"}

// DailyRecords flattens the per-page per-day aggregates
func DailyRecords(daily []domain.DailyAggregate) [][]string {
	out := make([][]string, 0, len(daily))
	for _, d := range daily {
		out = append(out, []string{
			d.Date.Format("2006-01-02"),
			d.PageKey,
			strconv.Itoa(d.PostCount),
			formatFloat(d.Engagement),
			strconv.Itoa(d.DayWon),
		})
	}
	return out
}
