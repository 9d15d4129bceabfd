package dataprocessing

import (
	"sort"
	"time"

	"engageboard/pkg/contracts/domain"
)

type dayPage struct {
	day  time.Time
	page string
}

// AggregateDaily groups dated posts by (page, day) and marks exactly one winner per
// day: the page with the highest engagement sum, ties going to the lexically smallest
// page key. Pages are grouped by JoinKey and shown with the first spelling seen.
// Undated posts are ignored. The result is ordered by day, then page key.
func AggregateDaily(posts []domain.PostRecord) []domain.DailyAggregate {
	names := pageNames(posts)
	groups := make(map[dayPage]*domain.DailyAggregate)
	for _, p := range posts {
		if !p.HasDate {
			continue
		}
		key := dayPage{day: p.Date, page: JoinKey(p.PageKey)}
		agg, ok := groups[key]
		if !ok {
			agg = &domain.DailyAggregate{PageKey: names[key.page], Date: p.Date}
			groups[key] = agg
		}
		agg.PostCount++
		agg.Engagement += p.Engagement
	}

	daily := make([]domain.DailyAggregate, 0, len(groups))
	for _, agg := range groups {
		daily = append(daily, *agg)
	}
	sort.Slice(daily, func(i, j int) bool {
		if !daily[i].Date.Equal(daily[j].Date) {
			return daily[i].Date.Before(daily[j].Date)
		}
		return pageLess(daily[i].PageKey, daily[j].PageKey)
	})

	markWinners(daily)
	return daily
}

// markWinners expects daily sorted by day then page key
func markWinners(daily []domain.DailyAggregate) {
	for start := 0; start < len(daily); {
		end := start + 1
		for end < len(daily) && daily[end].Date.Equal(daily[start].Date) {
			end++
		}
		winner := start
		for i := start + 1; i < end; i++ {
			// strict comparison keeps the earlier, lexically smaller page on ties
			if daily[i].Engagement > daily[winner].Engagement {
				winner = i
			}
		}
		daily[winner].DayWon = 1
		start = end
	}
}

// pageNames maps each JoinKey to the first spelling of the page in posts
func pageNames(posts []domain.PostRecord) map[string]string {
	names := make(map[string]string)
	for _, p := range posts {
		key := JoinKey(p.PageKey)
		if _, ok := names[key]; !ok {
			names[key] = p.PageKey
		}
	}
	return names
}

// pageLess orders page keys by JoinKey, falling back to the raw spelling
func pageLess(a, b string) bool {
	ka, kb := JoinKey(a), JoinKey(b)
	if ka != kb {
		return ka < kb
	}
	return a < b
}
