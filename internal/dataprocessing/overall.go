package dataprocessing

import (
	"sort"

	"engageboard/pkg/contracts/domain"
)

// AggregateOverall rolls every post up per page. Posts count toward totals whether
// or not their date parsed; days won come from the daily aggregates. Pages are
// grouped by JoinKey, keep the first spelling seen and are returned in page key order.
func AggregateOverall(posts []domain.PostRecord, daily []domain.DailyAggregate) []domain.PageAggregate {
	names := pageNames(posts)
	byPage := make(map[string]*domain.PageAggregate)
	get := func(page string) *domain.PageAggregate {
		key := JoinKey(page)
		agg, ok := byPage[key]
		if !ok {
			name, seen := names[key]
			if !seen {
				name = page
			}
			agg = &domain.PageAggregate{PageKey: name}
			byPage[key] = agg
		}
		return agg
	}

	for _, p := range posts {
		agg := get(p.PageKey)
		agg.TotalPosts++
		agg.TotalEngagement += p.Engagement
	}
	for _, d := range daily {
		if d.DayWon == 0 {
			continue
		}
		get(d.PageKey).DaysWon += d.DayWon
	}

	overall := make([]domain.PageAggregate, 0, len(byPage))
	for _, agg := range byPage {
		overall = append(overall, *agg)
	}
	sort.Slice(overall, func(i, j int) bool {
		return pageLess(overall[i].PageKey, overall[j].PageKey)
	})
	return overall
}
