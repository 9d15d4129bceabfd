package dataprocessing

import "engageboard/pkg/contracts/domain"

// MergeFollowers left-joins follower counts onto the rows. A page with no follower
// record gets a null count, never 0. The input slice is not modified.
func MergeFollowers(rows []domain.LeaderboardRow, followers []domain.FollowerRecord) []domain.LeaderboardRow {
	byKey := make(map[string]int64, len(followers))
	for _, f := range followers {
		key := JoinKey(f.PageKey)
		if _, dup := byKey[key]; dup {
			continue
		}
		byKey[key] = f.FollowerCount
	}

	merged := make([]domain.LeaderboardRow, len(rows))
	for i, row := range rows {
		if count, ok := byKey[JoinKey(row.PageKey)]; ok {
			row.Followers = domain.NewNullInt(count)
		} else {
			row.Followers = domain.NullInt{}
		}
		merged[i] = row
	}
	return merged
}
