package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engageboard/pkg/contracts/domain"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous domain.NullFloat
		want     domain.NullFloat
	}{
		{"both zero", 0, domain.NewNullFloat(0), domain.NewNullFloat(0)},
		{"from zero", 5, domain.NewNullFloat(0), domain.NullFloat{}},
		{"no previous", 5, domain.NullFloat{}, domain.NullFloat{}},
		{"increase", 150, domain.NewNullFloat(100), domain.NewNullFloat(50)},
		{"decrease", 50, domain.NewNullFloat(100), domain.NewNullFloat(-50)},
		{"to zero", 0, domain.NewNullFloat(40), domain.NewNullFloat(-100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentChange(tt.current, tt.previous))
		})
	}
}

func TestPercentChangeKeepsPrecision(t *testing.T) {
	got := PercentChange(4, domain.NewNullFloat(3))
	require.True(t, got.Valid)
	assert.InDelta(t, 33.333333333, got.Float64, 1e-9)
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "daily news", JoinKey("  Daily   NEWS "))
	assert.Equal(t, JoinKey("Daily News"), JoinKey("daily news"))
}

func TestCompare(t *testing.T) {
	overall := []domain.PageAggregate{
		{PageKey: "A", TotalPosts: 15, TotalEngagement: 120, DaysWon: 2},
		{PageKey: "B", TotalPosts: 3, TotalEngagement: 30},
	}
	prior := []domain.PriorRecord{
		{PageKey: "a ", PostCount: domain.NewNullFloat(10), Engagement: domain.NewNullFloat(100), DayWon: domain.NewNullInt(4), Rank: domain.NewNullInt(1)},
		{PageKey: "A", PostCount: domain.NewNullFloat(99), Engagement: domain.NewNullFloat(99)},
	}

	rows := Compare(overall, prior)

	require.Len(t, rows, 2)
	a := rows[0]
	assert.Equal(t, "A", a.PageKey)
	assert.Equal(t, domain.NewNullFloat(50), a.PctChangePosts)
	assert.Equal(t, domain.NewNullFloat(20), a.PctChangeEngagement)
	assert.Equal(t, domain.NewNullInt(4), a.PriorDayWon)
	assert.Equal(t, domain.NewNullInt(1), a.PriorRank)
	assert.Equal(t, 2, a.DaysWon)

	b := rows[1]
	assert.False(t, b.PctChangePosts.Valid)
	assert.False(t, b.PctChangeEngagement.Valid)
	assert.False(t, b.PriorDayWon.Valid)
	assert.False(t, b.PriorRank.Valid)
}

func TestMergeFollowers(t *testing.T) {
	rows := []domain.LeaderboardRow{{PageKey: "A"}, {PageKey: "C"}}
	followers := []domain.FollowerRecord{
		{PageKey: "A", FollowerCount: 1200},
		{PageKey: "A", FollowerCount: 5},
		{PageKey: "B", FollowerCount: 7},
	}

	merged := MergeFollowers(rows, followers)

	require.Len(t, merged, 2)
	assert.Equal(t, domain.NewNullInt(1200), merged[0].Followers)
	assert.False(t, merged[1].Followers.Valid)
	assert.False(t, rows[0].Followers.Valid, "input must not be modified")
}

func TestRank(t *testing.T) {
	rows := []domain.LeaderboardRow{
		{PageKey: "C", TotalEngagement: 10},
		{PageKey: "B", TotalEngagement: 50},
		{PageKey: "A", TotalEngagement: 10},
		{PageKey: "D", TotalEngagement: 0},
	}

	ranked := Rank(rows)

	pages := make([]string, len(ranked))
	for i, r := range ranked {
		pages[i] = r.PageKey
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].TotalEngagement, r.TotalEngagement)
		}
	}
	assert.Equal(t, []string{"B", "A", "C", "D"}, pages)
	assert.Equal(t, 0, rows[0].Rank, "input must not be modified")
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}
