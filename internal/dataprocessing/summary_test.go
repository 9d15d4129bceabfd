package dataprocessing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engageboard/pkg/contracts/domain"
)

func TestSummarize(t *testing.T) {
	var rows []domain.LeaderboardRow
	for i := 0; i < 7; i++ {
		rows = append(rows, domain.LeaderboardRow{
			PageKey:         fmt.Sprintf("page-%d", i),
			TotalPosts:      i + 1,
			TotalEngagement: float64(i * 10),
			DaysWon:         7 - i,
		})
	}

	s := Summarize(Rank(rows))

	assert.Equal(t, 7, s.TotalPages)
	assert.Equal(t, 28, s.TotalPosts)
	assert.Equal(t, 210.0, s.TotalEngagement)
	assert.Equal(t, 30.0, s.AverageEngagement)

	require.Len(t, s.TopByEngagement, TopN)
	assert.Equal(t, "page-6", s.TopByEngagement[0].PageKey)
	assert.Equal(t, "page-2", s.TopByEngagement[4].PageKey)

	require.Len(t, s.TopByDaysWon, TopN)
	assert.Equal(t, "page-0", s.TopByDaysWon[0].PageKey)
	assert.Equal(t, 7, s.TopByDaysWon[0].DaysWon)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	assert.Zero(t, s.TotalPages)
	assert.Zero(t, s.AverageEngagement)
	assert.Empty(t, s.TopByEngagement)
	assert.Empty(t, s.TopByDaysWon)
}
