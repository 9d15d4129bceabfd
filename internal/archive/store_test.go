package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "engageboard/internal/errors"
	"engageboard/internal/shared/testutil"
	"engageboard/pkg/contracts/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "archive.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(id string, created time.Time) *Run {
	return &Run{
		ID:        id,
		CreatedAt: created,
		Label:     "May 1-14",
		Posts:     4,
		Rows: []domain.LeaderboardRow{
			{
				Followers:           domain.NewNullInt(1500),
				PageKey:             "A",
				TotalPosts:          2,
				TotalEngagement:     18.5,
				Rank:                1,
				DaysWon:             1,
				PctChangePosts:      domain.NewNullFloat(100),
				PctChangeEngagement: domain.NewNullFloat(-7.5),
				PriorDayWon:         domain.NewNullInt(3),
				PriorRank:           domain.NewNullInt(2),
			},
			{PageKey: "C", TotalPosts: 1, TotalEngagement: 10, Rank: 2},
		},
		Daily: []domain.DailyAggregate{
			{PageKey: "A", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), PostCount: 2, Engagement: 18.5, DayWon: 1},
			{PageKey: "C", Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), PostCount: 1, Engagement: 10, DayWon: 1},
		},
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	ctx := context.Background()

	s, err := Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleRun("r1", time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC)
	want := sampleRun("r1", created)

	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "May 1-14", got.Label)
	assert.Equal(t, 4, got.Posts)
	assert.Equal(t, want.Rows, got.Rows)
	assert.Equal(t, want.Daily, got.Daily)
}

func TestSave_DuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleRun("r1", time.Now())))
	err := s.Save(ctx, sampleRun("r1", time.Now()))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestSave_RequiresID(t *testing.T) {
	s := openTestStore(t)
	err := s.Save(context.Background(), &Run{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestListAndLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Latest(ctx)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	require.NoError(t, s.Save(ctx, sampleRun("old", base)))
	require.NoError(t, s.Save(ctx, sampleRun("new", base.Add(500*time.Millisecond))))
	require.NoError(t, s.Save(ctx, sampleRun("mid", base.Add(time.Millisecond))))

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Equal(t, 2, runs[0].Pages)
	assert.InDelta(t, 28.5, runs[0].TotalEngagement, 1e-9)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.ID)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleRun("r1", time.Now())))

	require.NoError(t, s.Delete(ctx, "r1"))
	_, err := s.Get(ctx, "r1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	err = s.Delete(ctx, "r1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestPriorTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleRun("r1", time.Now())))

	table, err := s.PriorTable(ctx, "r1")
	require.NoError(t, err)

	assert.Equal(t, []string{"Page/Profile/Channel", "Post", "Engagement", "Day Won", "Rank"}, table.Columns)
	assert.Equal(t, [][]string{
		{"A", "2", "18.5", "1", "1"},
		{"C", "1", "10", "0", "2"},
	}, table.Rows)
}
