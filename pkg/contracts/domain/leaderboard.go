package domain

import "time"

// PostRecord is one row of the performance table after coercion
type PostRecord struct {
	PageKey    string    `json:"page_key" validate:"required"`
	PostID     string    `json:"post_id,omitempty"`
	Date       time.Time `json:"date"`
	HasDate    bool      `json:"has_date"`
	Likes      float64   `json:"likes" validate:"min=0"`
	Comments   float64   `json:"comments" validate:"min=0"`
	Shares     float64   `json:"shares" validate:"min=0"`
	Engagement float64   `json:"engagement"`
	Row        int       `json:"row"` // 1-based data row in the source table
}

// DailyAggregate is the engagement of one page on one calendar day
type DailyAggregate struct {
	PageKey    string    `json:"page_key" db:"page_key"`
	Date       time.Time `json:"date" db:"date"`
	PostCount  int       `json:"post_count" db:"post_count"`
	Engagement float64   `json:"engagement" db:"engagement"`
	DayWon     int       `json:"day_won" db:"day_won"` // 1 when this page won the day
}

// PageAggregate is the whole-period rollup for one page
type PageAggregate struct {
	PageKey         string  `json:"page_key"`
	TotalPosts      int     `json:"total_posts"`
	TotalEngagement float64 `json:"total_engagement"`
	DaysWon         int     `json:"days_won"`
}

// PriorRecord carries the previous period's metrics for one page
type PriorRecord struct {
	PageKey    string    `json:"page_key" validate:"required"`
	PostCount  NullFloat `json:"post_count"`
	Engagement NullFloat `json:"engagement"`
	DayWon     NullInt   `json:"day_won"`
	Rank       NullInt   `json:"rank"`
	Row        int       `json:"row"`
}

// FollowerRecord is the follower count of one page
type FollowerRecord struct {
	PageKey       string `json:"page_key" validate:"required"`
	FollowerCount int64  `json:"follower_count" validate:"min=0"`
	Row           int    `json:"row"`
}

// LeaderboardRow is one line of the final ranked output
type LeaderboardRow struct {
	Followers           NullInt   `json:"followers" db:"followers"`
	PageKey             string    `json:"page_key" db:"page_key"`
	TotalPosts          int       `json:"total_posts" db:"total_posts"`
	TotalEngagement     float64   `json:"total_engagement" db:"total_engagement"`
	Rank                int       `json:"rank" db:"rank"`
	DaysWon             int       `json:"days_won" db:"days_won"`
	PctChangePosts      NullFloat `json:"pct_change_posts" db:"pct_change_posts"`
	PctChangeEngagement NullFloat `json:"pct_change_engagement" db:"pct_change_engagement"`
	PriorDayWon         NullInt   `json:"prior_day_won" db:"prior_day_won"`
	PriorRank           NullInt   `json:"prior_rank" db:"prior_rank"`
}

// Leaderboard output column headers, in output order
const (
	ColumnFollower            = "Follower"
	ColumnPage                = "Page/Profile/Channel"
	ColumnPost                = "Post"
	ColumnEngagement          = "Engagement"
	ColumnRank                = "Rank"
	ColumnDayWon              = "Day Won"
	ColumnPctChangePost       = "% Change in Post"
	ColumnPctChangeEngagement = "% Change in Engagement"
	ColumnPriorDayWon         = "Last Fortnight Day Won"
	ColumnPriorRank           = "Last Fortnight Rank"
)

// LeaderboardColumns is the fixed header row of the leaderboard
var LeaderboardColumns = []string{
	ColumnFollower,
	ColumnPage,
	ColumnPost,
	ColumnEngagement,
	ColumnRank,
	ColumnDayWon,
	ColumnPctChangePost,
	ColumnPctChangeEngagement,
	ColumnPriorDayWon,
	ColumnPriorRank,
}
