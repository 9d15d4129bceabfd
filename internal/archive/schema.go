package archive

const schemaVersion = 1

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		pages INTEGER NOT NULL,
		posts INTEGER NOT NULL,
		total_engagement REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	`CREATE TABLE IF NOT EXISTS leaderboard_rows (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		page_key TEXT NOT NULL,
		followers INTEGER,
		total_posts INTEGER NOT NULL,
		total_engagement REAL NOT NULL,
		rank INTEGER NOT NULL,
		days_won INTEGER NOT NULL,
		pct_change_posts REAL,
		pct_change_engagement REAL,
		prior_day_won INTEGER,
		prior_rank INTEGER,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_aggregates (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		page_key TEXT NOT NULL,
		day TEXT NOT NULL,
		post_count INTEGER NOT NULL,
		engagement REAL NOT NULL,
		day_won INTEGER NOT NULL,
		PRIMARY KEY (run_id, page_key, day)
	)`,
}

const (
	insertRunSQL = `INSERT INTO runs (id, created_at, label, pages, posts, total_engagement)
		VALUES (?, ?, ?, ?, ?, ?)`
	insertRowSQL = `INSERT INTO leaderboard_rows (run_id, position, page_key, followers, total_posts,
		total_engagement, rank, days_won, pct_change_posts, pct_change_engagement, prior_day_won, prior_rank)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertDailySQL = `INSERT INTO daily_aggregates (run_id, page_key, day, post_count, engagement, day_won)
		VALUES (?, ?, ?, ?, ?, ?)`
	selectRunSQL = `SELECT id, created_at, label, pages, posts, total_engagement FROM runs WHERE id = ?`
	selectRowsSQL = `SELECT page_key, followers, total_posts, total_engagement, rank, days_won,
		pct_change_posts, pct_change_engagement, prior_day_won, prior_rank
		FROM leaderboard_rows WHERE run_id = ? ORDER BY position`
	selectDailySQL = `SELECT page_key, day, post_count, engagement, day_won
		FROM daily_aggregates WHERE run_id = ? ORDER BY day, page_key`
	listRunsSQL = `SELECT id, created_at, label, pages, posts, total_engagement
		FROM runs ORDER BY created_at DESC, id LIMIT ?`
	latestRunSQL = `SELECT id FROM runs ORDER BY created_at DESC, id LIMIT 1`
	deleteRunSQL = `DELETE FROM runs WHERE id = ?`
)
