package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	apperrors "engageboard/internal/errors"
	"engageboard/pkg/contracts/domain"
)

const (
	dayLayout = "2006-01-02"
	// fixed width so that text order matches time order
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Run is an archived leaderboard
type Run struct {
	ID        string
	CreatedAt time.Time
	Label     string
	Posts     int
	Rows      []domain.LeaderboardRow
	Daily     []domain.DailyAggregate
}

// RunInfo is the listing view of an archived run
type RunInfo struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Label           string    `json:"label,omitempty"`
	Pages           int       `json:"pages"`
	Posts           int       `json:"posts"`
	TotalEngagement float64   `json:"total_engagement"`
}

// Store is a SQLite-backed leaderboard archive
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the archive at path and applies the schema
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, apperrors.NewConfigError("archive path is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.NewStorageError("create archive directory", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, apperrors.NewStorageError("open sqlite db", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("ping sqlite db", err)
	}

	s := &Store{db: db, logger: logger.With(slog.String("component", "archive"))}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("archive opened", slog.String("path", path))
	return s, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewStorageError("ping sqlite db", err)
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewStorageError("apply archive schema", err)
		}
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return apperrors.NewStorageError("read schema version", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
			return apperrors.NewStorageError("write schema version", err)
		}
	}
	return nil
}

// Save stores a run with its rows and daily breakdown in one transaction
func (s *Store) Save(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return apperrors.NewAppValidationError("run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	var total float64
	for _, r := range run.Rows {
		total += r.TotalEngagement
	}

	if _, err := tx.ExecContext(ctx, insertRunSQL,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Label, len(run.Rows), run.Posts, total,
	); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("insert run %s", run.ID), err)
	}

	rowStmt, err := tx.PrepareContext(ctx, insertRowSQL)
	if err != nil {
		return apperrors.NewStorageError("prepare row insert", err)
	}
	defer rowStmt.Close()

	for i, r := range run.Rows {
		if _, err := rowStmt.ExecContext(ctx,
			run.ID, i, r.PageKey, toSQLInt(r.Followers), r.TotalPosts, r.TotalEngagement, r.Rank, r.DaysWon,
			toSQLFloat(r.PctChangePosts), toSQLFloat(r.PctChangeEngagement),
			toSQLInt(r.PriorDayWon), toSQLInt(r.PriorRank),
		); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("insert row %d", i+1), err)
		}
	}

	dailyStmt, err := tx.PrepareContext(ctx, insertDailySQL)
	if err != nil {
		return apperrors.NewStorageError("prepare daily insert", err)
	}
	defer dailyStmt.Close()

	for _, d := range run.Daily {
		if _, err := dailyStmt.ExecContext(ctx,
			run.ID, d.PageKey, d.Date.Format(dayLayout), d.PostCount, d.Engagement, d.DayWon,
		); err != nil {
			return apperrors.NewStorageError("insert daily aggregate", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit run", err)
	}

	s.logger.DebugContext(ctx, "run archived",
		slog.String("run_id", run.ID),
		slog.Int("rows", len(run.Rows)),
		slog.Int("daily", len(run.Daily)))
	return nil
}

// Get loads a run by id
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	info, err := s.getInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	run := &Run{ID: info.ID, CreatedAt: info.CreatedAt, Label: info.Label, Posts: info.Posts}
	if run.Rows, err = s.loadRows(ctx, id); err != nil {
		return nil, err
	}
	if run.Daily, err = s.loadDaily(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

// Latest returns the most recently created run, or a NOT_FOUND error
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	var id string
	err := s.db.QueryRowContext(ctx, latestRunSQL).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("archived leaderboard")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("query latest run", err)
	}
	return s.Get(ctx, id)
}

// List returns up to limit runs, newest first. A limit of zero or less means 50.
func (s *Store) List(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("list runs", err)
	}
	defer rows.Close()

	infos := []RunInfo{}
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list runs", err)
	}
	return infos, nil
}

// Delete removes a run and everything stored with it
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, deleteRunSQL, id)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("delete run %s", id), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("leaderboard %s", id))
	}
	return nil
}

// PriorTable exposes an archived run as a prior-period table. Its headers are the
// leaderboard's own column names, which column resolution recognises.
func (s *Store) PriorTable(ctx context.Context, id string) (*domain.Table, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return PriorTableFromRun(run), nil
}

// PriorTableFromRun builds the prior-period table for run
func PriorTableFromRun(run *Run) *domain.Table {
	table := &domain.Table{
		Name: fmt.Sprintf("archive:%s", run.ID),
		Columns: []string{
			domain.ColumnPage,
			domain.ColumnPost,
			domain.ColumnEngagement,
			domain.ColumnDayWon,
			domain.ColumnRank,
		},
	}
	for _, r := range run.Rows {
		table.Rows = append(table.Rows, []string{
			r.PageKey,
			fmt.Sprint(r.TotalPosts),
			domain.NewNullFloat(r.TotalEngagement).String(),
			fmt.Sprint(r.DaysWon),
			fmt.Sprint(r.Rank),
		})
	}
	return table
}

func (s *Store) getInfo(ctx context.Context, id string) (*RunInfo, error) {
	info, err := scanInfo(s.db.QueryRowContext(ctx, selectRunSQL, id))
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && errors.Is(appErr.Cause, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("leaderboard %s", id))
		}
		return nil, err
	}
	return info, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (*RunInfo, error) {
	var (
		info    RunInfo
		created string
	)
	if err := row.Scan(&info.ID, &created, &info.Label, &info.Pages, &info.Posts, &info.TotalEngagement); err != nil {
		return nil, apperrors.NewStorageError("scan run", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, apperrors.NewStorageError("parse run timestamp", err)
	}
	info.CreatedAt = t
	return &info, nil
}

func (s *Store) loadRows(ctx context.Context, id string) ([]domain.LeaderboardRow, error) {
	rows, err := s.db.QueryContext(ctx, selectRowsSQL, id)
	if err != nil {
		return nil, apperrors.NewStorageError("query leaderboard rows", err)
	}
	defer rows.Close()

	out := []domain.LeaderboardRow{}
	for rows.Next() {
		var (
			r                       domain.LeaderboardRow
			followers, dayWon, rank sql.NullInt64
			pctPosts, pctEngage     sql.NullFloat64
		)
		if err := rows.Scan(&r.PageKey, &followers, &r.TotalPosts, &r.TotalEngagement, &r.Rank, &r.DaysWon,
			&pctPosts, &pctEngage, &dayWon, &rank); err != nil {
			return nil, apperrors.NewStorageError("scan leaderboard row", err)
		}
		r.Followers = fromSQLInt(followers)
		r.PctChangePosts = fromSQLFloat(pctPosts)
		r.PctChangeEngagement = fromSQLFloat(pctEngage)
		r.PriorDayWon = fromSQLInt(dayWon)
		r.PriorRank = fromSQLInt(rank)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("read leaderboard rows", err)
	}
	return out, nil
}

func (s *Store) loadDaily(ctx context.Context, id string) ([]domain.DailyAggregate, error) {
	rows, err := s.db.QueryContext(ctx, selectDailySQL, id)
	if err != nil {
		return nil, apperrors.NewStorageError("query daily aggregates", err)
	}
	defer rows.Close()

	out := []domain.DailyAggregate{}
	for rows.Next() {
		var (
			d   domain.DailyAggregate
			day string
		)
		if err := rows.Scan(&d.PageKey, &day, &d.PostCount, &d.Engagement, &d.DayWon); err != nil {
			return nil, apperrors.NewStorageError("scan daily aggregate", err)
		}
		if d.Date, err = time.Parse(dayLayout, day); err != nil {
			return nil, apperrors.NewStorageError("parse daily aggregate date", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("read daily aggregates", err)
	}
	return out, nil
}

func toSQLInt(v domain.NullInt) sql.NullInt64 {
	return sql.NullInt64{Int64: v.Int64, Valid: v.Valid}
}

func toSQLFloat(v domain.NullFloat) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Float64, Valid: v.Valid}
}

func fromSQLInt(v sql.NullInt64) domain.NullInt {
	return domain.NullInt{Int64: v.Int64, Valid: v.Valid}
}

func fromSQLFloat(v sql.NullFloat64) domain.NullFloat {
	return domain.NullFloat{Float64: v.Float64, Valid: v.Valid}
}
