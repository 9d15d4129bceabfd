package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"engageboard/pkg/contracts/domain"
)

// Input is everything a single leaderboard run needs. Previous and Followers are
// optional; a nil table means the input was not supplied.
type Input struct {
	Performance        *domain.Table
	PerformanceMapping domain.Mapping
	Previous           *domain.Table
	PreviousMapping    domain.Mapping
	Followers          *domain.Table
	FollowersMapping   domain.Mapping

	// Logger receives debug output; nil disables logging
	Logger *slog.Logger
}

// IssueKind classifies a recoverable row problem
type IssueKind string

const (
	IssueBlankPage    IssueKind = "blank_page"
	IssueBadNumber    IssueKind = "bad_number"
	IssueNegative     IssueKind = "negative_count"
	IssueBadDate      IssueKind = "bad_date"
	IssueDuplicateKey IssueKind = "duplicate_key"
)

// RowIssue records one recoverable problem with a source cell
type RowIssue struct {
	Table domain.TableKind `json:"table"`
	Row   int              `json:"row"`
	Field domain.Field     `json:"field"`
	Raw   string           `json:"raw"`
	Kind  IssueKind        `json:"kind"`
}

// Diagnostics describes everything that was skipped, defaulted or unmatched
type Diagnostics struct {
	Missing map[domain.TableKind][]domain.Field `json:"missing,omitempty"`
	Issues  []RowIssue                          `json:"issues,omitempty"`

	// PostRecords counts the performance rows that became posts. The leaderboard's
	// total posts always sum to this value; rows with a blank page key are left out
	// of it and counted in SkippedRows instead.
	PostRecords      int `json:"post_records"`
	UndatedPosts     int `json:"undated_posts"`
	SkippedRows      int `json:"skipped_rows"`
	NumericFallbacks int `json:"numeric_fallbacks"`
	UnmatchedPrior   int `json:"unmatched_prior"`
	UnmatchedFollows int `json:"unmatched_followers"`
}

func (d *Diagnostics) addIssue(table domain.TableKind, row int, field domain.Field, raw string, kind IssueKind) {
	d.Issues = append(d.Issues, RowIssue{Table: table, Row: row, Field: field, Raw: raw, Kind: kind})
}

// Result is the output of one run
type Result struct {
	Rows        []domain.LeaderboardRow `json:"rows"`
	Daily       []domain.DailyAggregate `json:"daily"`
	Diagnostics Diagnostics             `json:"diagnostics"`
}

// BuildLeaderboard runs the whole pipeline. When performance fields are unresolved
// it returns a *SchemaError together with a Result that carries only diagnostics.
// Unusable prior or follower tables are reported in Diagnostics and treated as absent.
func BuildLeaderboard(in Input) (*Result, error) {
	log := in.Logger
	if log == nil {
		log = slog.New(discardHandler{})
	}

	result := &Result{Diagnostics: Diagnostics{Missing: make(map[domain.TableKind][]domain.Field)}}
	diag := &result.Diagnostics

	if missing := Validate(in.Performance, in.PerformanceMapping, domain.TablePerformance.RequiredFields()); len(missing) > 0 {
		diag.Missing[domain.TablePerformance] = missing
		return result, &SchemaError{Table: domain.TablePerformance, Missing: missing}
	}

	posts := readPosts(in.Performance, in.PerformanceMapping, diag)
	log.Debug("posts read", "records", len(posts), "undated", diag.UndatedPosts, "skipped", diag.SkippedRows)

	var prior []domain.PriorRecord
	if in.Previous != nil {
		if missing := Validate(in.Previous, in.PreviousMapping, domain.TablePrevious.RequiredFields()); len(missing) > 0 {
			diag.Missing[domain.TablePrevious] = missing
			log.Debug("previous table ignored", "missing", missing)
		} else {
			prior = readPrior(in.Previous, in.PreviousMapping, diag)
		}
	}

	var followers []domain.FollowerRecord
	if in.Followers != nil {
		if missing := Validate(in.Followers, in.FollowersMapping, domain.TableFollowers.RequiredFields()); len(missing) > 0 {
			diag.Missing[domain.TableFollowers] = missing
			log.Debug("followers table ignored", "missing", missing)
		} else {
			followers = readFollowers(in.Followers, in.FollowersMapping, diag)
		}
	}

	daily := AggregateDaily(posts)
	overall := AggregateOverall(posts, daily)
	rows := Compare(overall, prior)
	rows = MergeFollowers(rows, followers)
	rows = Rank(rows)

	priorKeys := make(map[string]bool, len(prior))
	for _, p := range prior {
		priorKeys[JoinKey(p.PageKey)] = true
	}
	followerKeys := make(map[string]bool, len(followers))
	for _, f := range followers {
		followerKeys[JoinKey(f.PageKey)] = true
	}
	for _, row := range rows {
		key := JoinKey(row.PageKey)
		if len(prior) > 0 && !priorKeys[key] {
			diag.UnmatchedPrior++
		}
		if len(followers) > 0 && !followerKeys[key] {
			diag.UnmatchedFollows++
		}
	}

	log.Debug("leaderboard built", "pages", len(rows), "days", countDays(daily))

	result.Rows = rows
	result.Daily = daily
	return result, nil
}

func readPosts(table *domain.Table, mapping domain.Mapping, diag *Diagnostics) []domain.PostRecord {
	cols := columnIndexes(table, mapping)
	cell := func(row int, f domain.Field) string {
		i, ok := cols[f]
		if !ok {
			return ""
		}
		return table.Cell(row, i)
	}

	posts := make([]domain.PostRecord, 0, table.Len())
	for r := 0; r < table.Len(); r++ {
		if table.IsBlankRow(r) {
			continue
		}
		rowNum := r + 1
		page := strings.TrimSpace(cell(r, domain.FieldPageKey))
		if page == "" {
			diag.SkippedRows++
			diag.addIssue(domain.TablePerformance, rowNum, domain.FieldPageKey, cell(r, domain.FieldPageKey), IssueBlankPage)
			continue
		}

		rec := domain.PostRecord{
			PageKey: page,
			PostID:  strings.TrimSpace(cell(r, domain.FieldPostID)),
			Row:     rowNum,
		}
		rec.Likes = countCell(domain.TablePerformance, rowNum, domain.FieldLikes, cell(r, domain.FieldLikes), diag)
		rec.Comments = countCell(domain.TablePerformance, rowNum, domain.FieldComments, cell(r, domain.FieldComments), diag)
		rec.Shares = countCell(domain.TablePerformance, rowNum, domain.FieldShares, cell(r, domain.FieldShares), diag)
		rec.Engagement = Engagement(rec.Likes, rec.Comments, rec.Shares)

		rawDate := cell(r, domain.FieldPostDate)
		if day, ok := CoerceDate(rawDate); ok {
			rec.Date = day
			rec.HasDate = true
		} else {
			diag.UndatedPosts++
			diag.addIssue(domain.TablePerformance, rowNum, domain.FieldPostDate, rawDate, IssueBadDate)
		}

		posts = append(posts, rec)
	}
	diag.PostRecords = len(posts)
	return posts
}

// countCell coerces a count, recording blank-as-zero only for non-blank junk
func countCell(table domain.TableKind, row int, field domain.Field, raw string, diag *Diagnostics) float64 {
	v, ok := parseNumeric(raw)
	if !ok {
		if strings.TrimSpace(raw) != "" {
			diag.NumericFallbacks++
			diag.addIssue(table, row, field, raw, IssueBadNumber)
		}
		return 0
	}
	if v < 0 {
		diag.addIssue(table, row, field, raw, IssueNegative)
		return 0
	}
	return v
}

func readPrior(table *domain.Table, mapping domain.Mapping, diag *Diagnostics) []domain.PriorRecord {
	cols := columnIndexes(table, mapping)
	cell := func(row int, f domain.Field) string {
		i, ok := cols[f]
		if !ok {
			return ""
		}
		return table.Cell(row, i)
	}

	seen := make(map[string]bool, table.Len())
	prior := make([]domain.PriorRecord, 0, table.Len())
	for r := 0; r < table.Len(); r++ {
		if table.IsBlankRow(r) {
			continue
		}
		rowNum := r + 1
		page := strings.TrimSpace(cell(r, domain.FieldPageKey))
		if page == "" {
			diag.addIssue(domain.TablePrevious, rowNum, domain.FieldPageKey, "", IssueBlankPage)
			continue
		}
		key := JoinKey(page)
		if seen[key] {
			diag.addIssue(domain.TablePrevious, rowNum, domain.FieldPageKey, page, IssueDuplicateKey)
			continue
		}
		seen[key] = true

		prior = append(prior, domain.PriorRecord{
			PageKey:    page,
			PostCount:  nullFloatCell(domain.TablePrevious, rowNum, domain.FieldPriorPostCount, cell(r, domain.FieldPriorPostCount), diag),
			Engagement: nullFloatCell(domain.TablePrevious, rowNum, domain.FieldPriorEngage, cell(r, domain.FieldPriorEngage), diag),
			DayWon:     nullIntCell(domain.TablePrevious, rowNum, domain.FieldPriorDayWon, cell(r, domain.FieldPriorDayWon), diag),
			Rank:       nullIntCell(domain.TablePrevious, rowNum, domain.FieldPriorRank, cell(r, domain.FieldPriorRank), diag),
			Row:        rowNum,
		})
	}
	return prior
}

func nullFloatCell(table domain.TableKind, row int, field domain.Field, raw string, diag *Diagnostics) domain.NullFloat {
	if strings.TrimSpace(raw) == "" {
		return domain.NullFloat{}
	}
	v, ok := parseNumeric(raw)
	if !ok {
		diag.NumericFallbacks++
		diag.addIssue(table, row, field, raw, IssueBadNumber)
		return domain.NullFloat{}
	}
	return domain.NewNullFloat(v)
}

func nullIntCell(table domain.TableKind, row int, field domain.Field, raw string, diag *Diagnostics) domain.NullInt {
	f := nullFloatCell(table, row, field, raw, diag)
	if !f.Valid {
		return domain.NullInt{}
	}
	return domain.NewNullInt(int64(math.Round(f.Float64)))
}

func readFollowers(table *domain.Table, mapping domain.Mapping, diag *Diagnostics) []domain.FollowerRecord {
	cols := columnIndexes(table, mapping)
	pageCol, countCol := cols[domain.FieldPageKey], cols[domain.FieldFollowerCount]

	seen := make(map[string]bool, table.Len())
	followers := make([]domain.FollowerRecord, 0, table.Len())
	for r := 0; r < table.Len(); r++ {
		if table.IsBlankRow(r) {
			continue
		}
		rowNum := r + 1
		page := strings.TrimSpace(table.Cell(r, pageCol))
		if page == "" {
			diag.addIssue(domain.TableFollowers, rowNum, domain.FieldPageKey, "", IssueBlankPage)
			continue
		}
		key := JoinKey(page)
		if seen[key] {
			diag.addIssue(domain.TableFollowers, rowNum, domain.FieldPageKey, page, IssueDuplicateKey)
			continue
		}
		seen[key] = true

		count := countCell(domain.TableFollowers, rowNum, domain.FieldFollowerCount, table.Cell(r, countCol), diag)
		followers = append(followers, domain.FollowerRecord{
			PageKey:       page,
			FollowerCount: int64(math.Round(count)),
			Row:           rowNum,
		})
	}
	return followers
}

func countDays(daily []domain.DailyAggregate) int {
	days := 0
	for _, d := range daily {
		days += d.DayWon
	}
	return days
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
