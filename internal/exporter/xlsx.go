package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"engageboard/pkg/contracts/domain"
)

// DefaultSheet is the worksheet name used when none is configured
const DefaultSheet = "Dashboard"

// DailySheet holds the per-day breakdown when it is included
const DailySheet = "Daily"

// WriteXLSX writes the leaderboard as a single-sheet workbook
func WriteXLSX(w io.Writer, rows []domain.LeaderboardRow, sheet string) error {
	return WriteXLSXWithDaily(w, rows, nil, sheet)
}

// WriteXLSXWithDaily writes the leaderboard and, when daily is non-empty, a second
// sheet with the per-day breakdown
func WriteXLSXWithDaily(w io.Writer, rows []domain.LeaderboardRow, daily []domain.DailyAggregate, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeSheet(f, sheet, domain.LeaderboardColumns, leaderboardCells(rows), headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "J", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 32); err != nil {
		return err
	}

	if len(daily) > 0 {
		if _, err := f.NewSheet(DailySheet); err != nil {
			return fmt.Errorf("create daily sheet: %w", err)
		}
		if err := writeSheet(f, DailySheet, DailyColumns, dailyCells(daily), headerStyle); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}, headerStyle int) error {
	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// leaderboardCells keeps numbers numeric; missing values become empty cells
func leaderboardCells(rows []domain.LeaderboardRow) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{
			nullIntCell(r.Followers),
			r.PageKey,
			r.TotalPosts,
			r.TotalEngagement,
			r.Rank,
			r.DaysWon,
			nullFloatCell(r.PctChangePosts),
			nullFloatCell(r.PctChangeEngagement),
			nullIntCell(r.PriorDayWon),
			nullIntCell(r.PriorRank),
		})
	}
	return out
}

func dailyCells(daily []domain.DailyAggregate) [][]interface{} {
	out := make([][]interface{}, 0, len(daily))
	for _, d := range daily {
		out = append(out, []interface{}{
			d.Date.Format("2006-01-02"),
			d.PageKey,
			d.PostCount,
			d.Engagement,
			d.DayWon,
		})
	}
	return out
}

func nullIntCell(v domain.NullInt) interface{} {
	if !v.Valid {
		return ""
	}
	return v.Int64
}

func nullFloatCell(v domain.NullFloat) interface{} {
	if !v.Valid {
		return ""
	}
	return v.Float64
}
