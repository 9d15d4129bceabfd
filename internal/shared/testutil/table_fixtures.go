package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// PerformanceRows is a small performance export used across packages. Pages A and B
// tie on 2024-05-01; C posts alone on 2024-05-02.
var PerformanceRows = [][]string{
	{"Page Name", "Post", "Post Date", "Likes", "Comments", "Shares"},
	{"A", "p1", "2024-05-01", "10", "1", "1"},
	{"A", "p2", "2024-05-01", "5", "0", "0"},
	{"B", "p3", "2024-05-01", "0", "10", "0"},
	{"C", "p4", "2024-05-02", "1,000", "0", "2"},
}

// PreviousRows is a prior-period export matching PerformanceRows
var PreviousRows = [][]string{
	{"Page/Profile/Channel", "Post", "Engagement", "Day Won", "Rank"},
	{"A", "1", "10", "3", "2"},
	{"B", "4", "40", "0", "1"},
}

// FollowerRows is a follower export that leaves page C unmatched
var FollowerRows = [][]string{
	{"Page", "Followers"},
	{"A", "1,500"},
	{"B", "900"},
}

// WriteWorkbook saves rows to dir/name as a single-sheet xlsx and returns the path
func WriteWorkbook(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteCSVFile saves rows to dir/name as csv and returns the path
func WriteCSVFile(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	require.NoError(t, w.WriteAll(rows))
	return path
}
