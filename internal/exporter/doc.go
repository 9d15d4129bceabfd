// Package exporter writes leaderboards out as CSV and Excel files.
//
// Records flattens leaderboard rows in the fixed output column order with full
// precision. DisplayRecords applies the dashboard formatting used for terminal
// output (engagement in millions, rounded percentages, N/A for missing values).
//
// CSVWriter writes to any io.Writer or to a file under the reports directory, with
// an optional UTF-8 BOM so Excel detects the encoding. WriteXLSX produces a single
// "Dashboard" sheet with numeric cells.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths, true)
//	path, err := w.WriteFile("leaderboard.csv", result.Rows)
package exporter
