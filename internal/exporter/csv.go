package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"engageboard/internal/config"
	"engageboard/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to w
func WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteLeaderboardCSV writes the leaderboard with its fixed header row
func WriteLeaderboardCSV(w io.Writer, rows []domain.LeaderboardRow, bom bool) error {
	return WriteCSV(w, WriteOptions{
		Headers:   domain.LeaderboardColumns,
		Records:   Records(rows),
		BOMPrefix: bom,
	})
}

// CSVWriter saves exports below the reports directory
type CSVWriter struct {
	paths *config.Paths
	bom   bool
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, bom bool) *CSVWriter {
	return &CSVWriter{paths: paths, bom: bom}
}

// WriteFile writes the leaderboard to name and returns the full path.
// Relative names resolve against the reports directory.
func (w *CSVWriter) WriteFile(name string, rows []domain.LeaderboardRow) (string, error) {
	fullPath := w.resolvePath(name)

	slog.Info("Writing CSV file",
		slog.String("file_path", name),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(rows)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}

	if err := WriteLeaderboardCSV(file, rows, w.bom); err != nil {
		file.Close()
		return "", err
	}
	return fullPath, file.Close()
}

// resolvePath resolves a path to the reports directory
func (w *CSVWriter) resolvePath(name string) string {
	if filepath.IsAbs(name) || w.paths == nil {
		return name
	}
	return w.paths.ReportPath(name)
}
