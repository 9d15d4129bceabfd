package files

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "engageboard/internal/errors"
	"engageboard/pkg/contracts/domain"
)

// FileType classifies an input by extension
type FileType string

const (
	FileTypeXLSX    FileType = "xlsx"
	FileTypeCSV     FileType = "csv"
	FileTypeXLS     FileType = "xls"
	FileTypeUnknown FileType = "unknown"
)

const utf8BOM = "\ufeff"

// DetectFileType classifies a file by its extension
func DetectFileType(name string) FileType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FileTypeXLSX
	case ".csv", ".txt":
		return FileTypeCSV
	case ".xls":
		return FileTypeXLS
	default:
		return FileTypeUnknown
	}
}

// LoadFile reads a spreadsheet from disk
func LoadFile(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("open %s", filepath.Base(path)), err)
	}
	defer f.Close()

	return ReadTable(filepath.Base(path), f)
}

// ReadTable parses r according to the extension of name
func ReadTable(name string, r io.Reader) (*domain.Table, error) {
	var (
		rows [][]string
		err  error
	)

	switch DetectFileType(name) {
	case FileTypeXLSX:
		rows, err = readWorkbook(r)
	case FileTypeCSV:
		rows, err = readCSV(r)
	case FileTypeXLS:
		return nil, apperrors.NewUnsupportedError(fmt.Sprintf("%s: unsupported legacy format, save it as .xlsx or .csv", name))
	default:
		return nil, apperrors.NewUnsupportedError(fmt.Sprintf("%s: unsupported file type", name))
	}
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("read %s", name), err)
	}

	table := buildTable(name, rows)
	if len(table.Columns) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s: no header row found", name), nil)
	}
	return table, nil
}

// readWorkbook returns the raw rows of the first sheet that has any content
func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		// raw values keep date cells as serial numbers instead of locale formatting
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		if !hasContent(rows) {
			continue
		}
		if err := fillMergedCells(f, sheet, rows); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		return rows, nil
	}
	return nil, nil
}

// fillMergedCells copies the top-left value of every merged range into the rest of it
func fillMergedCells(f *excelize.File, sheet string, rows [][]string) error {
	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		return err
	}

	for _, mc := range merged {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return err
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return err
		}
		if startRow > len(rows) {
			continue
		}

		value := cellAt(rows, startRow-1, startCol-1)
		for r := startRow - 1; r < endRow && r < len(rows); r++ {
			for c := startCol - 1; c < endCol; c++ {
				for len(rows[r]) <= c {
					rows[r] = append(rows[r], "")
				}
				rows[r][c] = value
			}
		}
	}
	return nil
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comma = detectDelimiter(data)
	return cr.ReadAll()
}

// detectDelimiter picks ';' or tab when the header line uses it and has no commas
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.IndexByte(line, ',') >= 0 {
		return ','
	}
	if bytes.IndexByte(line, ';') >= 0 {
		return ';'
	}
	if bytes.IndexByte(line, '\t') >= 0 {
		return '\t'
	}
	return ','
}

// buildTable takes the first non-empty row as header and drops blank data rows.
// Blank headers become "Unnamed: N" and repeated headers get a ".1", ".2" suffix.
func buildTable(name string, rows [][]string) *domain.Table {
	table := &domain.Table{Name: name}

	start := 0
	for start < len(rows) && !rowHasContent(rows[start]) {
		start++
	}
	if start == len(rows) {
		return table
	}

	header := trimTrailingBlank(rows[start])
	table.Columns = headerNames(header)

	for _, row := range rows[start+1:] {
		if !rowHasContent(row) {
			continue
		}
		cells := make([]string, len(table.Columns))
		copy(cells, row)
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, raw := range header {
		h := strings.TrimSpace(raw)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		names[i] = h
	}
	return names
}

func trimTrailingBlank(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}

func hasContent(rows [][]string) bool {
	for _, row := range rows {
		if rowHasContent(row) {
			return true
		}
	}
	return false
}

func rowHasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

func cellAt(rows [][]string, r, c int) string {
	if r < 0 || r >= len(rows) || c < 0 || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

// Preview returns up to n data rows of the table
func Preview(table *domain.Table, n int) [][]string {
	if table == nil || n <= 0 {
		return nil
	}
	if n > len(table.Rows) {
		n = len(table.Rows)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = append([]string(nil), table.Rows[i]...)
	}
	return out
}

// ColumnSamples returns up to n non-blank sample values for every column
func ColumnSamples(table *domain.Table, n int) map[string][]string {
	samples := make(map[string][]string, len(table.Columns))
	for c, col := range table.Columns {
		values := make([]string, 0, n)
		for r := 0; r < table.Len() && len(values) < n; r++ {
			if v := table.Cell(r, c); v != "" {
				values = append(values, v)
			}
		}
		samples[col] = values
	}
	return samples
}
