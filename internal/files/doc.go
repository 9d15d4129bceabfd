// Package files reads spreadsheet exports into in-memory tables.
//
// Reader: turns an .xlsx workbook or a .csv file into a domain.Table. Workbook
// merged ranges are filled with their top-left value, blank rows are dropped and
// the first non-empty row becomes the header.
//
// Discovery: finds spreadsheets in a directory and picks the input that best
// matches each table kind by file name.
//
// Example usage:
//
//	table, err := files.LoadFile("exports/performance.xlsx")
//	if err != nil {
//	    return err
//	}
//	sample := files.Preview(table, 5)
package files
