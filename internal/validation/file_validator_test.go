package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engageboard/internal/shared/testutil"
)

func TestFileValidator_ValidateSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("Page\nA\n"), 0644))
		return path
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.csv"), 0755))

	tests := []struct {
		name          string
		path          string
		errorContains string
	}{
		{"csv", write("posts.csv"), ""},
		{"xlsx", write("posts.xlsx"), ""},
		{"lock file", write("~$posts.xlsx"), "lock file"},
		{"legacy xls", write("posts.xls"), "legacy .xls"},
		{"not a spreadsheet", write("notes.pdf"), "not a spreadsheet"},
		{"missing", filepath.Join(dir, "missing.csv"), "does not exist"},
		{"directory", filepath.Join(dir, "folder.csv"), "is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewFileValidator(logger).ValidateSpreadsheet(tt.path)
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestFileValidator_ValidateOutputFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	target := filepath.Join(dir, "nested", "board.xlsx")
	require.NoError(t, v.ValidateOutputFile(target, ".csv", ".xlsx"))
	assert.DirExists(t, filepath.Dir(target))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(target), ".write_test"))

	err := v.ValidateOutputFile(filepath.Join(dir, "board.pdf"), ".csv", ".xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".csv or .xlsx")

	assert.NoError(t, v.ValidateOutputFile(filepath.Join(dir, "anything.bin")))
}

func TestFileValidator_ValidateOutputDirectory_NotWritable(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can write anywhere")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0555))

	err := NewFileValidator(nil).ValidateOutputDirectory(locked)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not writable")
}
