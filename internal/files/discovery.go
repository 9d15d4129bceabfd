package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"engageboard/pkg/contracts/domain"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Type    FileType
}

// Discovery finds spreadsheet inputs below a base directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// kindHints are file-name fragments that identify each table kind
var kindHints = map[domain.TableKind][]string{
	domain.TablePerformance: {"performance", "posts", "current"},
	domain.TablePrevious:    {"previous", "prior", "last", "fortnight"},
	domain.TableFollowers:   {"follower", "fans", "audience"},
}

// FindSpreadsheets lists readable spreadsheets in dir, oldest first
func (d *Discovery) FindSpreadsheets(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var found []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		ft := DetectFileType(entry.Name())
		if ft != FileTypeXLSX && ft != FileTypeCSV {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Type:    ft,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].ModTime.Equal(found[j].ModTime) {
			return found[i].Name < found[j].Name
		}
		return found[i].ModTime.Before(found[j].ModTime)
	})
	return found, nil
}

// MatchInputs assigns the newest file whose name hints at each table kind.
// A file is assigned to at most one kind, checked in performance, previous, followers order.
func MatchInputs(found []FileInfo) map[domain.TableKind]FileInfo {
	matched := make(map[domain.TableKind]FileInfo)
	used := make(map[string]bool)

	for _, kind := range domain.TableKinds {
		var candidates []FileInfo
		for _, f := range found {
			if used[f.Path] {
				continue
			}
			lower := strings.ToLower(f.Name)
			for _, hint := range kindHints[kind] {
				if strings.Contains(lower, hint) {
					candidates = append(candidates, f)
					break
				}
			}
		}
		if latest, ok := GetLatestFile(candidates); ok {
			matched[kind] = latest
			used[latest.Path] = true
		}
	}
	return matched
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}
