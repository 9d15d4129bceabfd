package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds absolute, resolved locations for everything the application writes
type Paths struct {
	BaseDir     string
	DataDir     string
	ReportsDir  string
	LogsDir     string
	ArchiveFile string
}

// ResolvePaths turns the configured paths into absolute ones
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base dir: %w", err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:     base,
		DataDir:     resolve(c.Paths.DataDir),
		ReportsDir:  resolve(c.Paths.ReportsDir),
		LogsDir:     resolve(c.Paths.LogsDir),
		ArchiveFile: resolve(c.Archive.Path),
	}, nil
}

// EnsureDirectories creates every directory the application writes into
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.ReportsDir, p.LogsDir}
	if p.ArchiveFile != "" {
		dirs = append(dirs, filepath.Dir(p.ArchiveFile))
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ReportPath returns the absolute path of a report file
func (p *Paths) ReportPath(name string) string {
	return filepath.Join(p.ReportsDir, filepath.Base(name))
}
