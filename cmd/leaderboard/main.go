package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v2"

	"engageboard/internal/archive"
	"engageboard/internal/config"
	"engageboard/internal/exporter"
	"engageboard/internal/files"
	"engageboard/internal/infrastructure"
	"engageboard/internal/services"
	"engageboard/internal/validation"
	"engageboard/pkg/contracts"
	"engageboard/pkg/contracts/domain"
)

// options holds the parsed command line
type options struct {
	performance string
	previous    string
	followers   string
	dir         string
	mapping     string
	out         string
	label       string
	prior       string
	top         int
	archive     bool
	verbose     bool
	version     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.performance, "performance", "", "performance export (.xlsx or .csv)")
	fs.StringVar(&opts.previous, "previous", "", "previous period leaderboard (.xlsx or .csv)")
	fs.StringVar(&opts.followers, "followers", "", "follower counts (.xlsx or .csv)")
	fs.StringVar(&opts.dir, "dir", "", "directory to pick inputs from by file name when not given explicitly")
	fs.StringVar(&opts.mapping, "mapping", "", "YAML file of column overrides per table kind")
	fs.StringVar(&opts.out, "out", "", "write the leaderboard to this .csv or .xlsx file (relative names go to the reports directory)")
	fs.StringVar(&opts.label, "label", "", "label stored with the run")
	fs.StringVar(&opts.prior, "prior", "", "archived run id (or \"latest\") to use as the previous period")
	fs.IntVar(&opts.top, "top", 0, "print only the first N rows (0 prints all)")
	fs.BoolVar(&opts.archive, "archive", false, "store the run in the sqlite archive")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.top < 0 {
		return nil, fmt.Errorf("-top must not be negative")
	}
	if opts.prior != "" && !opts.archive {
		return nil, fmt.Errorf("-prior needs -archive")
	}
	if opts.prior != "" && opts.previous != "" {
		return nil, fmt.Errorf("-prior and -previous are mutually exclusive")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v, using defaults\n", err)
		cfg = config.Default()
	}
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := infrastructure.NewJSONLogger(stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(logger)

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return err
	}

	if opts.dir != "" {
		if err := discoverInputs(opts, paths.BaseDir, logger); err != nil {
			return err
		}
	}
	if opts.performance == "" {
		return fmt.Errorf("-performance is required (or a -dir containing a performance export)")
	}

	validator := validation.NewFileValidator(logger)
	for _, input := range []string{opts.performance, opts.previous, opts.followers} {
		if input == "" {
			continue
		}
		if err := validator.ValidateSpreadsheet(input); err != nil {
			return err
		}
	}
	if opts.mapping != "" {
		if err := validator.ValidateFile(opts.mapping); err != nil {
			return err
		}
	}
	var outTarget string
	if opts.out != "" {
		outTarget = opts.out
		if !filepath.IsAbs(outTarget) {
			outTarget = paths.ReportPath(outTarget)
		}
		if err := validator.ValidateOutputFile(outTarget, ".csv", ".xlsx"); err != nil {
			return err
		}
	}

	overrides, err := loadMapping(opts.mapping)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, opts.archive, paths.ArchiveFile, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	service := services.NewLeaderboardService(store, logger,
		services.WithExport(cfg.Export.BOM, cfg.Export.SheetName))

	req := services.GenerateRequest{
		PriorRunID: opts.prior,
		Mappings:   overrides,
		Label:      opts.label,
	}
	if req.Performance, err = loadSource(opts.performance); err != nil {
		return err
	}
	if opts.previous != "" {
		src, err := loadSource(opts.previous)
		if err != nil {
			return err
		}
		req.Previous = &src
	}
	if opts.followers != "" {
		src, err := loadSource(opts.followers)
		if err != nil {
			return err
		}
		req.Followers = &src
	}

	result, err := service.Generate(ctx, req)
	if err != nil {
		return err
	}

	printLeaderboard(stdout, result, opts.top)

	if outTarget != "" {
		written, err := writeOutput(ctx, service, result, paths, cfg.Export.BOM, outTarget)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\nWrote %s\n", written)
	}
	if opts.archive {
		fmt.Fprintf(stdout, "Archived as %s\n", result.ID)
	}
	return nil
}

// discoverInputs fills the input flags left empty from the newest matching files in opts.dir
func discoverInputs(opts *options, baseDir string, logger *slog.Logger) error {
	found, err := files.NewDiscovery(baseDir).FindSpreadsheets(opts.dir)
	if err != nil {
		return err
	}
	matched := files.MatchInputs(found)

	fill := func(target *string, kind domain.TableKind) {
		if *target != "" {
			return
		}
		if f, ok := matched[kind]; ok {
			*target = f.Path
			logger.Info("input discovered", slog.String("kind", string(kind)), slog.String("path", f.Path))
		}
	}
	fill(&opts.performance, domain.TablePerformance)
	if opts.prior == "" {
		fill(&opts.previous, domain.TablePrevious)
	}
	fill(&opts.followers, domain.TableFollowers)
	return nil
}

// loadMapping reads overrides shaped like
//
//	performance:
//	  page_key: Profile
//	followers:
//	  follower_count: Fans
func loadMapping(path string) (map[domain.TableKind]domain.Mapping, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", filepath.Base(path), err)
	}

	out := make(map[domain.TableKind]domain.Mapping, len(raw))
	for kind, fields := range raw {
		tk := domain.TableKind(strings.ToLower(kind))
		if !tk.IsValid() {
			return nil, fmt.Errorf("mapping file: unknown table kind %q", kind)
		}
		m := make(domain.Mapping, len(fields))
		for field, column := range fields {
			f := domain.Field(strings.ToLower(field))
			if !f.IsValid() {
				return nil, fmt.Errorf("mapping file: unknown field %q for %s", field, tk)
			}
			m[f] = column
		}
		out[tk] = m
	}
	return out, nil
}

func openStore(ctx context.Context, persistent bool, path string, logger *slog.Logger) (services.RunStore, func(), error) {
	if !persistent {
		mem := archive.NewMemoryStore(1)
		return mem, func() { mem.Close() }, nil
	}
	store, err := archive.Open(ctx, path, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func loadSource(path string) (services.Source, error) {
	table, err := files.LoadFile(path)
	if err != nil {
		return services.Source{}, err
	}
	return services.Source{Name: filepath.Base(path), Table: table}, nil
}

func printLeaderboard(w io.Writer, result *services.Run, top int) {
	rows := result.Result.Rows
	if top > 0 && top < len(rows) {
		rows = rows[:top]
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(domain.LeaderboardColumns)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(exporter.DisplayRecords(rows))
	table.Render()

	s := result.Summary
	fmt.Fprintf(w, "\nPages: %d  Posts: %d  Total engagement: %s  Average per page: %s\n",
		s.TotalPages, s.TotalPosts,
		exporter.FormatEngagement(s.TotalEngagement),
		exporter.FormatEngagement(s.AverageEngagement))

	d := result.Result.Diagnostics
	if d.SkippedRows > 0 || d.UndatedPosts > 0 {
		fmt.Fprintf(w, "Skipped rows: %d  Undated posts: %d\n", d.SkippedRows, d.UndatedPosts)
	}
	if d.UnmatchedPrior > 0 || d.UnmatchedFollows > 0 {
		fmt.Fprintf(w, "Pages without prior data: %d  without followers: %d\n", d.UnmatchedPrior, d.UnmatchedFollows)
	}
	for kind, missing := range d.Missing {
		fmt.Fprintf(w, "%s table ignored, missing: %v\n", kind, missing)
	}
}

// writeOutput writes result to target, whose extension was validated up front
func writeOutput(ctx context.Context, service *services.LeaderboardService, result *services.Run, paths *config.Paths, bom bool, target string) (string, error) {
	if strings.ToLower(filepath.Ext(target)) == ".csv" {
		return exporter.NewCSVWriter(paths, bom).WriteFile(target, result.Result.Rows)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}
	if err := service.Export(ctx, result, services.FormatXLSX, f); err != nil {
		f.Close()
		return "", err
	}
	return target, f.Close()
}
