package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"engageboard/internal/archive"
	"engageboard/internal/dataprocessing"
	apperrors "engageboard/internal/errors"
	"engageboard/internal/exporter"
	"engageboard/internal/files"
	"engageboard/internal/infrastructure"
	"engageboard/pkg/contracts/domain"
)

// LatestRun selects the newest archived run as the prior period
const LatestRun = "latest"

// PreviewRows is how many rows Detect returns
const PreviewRows = 5

// RunStore persists generated leaderboards
type RunStore interface {
	Save(ctx context.Context, run *archive.Run) error
	Get(ctx context.Context, id string) (*archive.Run, error)
	Latest(ctx context.Context) (*archive.Run, error)
	List(ctx context.Context, limit int) ([]archive.RunInfo, error)
	PriorTable(ctx context.Context, id string) (*domain.Table, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Source is one input table, either already parsed or still to be read
type Source struct {
	Name   string
	Reader io.Reader
	Table  *domain.Table
}

// GenerateRequest describes one leaderboard run. Mappings override the
// auto-detected column for each field they name; an empty column clears it.
type GenerateRequest struct {
	Performance Source
	Previous    *Source
	Followers   *Source
	// PriorRunID uses an archived run as the previous table when Previous is nil.
	// LatestRun picks the newest one.
	PriorRunID string
	Mappings   map[domain.TableKind]domain.Mapping
	Label      string
}

// Run is a generated leaderboard
type Run struct {
	ID        string                              `json:"id"`
	CreatedAt time.Time                           `json:"created_at"`
	Label     string                              `json:"label,omitempty"`
	Mappings  map[domain.TableKind]domain.Mapping `json:"mappings,omitempty"`
	Result    *dataprocessing.Result              `json:"result"`
	Summary   dataprocessing.Summary              `json:"summary"`
}

// Detection is the proposed column mapping for an uploaded table
type Detection struct {
	Kind     domain.TableKind    `json:"kind"`
	Table    string              `json:"table"`
	Columns  []string            `json:"columns"`
	Preview  [][]string          `json:"preview"`
	Samples  map[string][]string `json:"samples"`
	Mapping  domain.Mapping      `json:"mapping"`
	Missing  []domain.Field      `json:"missing"`
	RowCount int                 `json:"row_count"`
}

// ExportFormat selects the export encoding
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ContentType returns the MIME type of the format
func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// LeaderboardService runs the leaderboard pipeline
type LeaderboardService struct {
	store   RunStore
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
	now     func() time.Time

	exportBOM   bool
	exportSheet string
}

// Option configures a LeaderboardService
type Option func(*LeaderboardService)

// WithMetrics records pipeline and archive metrics
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(s *LeaderboardService) { s.metrics = m }
}

// WithTracer replaces the global tracer
func WithTracer(t trace.Tracer) Option {
	return func(s *LeaderboardService) { s.tracer = t }
}

// WithExport sets the CSV BOM flag and the xlsx sheet name
func WithExport(bom bool, sheet string) Option {
	return func(s *LeaderboardService) {
		s.exportBOM = bom
		s.exportSheet = sheet
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *LeaderboardService) { s.now = now }
}

// NewLeaderboardService creates the service. store must not be nil.
func NewLeaderboardService(store RunStore, logger *slog.Logger, opts ...Option) *LeaderboardService {
	s := &LeaderboardService{
		store:       store,
		logger:      infrastructure.WithComponent(logger, "leaderboard_service"),
		tracer:      otel.Tracer(infrastructure.InstrumentationName),
		now:         time.Now,
		exportBOM:   true,
		exportSheet: exporter.DefaultSheet,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detect proposes a mapping for table and reports the required fields it leaves unresolved
func (s *LeaderboardService) Detect(table *domain.Table, kind domain.TableKind) (*Detection, error) {
	if !kind.IsValid() {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown table kind %q", kind))
	}
	if table == nil {
		return nil, apperrors.NewAppValidationError("table is required")
	}

	mapping := dataprocessing.AutoMapKind(table.Columns, kind)
	missing := dataprocessing.Validate(table, mapping, kind.RequiredFields())
	if missing == nil {
		missing = []domain.Field{}
	}

	return &Detection{
		Kind:     kind,
		Table:    table.Name,
		Columns:  table.Columns,
		Preview:  files.Preview(table, PreviewRows),
		Samples:  files.ColumnSamples(table, PreviewRows),
		Mapping:  mapping,
		Missing:  missing,
		RowCount: table.Len(),
	}, nil
}

// DetectReader reads an upload and proposes its mapping
func (s *LeaderboardService) DetectReader(name string, r io.Reader, kind domain.TableKind) (*Detection, error) {
	table, err := files.ReadTable(name, r)
	if err != nil {
		return nil, err
	}
	return s.Detect(table, kind)
}

// Generate loads the inputs, runs the pipeline and stores the run
func (s *LeaderboardService) Generate(ctx context.Context, req GenerateRequest) (*Run, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := s.tracer.Start(ctx, "leaderboard.generate",
		trace.WithAttributes(attribute.String("label", req.Label)))
	defer span.End()

	start := time.Now()
	log := s.logger

	tables, err := s.loadTables(ctx, req)
	if err != nil {
		s.fail(ctx, span, start, nil, err)
		return nil, err
	}

	mappings := make(map[domain.TableKind]domain.Mapping, len(tables))
	for kind, table := range tables {
		mappings[kind] = mergeMapping(dataprocessing.AutoMapKind(table.Columns, kind), req.Mappings[kind])
	}

	result, err := dataprocessing.BuildLeaderboard(dataprocessing.Input{
		Performance:        tables[domain.TablePerformance],
		PerformanceMapping: mappings[domain.TablePerformance],
		Previous:           tables[domain.TablePrevious],
		PreviousMapping:    mappings[domain.TablePrevious],
		Followers:          tables[domain.TableFollowers],
		FollowersMapping:   mappings[domain.TableFollowers],
		Logger:             s.logger,
	})
	if err != nil {
		var schemaErr *dataprocessing.SchemaError
		if errors.As(err, &schemaErr) {
			err = schemaAppError(schemaErr, tables[schemaErr.Table])
		}
		s.fail(ctx, span, start, result, err)
		return nil, err
	}

	for kind, missing := range result.Diagnostics.Missing {
		log.WarnContext(ctx, "optional table ignored",
			slog.String("table", string(kind)),
			slog.Any("missing", missing))
	}

	run := &Run{
		ID:        uuid.New().String(),
		CreatedAt: s.now().UTC(),
		Label:     strings.TrimSpace(req.Label),
		Mappings:  mappings,
		Result:    result,
		Summary:   dataprocessing.Summarize(result.Rows),
	}

	err = s.store.Save(ctx, &archive.Run{
		ID:        run.ID,
		CreatedAt: run.CreatedAt,
		Label:     run.Label,
		Posts:     result.Diagnostics.PostRecords,
		Rows:      result.Rows,
		Daily:     result.Daily,
	})
	infrastructure.RecordArchiveOperation(ctx, s.metrics, "save", err)
	if err != nil {
		s.fail(ctx, span, start, result, err)
		return nil, err
	}

	infrastructure.RecordLeaderboardRun(ctx, s.metrics, observation(start, true, result))
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"run_id": run.ID,
		"pages":  len(result.Rows),
		"posts":  result.Diagnostics.PostRecords,
	})

	log.InfoContext(ctx, "leaderboard generated",
		slog.String("run_id", run.ID),
		slog.Int("pages", len(result.Rows)),
		slog.Int("posts", result.Diagnostics.PostRecords),
		slog.Int("issues", len(result.Diagnostics.Issues)),
		slog.Duration("duration", time.Since(start)))
	return run, nil
}

// Get loads an archived run. Diagnostics are not archived, so only the post
// count is restored.
func (s *LeaderboardService) Get(ctx context.Context, id string) (*Run, error) {
	stored, err := s.store.Get(ctx, id)
	infrastructure.RecordArchiveOperation(ctx, s.metrics, "get", ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	return runFromArchive(stored), nil
}

// List returns archived runs, newest first
func (s *LeaderboardService) List(ctx context.Context, limit int) ([]archive.RunInfo, error) {
	infos, err := s.store.List(ctx, limit)
	infrastructure.RecordArchiveOperation(ctx, s.metrics, "list", err)
	return infos, err
}

// Delete removes an archived run
func (s *LeaderboardService) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	infrastructure.RecordArchiveOperation(ctx, s.metrics, "delete", ignoreNotFound(err))
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "leaderboard deleted", slog.String("run_id", id))
	return nil
}

// Export writes a run's leaderboard to w
func (s *LeaderboardService) Export(ctx context.Context, run *Run, format ExportFormat, w io.Writer) error {
	ctx, span := s.tracer.Start(ctx, "leaderboard.export",
		trace.WithAttributes(attribute.String("format", string(format))))
	defer span.End()

	var err error
	switch format {
	case FormatCSV:
		err = exporter.WriteLeaderboardCSV(w, run.Result.Rows, s.exportBOM)
	case FormatXLSX:
		err = exporter.WriteXLSXWithDaily(w, run.Result.Rows, run.Result.Daily, s.exportSheet)
	default:
		return apperrors.NewAppValidationError(fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return fmt.Errorf("export %s: %w", format, err)
	}
	return nil
}

// Ping checks the run store
func (s *LeaderboardService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// loadTables reads every supplied source concurrently
func (s *LeaderboardService) loadTables(ctx context.Context, req GenerateRequest) (map[domain.TableKind]*domain.Table, error) {
	sources := map[domain.TableKind]*Source{domain.TablePerformance: &req.Performance}
	if req.Previous != nil {
		sources[domain.TablePrevious] = req.Previous
	}
	if req.Followers != nil {
		sources[domain.TableFollowers] = req.Followers
	}

	loaded := make([]*domain.Table, len(domain.TableKinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range domain.TableKinds {
		src, ok := sources[kind]
		if !ok {
			continue
		}
		i, kind := i, kind
		g.Go(func() error {
			table, err := readSource(kind, src)
			if err != nil {
				return err
			}
			loaded[i] = table
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables := make(map[domain.TableKind]*domain.Table, len(domain.TableKinds))
	for i, kind := range domain.TableKinds {
		if loaded[i] != nil {
			tables[kind] = loaded[i]
		}
	}

	if tables[domain.TablePrevious] == nil && req.PriorRunID != "" {
		prior, err := s.priorTable(ctx, req.PriorRunID)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			tables[domain.TablePrevious] = prior
		}
	}
	return tables, nil
}

func (s *LeaderboardService) priorTable(ctx context.Context, id string) (*domain.Table, error) {
	if id == LatestRun {
		run, err := s.store.Latest(ctx)
		infrastructure.RecordArchiveOperation(ctx, s.metrics, "latest", ignoreNotFound(err))
		if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			s.logger.InfoContext(ctx, "archive is empty, generating without a prior period")
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return archive.PriorTableFromRun(run), nil
	}

	table, err := s.store.PriorTable(ctx, id)
	infrastructure.RecordArchiveOperation(ctx, s.metrics, "prior_table", ignoreNotFound(err))
	return table, err
}

func readSource(kind domain.TableKind, src *Source) (*domain.Table, error) {
	if src.Table != nil {
		return src.Table, nil
	}
	if src.Reader == nil {
		if kind == domain.TablePerformance {
			return nil, apperrors.NewAppValidationError("performance file is required")
		}
		return nil, nil
	}
	table, err := files.ReadTable(src.Name, src.Reader)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("table", string(kind))
		}
		return nil, err
	}
	return table, nil
}

func (s *LeaderboardService) fail(ctx context.Context, span trace.Span, start time.Time, result *dataprocessing.Result, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	infrastructure.RecordLeaderboardRun(ctx, s.metrics, observation(start, false, result))
	infrastructure.WithError(s.logger, err).WarnContext(ctx, "leaderboard generation failed")
}

// mergeMapping overlays user choices on the detected mapping
func mergeMapping(detected, overrides domain.Mapping) domain.Mapping {
	merged := detected.Clone()
	for field, col := range overrides {
		if strings.TrimSpace(col) == "" {
			delete(merged, field)
			continue
		}
		merged[field] = col
	}
	return merged
}

func schemaAppError(schemaErr *dataprocessing.SchemaError, table *domain.Table) *apperrors.AppError {
	labels := make([]string, len(schemaErr.Missing))
	for i, f := range schemaErr.Missing {
		labels[i] = f.Label()
	}
	appErr := apperrors.NewSchemaError(schemaErr.Error(), schemaErr, labels).
		WithContext("table", string(schemaErr.Table))
	if table != nil {
		appErr.WithContext("columns", table.Columns)
	}
	return appErr
}

func observation(start time.Time, success bool, result *dataprocessing.Result) infrastructure.RunObservation {
	obs := infrastructure.RunObservation{Duration: time.Since(start), Success: success}
	if result == nil {
		return obs
	}
	obs.Posts = result.Diagnostics.PostRecords
	obs.NumericFallbacks = result.Diagnostics.NumericFallbacks
	obs.DatesRejected = result.Diagnostics.UndatedPosts
	for kind := range result.Diagnostics.Missing {
		obs.SchemaFailures = append(obs.SchemaFailures, string(kind))
	}
	return obs
}

func runFromArchive(stored *archive.Run) *Run {
	result := &dataprocessing.Result{
		Rows:        stored.Rows,
		Daily:       stored.Daily,
		Diagnostics: dataprocessing.Diagnostics{PostRecords: stored.Posts},
	}
	return &Run{
		ID:        stored.ID,
		CreatedAt: stored.CreatedAt,
		Label:     stored.Label,
		Result:    result,
		Summary:   dataprocessing.Summarize(stored.Rows),
	}
}

func ignoreNotFound(err error) error {
	if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
		return nil
	}
	return err
}
