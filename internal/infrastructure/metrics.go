package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Leaderboard pipeline metrics
	RunsTotal        metric.Int64Counter
	RunDuration      metric.Float64Histogram
	PostsProcessed   metric.Int64Counter
	NumericFallbacks metric.Int64Counter
	DatesRejected    metric.Int64Counter
	SchemaFailures   metric.Int64Counter

	// Archive metrics
	ArchiveOperations metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http_requests_total", "Total number of HTTP requests"},
		{&m.RunsTotal, "leaderboard_runs_total", "Total number of leaderboard runs"},
		{&m.PostsProcessed, "leaderboard_posts_processed_total", "Post records read from performance tables"},
		{&m.NumericFallbacks, "leaderboard_numeric_fallbacks_total", "Unparseable numeric cells read as zero"},
		{&m.DatesRejected, "leaderboard_dates_rejected_total", "Posts excluded from daily aggregation for an unparseable date"},
		{&m.SchemaFailures, "leaderboard_schema_failures_total", "Runs or tables rejected for unresolved columns"},
		{&m.ArchiveOperations, "archive_operations_total", "Leaderboard archive operations"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.RunDuration, err = meter.Float64Histogram(
		"leaderboard_run_duration_seconds",
		metric.WithDescription("Leaderboard pipeline duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RunObservation is what a single leaderboard run reports to metrics
type RunObservation struct {
	Duration         time.Duration
	Success          bool
	Posts            int
	NumericFallbacks int
	DatesRejected    int
	// SchemaFailures names the tables whose required columns were missing
	SchemaFailures []string
}

// RecordLeaderboardRun records metrics for one pipeline run
func RecordLeaderboardRun(ctx context.Context, metrics *BusinessMetrics, obs RunObservation) {
	if metrics == nil {
		return
	}

	status := attribute.String("status", "success")
	if !obs.Success {
		status = attribute.String("status", "failure")
	}

	metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(status))
	metrics.RunDuration.Record(ctx, obs.Duration.Seconds(), metric.WithAttributes(status))
	metrics.PostsProcessed.Add(ctx, int64(obs.Posts))
	metrics.NumericFallbacks.Add(ctx, int64(obs.NumericFallbacks))
	metrics.DatesRejected.Add(ctx, int64(obs.DatesRejected))
	for _, table := range obs.SchemaFailures {
		metrics.SchemaFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("table", table)))
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("leaderboard.metrics_recorded",
			trace.WithAttributes(
				attribute.Bool("success", obs.Success),
				attribute.Int("posts", obs.Posts),
				attribute.Float64("duration_seconds", obs.Duration.Seconds()),
			),
		)
	}
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(ctx context.Context, metrics *BusinessMetrics, method, route string, status int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	metrics.HTTPRequestsTotal.Add(ctx, 1, attrs)
	metrics.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordArchiveOperation records one archive read or write
func RecordArchiveOperation(ctx context.Context, metrics *BusinessMetrics, op string, err error) {
	if metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.ArchiveOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("status", status),
	))
}

// RuntimeStats is a snapshot of process health reported by the health endpoint
type RuntimeStats struct {
	GoRoutines      int     `json:"goroutines"`
	MemoryAllocated uint64  `json:"memory_allocated_bytes"`
	MemorySystem    uint64  `json:"memory_system_bytes"`
	GCCount         uint32  `json:"gc_count"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// CollectRuntimeStats reads Go runtime statistics
func CollectRuntimeStats(start time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return RuntimeStats{
		GoRoutines:      runtime.NumGoroutine(),
		MemoryAllocated: mem.Alloc,
		MemorySystem:    mem.Sys,
		GCCount:         mem.NumGC,
		UptimeSeconds:   time.Since(start).Seconds(),
	}
}

// RegisterRuntimeMetrics exposes runtime statistics as observable gauges
func RegisterRuntimeMetrics(meter metric.Meter, start time.Time) error {
	goroutines, err := meter.Int64ObservableGauge("system_goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return err
	}
	memory, err := meter.Int64ObservableGauge("system_memory_allocated_bytes",
		metric.WithDescription("Memory allocated by Go runtime in bytes"),
		metric.WithUnit("By"))
	if err != nil {
		return err
	}
	uptime, err := meter.Float64ObservableGauge("system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := CollectRuntimeStats(start)
		o.ObserveInt64(goroutines, int64(stats.GoRoutines))
		o.ObserveInt64(memory, int64(stats.MemoryAllocated))
		o.ObserveFloat64(uptime, stats.UptimeSeconds)
		return nil
	}, goroutines, memory, uptime)
	return err
}
