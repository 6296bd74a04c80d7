package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/choppr/choppr"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Auth metrics
	SignupsTotal       metric.Int64Counter
	LoginsTotal        metric.Int64Counter
	LoginFailuresTotal metric.Int64Counter
	MagicLinksIssued   metric.Int64Counter

	// Onboarding metrics
	OrganizationsCreated metric.Int64Counter
	FrameworksReplaced   metric.Int64Counter
	ProcessesSeeded      metric.Int64Counter

	// Canvas metrics
	ProcessMovesTotal    metric.Int64Counter
	ProcessEditsTotal    metric.Int64Counter
	RelationshipsCreated metric.Int64Counter
	CanvasLoadDuration   metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.SignupsTotal, _ = meter.Int64Counter(
		"choppr.auth.signups.total",
		metric.WithDescription("Total number of user sign-ups"),
		metric.WithUnit("{user}"),
	)

	m.LoginsTotal, _ = meter.Int64Counter(
		"choppr.auth.logins.total",
		metric.WithDescription("Total number of successful logins"),
		metric.WithUnit("{login}"),
	)

	m.LoginFailuresTotal, _ = meter.Int64Counter(
		"choppr.auth.login_failures.total",
		metric.WithDescription("Total number of failed login attempts"),
		metric.WithUnit("{login}"),
	)

	m.MagicLinksIssued, _ = meter.Int64Counter(
		"choppr.auth.magic_links.total",
		metric.WithDescription("Total number of magic links issued"),
		metric.WithUnit("{link}"),
	)

	m.OrganizationsCreated, _ = meter.Int64Counter(
		"choppr.onboarding.organizations.total",
		metric.WithDescription("Total number of organizations created"),
		metric.WithUnit("{organization}"),
	)

	m.FrameworksReplaced, _ = meter.Int64Counter(
		"choppr.onboarding.framework_replaces.total",
		metric.WithDescription("Total number of framework selection replacements"),
		metric.WithUnit("{operation}"),
	)

	m.ProcessesSeeded, _ = meter.Int64Counter(
		"choppr.onboarding.processes_seeded.total",
		metric.WithDescription("Total number of starter processes adopted onto canvases"),
		metric.WithUnit("{process}"),
	)

	m.ProcessMovesTotal, _ = meter.Int64Counter(
		"choppr.canvas.process_moves.total",
		metric.WithDescription("Total number of canvas process position updates"),
		metric.WithUnit("{move}"),
	)

	m.ProcessEditsTotal, _ = meter.Int64Counter(
		"choppr.canvas.process_edits.total",
		metric.WithDescription("Total number of canvas process detail updates"),
		metric.WithUnit("{edit}"),
	)

	m.RelationshipsCreated, _ = meter.Int64Counter(
		"choppr.canvas.relationships.total",
		metric.WithDescription("Total number of process relationships drawn"),
		metric.WithUnit("{relationship}"),
	)

	m.CanvasLoadDuration, _ = meter.Float64Histogram(
		"choppr.canvas.load.duration",
		metric.WithDescription("Duration of canvas load operations"),
		metric.WithUnit("ms"),
	)

	return m
}
