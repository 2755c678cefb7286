package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// ConsoleMetrics records staff console and wizard activity.
// A nil *ConsoleMetrics is valid and records nothing.
type ConsoleMetrics struct {
	refreshTotal      *Counter
	refreshFailures   *Counter
	refreshDuration   *Histogram
	sessionsActive    *UpDownCounter
	loginsTotal       *Counter
	wizardSubmissions *Counter
}

// NewConsoleMetrics registers the console instruments on meter.
func NewConsoleMetrics(meter metric.Meter) (*ConsoleMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	cm := &ConsoleMetrics{}
	var err error

	if cm.refreshTotal, err = NewCounter(meter,
		"finsite_console_refresh_total",
		"Full console refreshes",
		"{refreshes}",
	); err != nil {
		return nil, err
	}
	if cm.refreshFailures, err = NewCounter(meter,
		"finsite_console_refresh_failures_total",
		"Entity fetches that failed during a refresh",
		"{failures}",
	); err != nil {
		return nil, err
	}
	if cm.refreshDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "finsite_console_refresh_duration_seconds",
		Description: "Duration of a full console refresh",
		Unit:        "s",
		Boundaries:  RefreshDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if cm.sessionsActive, err = NewUpDownCounter(meter,
		"finsite_console_sessions_active",
		"Authenticated console sessions",
		"{sessions}",
	); err != nil {
		return nil, err
	}
	if cm.loginsTotal, err = NewCounter(meter,
		"finsite_console_logins_total",
		"Console login attempts",
		"{logins}",
	); err != nil {
		return nil, err
	}
	if cm.wizardSubmissions, err = NewCounter(meter,
		"finsite_wizard_submissions_total",
		"Application wizard submissions",
		"{submissions}",
	); err != nil {
		return nil, err
	}

	return cm, nil
}

// RecordRefresh records one full refresh and the entities that failed in it.
func (cm *ConsoleMetrics) RecordRefresh(ctx context.Context, d time.Duration, failed []string) {
	if cm == nil {
		return
	}
	outcome := "ok"
	if len(failed) > 0 {
		outcome = "partial"
	}
	cm.refreshTotal.Inc(ctx, AttrOutcome.String(outcome))
	cm.refreshDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
	for _, entity := range failed {
		cm.refreshFailures.Inc(ctx, AttrEntity.String(entity))
	}
}

// RecordLogin records a login attempt by provider and outcome.
func (cm *ConsoleMetrics) RecordLogin(ctx context.Context, via string, ok bool) {
	if cm == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "ok"
	}
	cm.loginsTotal.Inc(ctx, AttrVia.String(via), AttrOutcome.String(outcome))
}

// SessionStarted increments the active session count.
func (cm *ConsoleMetrics) SessionStarted(ctx context.Context) {
	if cm == nil {
		return
	}
	cm.sessionsActive.Add(ctx, 1)
}

// SessionEnded decrements the active session count.
func (cm *ConsoleMetrics) SessionEnded(ctx context.Context) {
	if cm == nil {
		return
	}
	cm.sessionsActive.Add(ctx, -1)
}

// RecordWizardSubmission records a wizard submit by track and outcome.
func (cm *ConsoleMetrics) RecordWizardSubmission(ctx context.Context, track string, err error) {
	if cm == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	cm.wizardSubmissions.Inc(ctx, AttrTrack.String(track), AttrOutcome.String(outcome))
}
