package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for retention spans. Custom keys live under "retention.*".
const (
	AttrRunID   = "retention.run_id"
	AttrTrigger = "retention.trigger"
	AttrOutcome = "retention.outcome"

	AttrEnabled        = "retention.enabled"
	AttrAction         = "retention.action"
	AttrVersionPattern = "retention.version_pattern"
	AttrMaxAgeDays     = "retention.max_age_days"

	AttrEvaluated  = "retention.evaluated"
	AttrCandidates = "retention.candidates"
	AttrActioned   = "retention.actioned"
	AttrFailed     = "retention.failed"

	AttrProjectID      = "project.id"
	AttrProjectName    = "project.name"
	AttrProjectVersion = "project.version"

	AttrRequestID = "http.request_id"
)

// RunAttributes returns the identifying attributes of a retention run.
func RunAttributes(runID, trigger string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.String(AttrTrigger, trigger),
	}
}

// SetPolicyAttributes records the effective retention policy on a span.
func SetPolicyAttributes(span trace.Span, enabled bool, action, versionPattern string, maxAgeDays int) {
	span.SetAttributes(attribute.Bool(AttrEnabled, enabled))
	if !enabled {
		return
	}
	span.SetAttributes(
		attribute.String(AttrAction, action),
		attribute.String(AttrVersionPattern, versionPattern),
		attribute.Int(AttrMaxAgeDays, maxAgeDays),
	)
}

// SetSelectionAttributes records how many projects were inspected and selected.
func SetSelectionAttributes(span trace.Span, evaluated, candidates int) {
	span.SetAttributes(
		attribute.Int(AttrEvaluated, evaluated),
		attribute.Int(AttrCandidates, candidates),
	)
}

// SetActionAttributes records per-run action totals.
func SetActionAttributes(span trace.Span, actioned, failed int) {
	span.SetAttributes(
		attribute.Int(AttrActioned, actioned),
		attribute.Int(AttrFailed, failed),
	)
}

// SetOutcomeAttribute records the final outcome of a run.
func SetOutcomeAttribute(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String(AttrOutcome, outcome))
}

// AddProjectEvent adds an event for an action taken on one project.
// A non-nil err is attached as the event's error.message.
func AddProjectEvent(span trace.Span, name, id, projectName, version string, err error) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrProjectID, id),
		attribute.String(AttrProjectName, projectName),
		attribute.String(AttrProjectVersion, version),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordResult sets the span status from err. A non-nil err is also recorded
// as an exception event.
func RecordResult(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
