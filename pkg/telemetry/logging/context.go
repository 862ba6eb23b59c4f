package logging

import (
	"context"
	"log/slog"
)

type field int

const (
	requestIDField field = iota
	runIDField
	triggerField
	projectIDField
	numFields
)

// fieldKeys are the attribute keys emitted for each field, in output order.
var fieldKeys = [numFields]string{
	requestIDField: "request_id",
	runIDField:     "run_id",
	triggerField:   "trigger",
	projectIDField: "project_id",
}

type fieldsKey struct{}

// fieldSet is stored by value so that every With* call leaves the parent
// context untouched.
type fieldSet [numFields]string

func fromContext(ctx context.Context) fieldSet {
	fs, _ := ctx.Value(fieldsKey{}).(fieldSet)
	return fs
}

func with(ctx context.Context, f field, v string) context.Context {
	fs := fromContext(ctx)
	fs[f] = v
	return context.WithValue(ctx, fieldsKey{}, fs)
}

// WithRunID tags ctx with the ID of a retention run.
func WithRunID(ctx context.Context, id string) context.Context { return with(ctx, runIDField, id) }

// GetRunID returns the run ID set by WithRunID.
func GetRunID(ctx context.Context) string { return fromContext(ctx)[runIDField] }

// WithTrigger records what started the current run: schedule, api or cli.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return with(ctx, triggerField, trigger)
}

// GetTrigger returns the trigger set by WithTrigger.
func GetTrigger(ctx context.Context) string { return fromContext(ctx)[triggerField] }

// WithProjectID tags ctx with the project being acted on.
func WithProjectID(ctx context.Context, id string) context.Context {
	return with(ctx, projectIDField, id)
}

// GetProjectID returns the project ID set by WithProjectID.
func GetProjectID(ctx context.Context) string { return fromContext(ctx)[projectIDField] }

// WithRequestID tags ctx with an admin API request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return with(ctx, requestIDField, id)
}

// GetRequestID returns the request ID set by WithRequestID.
func GetRequestID(ctx context.Context) string { return fromContext(ctx)[requestIDField] }

// Fields returns the non-empty fields of ctx as attributes.
func Fields(ctx context.Context) []slog.Attr {
	fs := fromContext(ctx)
	var attrs []slog.Attr
	for i, v := range fs {
		if v != "" {
			attrs = append(attrs, slog.String(fieldKeys[i], v))
		}
	}
	return attrs
}
