// Package logging builds the process logger on top of log/slog.
//
// New returns a plain *slog.Logger. Its handler reads run and request fields
// that were attached to the context with WithRunID, WithTrigger,
// WithProjectID and WithRequestID, and adds them to every record logged
// through a *Context method:
//
//	logger, err := logging.New(logging.Options{Level: "info", Format: "json"})
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "retention run started") // carries run_id
//
// Values of attributes named api_key, token, authorization or password are
// replaced with Redacted.
package logging
