/*
Package auth provides API key authentication for the curator admin API.

Keys are configured by name and are only ever held as SHA-256 digests after
the Validator is built. Requests carry a key in one of the configured
sources, by default "Authorization: Bearer <key>" or "X-API-Key: <key>".

# Basic Usage

	validator := auth.NewValidator([]auth.Key{
		{Name: "ops", Token: "0123456789abcdef", Enabled: true},
	})

	mw := auth.NewMiddleware(validator, auth.DefaultSources, logger)
	router.With(mw.Handle).Post("/api/v1/retention/run", runHandler)

Inside a handler the authenticated key name is available from the context:

	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		logger.Info("run requested", "key", id.Name)
	}

Query parameters are deliberately not a default source: URLs end up in
access logs.
*/
package auth
