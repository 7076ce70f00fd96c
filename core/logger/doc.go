// Package logger builds the zap logger shared by commands, services and
// HTTP handlers.
//
// Level "debug" selects zap's development preset, anything else the
// production preset. Format picks the encoder: "json" for log shipping,
// "console" for a terminal. The reconcile core never logs; callers log run
// summaries with structured fields instead.
//
// Requests carry a ray id (see core/middleware/rayid). WithRayID returns a
// child logger tagged with it so one request's lines can be grepped
// together.
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("Tracking diff finished", zap.Int("changes", n))
//
//	l := logger.WithRayID(log, c)
//	l.Error("Observation reconcile failed", zap.Error(err))
package logger
