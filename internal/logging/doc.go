// Package logging provides structured logging for calcwizard sessions.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// persistent context attributes. A wizard session logs plugin resolution,
// every state machine transition, and each status poll, so a session's
// history can be reconstructed after the fact by filtering on session_id.
//
// # Thread Safety
//
// [Logger] is safe for concurrent use. Child loggers created via the With*
// methods share the underlying writer.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("plugins resolved", "count", 3)
//
// # Context Propagation
//
//	sessionLogger := logger.WithSession(sess.ID)
//	stepLogger := sessionLogger.WithStep("workflow_settings")
//	stepLogger.Debug("confirm ignored", "reason", "predecessor unconfirmed")
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"confirm ignored","session_id":"...","step_id":"workflow_settings","reason":"predecessor unconfirmed"}
//
// Use [NopLogger] in tests or when logging is disabled.
package logging
