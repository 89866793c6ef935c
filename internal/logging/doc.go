// Package logging provides structured logging for the OpenMotics client and omctl.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used by the API client, the events stream and the MQTT bridge.
//
// # Log Levels
//
//   - Debug: every request attempt and response, every live event
//   - Info: connections, subscriptions, bridge lifecycle
//   - Warn: retries, reconnects, dropped events
//   - Error: failures surfaced to the user
//
// # Configuration
//
// Logging is silent by default. Set OPENMOTICS_LOG_LEVEL, or pass --log-level
// to omctl:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Logs go to stderr so that command output on stdout stays parseable.
package logging
