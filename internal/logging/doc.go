// Package logging provides structured logging with per-module log levels.
//
// Every package asks for a named logger:
//
//	logger := logging.GetLogger("camera")
//	logger.Info("Device discovered", "serial", serial)
//
// Loggers may be created before Initialize; they start with info level and
// pick up the configured levels once Initialize runs. Levels are backed by
// slog.LevelVar, so SetLevels and SetModuleLevel take effect on existing
// loggers without recreating them.
//
// Records fan out to stdout (text or json), the systemd journal when
// journald is reachable, and an in-memory ring buffer served by the
// /api/logs endpoint. Journal entries carry SYSLOG_IDENTIFIER=depthnode
// and upper-cased attribute keys:
//
//	journalctl -t depthnode -f
//	journalctl -t depthnode MODULE=conformance
//	journalctl -t depthnode SERIAL=2391004154
//
// Configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	buffer_size = 1000
//	camera = "debug"
//	api = "warn"
package logging
