package statesync

import "time"

// SyncLogEvent describes one engine operation for logging.
type SyncLogEvent struct {
	Op       string
	Detail   string
	Duration time.Duration
	Err      error
}

// Operation names used in SyncLogEvent.Op.
const (
	OpHydrate      = "hydrate"
	OpURLWrite     = "url_write"
	OpSave         = "save"
	OpNavigation   = "navigation"
	OpEchoDropped  = "echo_dropped"
	OpFieldIgnored = "field_ignored"
	OpWatch        = "watch"
	OpShare        = "share"
	OpActivity     = "activity"
)

// SyncLogger records engine events.
type SyncLogger interface {
	LogSync(SyncLogEvent)
}

// SyncLoggerFunc adapts a function to SyncLogger.
type SyncLoggerFunc func(SyncLogEvent)

// LogSync implements SyncLogger.
func (f SyncLoggerFunc) LogSync(event SyncLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopSyncLogger struct{}

func (noopSyncLogger) LogSync(SyncLogEvent) {}
