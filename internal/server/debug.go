package server

import "sync/atomic"

// debugFrames controls whether every request and response is logged.
var debugFrames atomic.Bool

// SetDebugLogging enables/disables per-frame debug logs.
func SetDebugLogging(enabled bool) {
	debugFrames.Store(enabled)
}

// debugEnabled reports whether per-frame debug logs are enabled.
func debugEnabled() bool {
	return debugFrames.Load()
}
