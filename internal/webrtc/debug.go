// Package webrtc carries the pdb line protocol over WebRTC data channels.
package webrtc

import "sync/atomic"

// debugFrames controls whether every data channel frame is logged.
var debugFrames atomic.Bool

// SetDebugLogging enables/disables verbose data channel logs.
func SetDebugLogging(enabled bool) {
	debugFrames.Store(enabled)
}

// debugEnabled reports whether frame logs are enabled.
func debugEnabled() bool {
	return debugFrames.Load()
}
