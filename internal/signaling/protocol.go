// Package signaling negotiates WebRTC command sessions over a websocket.
package signaling

import "github.com/pion/webrtc/v3"

// Message is a websocket signaling payload. T is one of offer, answer, ice,
// error or bye.
type Message struct {
	T         string                   `json:"t"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
	Error     string                   `json:"error,omitempty"`
}
