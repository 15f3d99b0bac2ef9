package webrtc

import (
	"fmt"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v3"
)

// PeerFactory creates peer connections that share one configured API.
type PeerFactory struct {
	api    *webrtc.API
	config webrtc.Configuration
}

// NewPeerFactory registers the default codecs and interceptors. iceURLs are
// optional STUN/TURN server URLs.
func NewPeerFactory(iceURLs ...string) (*PeerFactory, error) {
	media := &webrtc.MediaEngine{}
	if err := media.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	interceptors := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(media, interceptors); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(media),
		webrtc.WithInterceptorRegistry(interceptors),
	)

	var cfg webrtc.Configuration
	if len(iceURLs) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: iceURLs}}
	}
	return &PeerFactory{api: api, config: cfg}, nil
}

// NewPeer creates a peer connection. The remote side opens the command channel.
func (f *PeerFactory) NewPeer() (*webrtc.PeerConnection, error) {
	return f.api.NewPeerConnection(f.config)
}
