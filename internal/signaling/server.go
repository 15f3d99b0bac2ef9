package signaling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"

	rtc "github.com/frudas24/pdb/internal/webrtc"
)

// errBye ends a session at the client's request.
var errBye = errors.New("bye")

// Server handles WebRTC signaling over WebSocket. Every websocket gets its own
// peer connection; the data channel the client opens carries commands.
type Server struct {
	upgrader websocket.Upgrader
	peers    *rtc.PeerFactory
	dispatch rtc.LineDispatcher

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

type session struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewServer creates a signaling server.
func NewServer(peers *rtc.PeerFactory, dispatch rtc.LineDispatcher) *Server {
	return &Server{
		peers:    peers,
		dispatch: dispatch,
		sessions: make(map[string]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the signaling loop.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sess := &session{id: uuid.NewString()[:8], conn: conn}
	if !s.register(sess) {
		_ = conn.Close()
		return
	}
	defer s.unregister(sess)
	log.Printf("rtc: %s signaling from %s", sess.id, r.RemoteAddr)

	peer, err := s.peers.NewPeer()
	if err != nil {
		log.Printf("rtc: %s new peer: %v", sess.id, err)
		_ = sess.send(Message{T: "error", Error: err.Error()})
		return
	}
	defer peer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	peer.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != rtc.CommandLabel {
			log.Printf("rtc: %s rejecting data channel %q", sess.id, dc.Label())
			_ = dc.Close()
			return
		}
		rtc.ServeCommands(ctx, dc, s.dispatch, sess.id)
	})
	peer.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		candidate := c.ToJSON()
		_ = sess.send(Message{T: "ice", Candidate: &candidate})
	})
	peer.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("rtc: %s peer %s", sess.id, state)
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if err := s.handleMessage(sess, peer, msg); err != nil {
			if !errors.Is(err, errBye) {
				log.Printf("rtc: %s %s: %v", sess.id, msg.T, err)
				_ = sess.send(Message{T: "error", Error: err.Error()})
			}
			return
		}
	}
}

// Sessions reports the number of open signaling sockets.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close disconnects every session and refuses new ones. Hijacked websockets
// are not closed by http.Server.Shutdown.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.sessions))
	for _, sess := range s.sessions {
		conns = append(conns, sess.conn)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

func (s *Server) register(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions[sess.id] = sess
	return true
}

func (s *Server) unregister(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	_ = sess.conn.Close()
	log.Printf("rtc: %s signaling closed", sess.id)
}

// handleMessage dispatches signaling messages.
func (s *Server) handleMessage(sess *session, peer *webrtc.PeerConnection, msg Message) error {
	switch msg.T {
	case "offer":
		return s.handleOffer(sess, peer, msg.SDP)
	case "ice":
		return handleICE(peer, msg.Candidate)
	case "bye":
		return errBye
	default:
		return nil
	}
}

// handleOffer processes an SDP offer and replies with an answer once ICE
// gathering completes.
func (s *Server) handleOffer(sess *session, peer *webrtc.PeerConnection, sdp string) error {
	if sdp == "" {
		return fmt.Errorf("empty offer")
	}
	if err := peer.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  sdp,
	}); err != nil {
		return err
	}
	answer, err := peer.CreateAnswer(nil)
	if err != nil {
		return err
	}
	gatherComplete := webrtc.GatheringCompletePromise(peer)
	if err := peer.SetLocalDescription(answer); err != nil {
		return err
	}
	<-gatherComplete
	local := peer.LocalDescription()
	if local == nil {
		return fmt.Errorf("missing local description")
	}
	return sess.send(Message{T: "answer", SDP: local.SDP})
}

// handleICE adds a remote ICE candidate.
func handleICE(peer *webrtc.PeerConnection, candidate *webrtc.ICECandidateInit) error {
	if candidate == nil {
		return nil
	}
	return peer.AddICECandidate(*candidate)
}

func (sess *session) send(msg Message) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	return sess.conn.WriteJSON(msg)
}
