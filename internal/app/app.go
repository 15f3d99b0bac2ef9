// Package app serves the daemon's HTTP gateway: device listing, window
// previews and the line protocol over websockets and WebRTC.
package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frudas24/pdb/internal/mjpeg"
	"github.com/frudas24/pdb/internal/monitor"
	"github.com/frudas24/pdb/internal/server"
	"github.com/frudas24/pdb/internal/signaling"
	rtc "github.com/frudas24/pdb/internal/webrtc"
)

// Options configures the gateway.
type Options struct {
	// Platform names the desktop backend in /api/state.
	Platform      string
	MJPEGInterval time.Duration
	MJPEGQuality  int
	// Monitors lists displays; nil disables monitor placement.
	Monitors func() ([]monitor.Monitor, error)
	// Peers enables /ws/signal when set.
	Peers *rtc.PeerFactory
}

// App coordinates the HTTP API and websocket transports.
type App struct {
	exec       server.Executor
	dispatcher *server.Dispatcher
	preview    *mjpeg.Hub
	signaling  *signaling.Server
	monitors   func() ([]monitor.Monitor, error)
	platform   string
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	controls map[*websocket.Conn]string
	closed   bool
}

// New creates the gateway over an executor.
func New(exec server.Executor, opts Options) *App {
	d := server.NewDispatcher(exec)
	a := &App{
		exec:       exec,
		dispatcher: d,
		preview:    mjpeg.NewHub(exec, opts.MJPEGInterval, opts.MJPEGQuality),
		monitors:   opts.Monitors,
		platform:   opts.Platform,
		controls:   make(map[*websocket.Conn]string),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 64 << 10,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if opts.Peers != nil {
		a.signaling = signaling.NewServer(opts.Peers, d)
	}
	return a
}

// Close disconnects websocket clients. Call it before http.Server.Shutdown,
// which does not track hijacked connections.
func (a *App) Close() {
	a.mu.Lock()
	a.closed = true
	conns := make([]*websocket.Conn, 0, len(a.controls))
	for c := range a.controls {
		conns = append(conns, c)
	}
	a.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
	if a.signaling != nil {
		a.signaling.Close()
	}
}

// ControlSessions reports the open /ws/control connections.
func (a *App) ControlSessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.controls)
}

func (a *App) trackControl(c *websocket.Conn, id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}
	a.controls[c] = id
	return true
}

func (a *App) untrackControl(c *websocket.Conn) {
	a.mu.Lock()
	delete(a.controls, c)
	a.mu.Unlock()
	_ = c.Close()
}
