package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/monitor"
	"github.com/frudas24/pdb/internal/output"
)

// RegisterRoutes wires the API, preview and websocket handlers onto the mux.
func (a *App) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/devices", a.handleDevices)
	mux.HandleFunc("GET /api/monitors", a.handleMonitors)
	mux.HandleFunc("GET /api/state", a.handleState)
	mux.Handle("GET /mjpeg/window", a.preview)
	mux.HandleFunc("/ws/control", a.handleControl)
	if a.signaling != nil {
		mux.Handle("/ws/signal", a.signaling)
	}
	mux.HandleFunc("/favicon.ico", handleFavicon)
}

type deviceResponse struct {
	output.Device
	Monitor int `json:"monitor,omitempty"`
}

type stateResponse struct {
	Platform          string `json:"platform"`
	ControlSessions   int    `json:"controlSessions"`
	SignalingSessions int    `json:"signalingSessions"`
}

// handleDevices lists windows with the display each one sits on.
func (a *App) handleDevices(w http.ResponseWriter, r *http.Request) {
	list, err := a.exec.Devices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var monitors []monitor.Monitor
	if a.monitors != nil {
		if monitors, err = a.monitors(); err != nil {
			log.Printf("http: list monitors: %v", err)
		}
	}
	devices := output.Devices(list)
	resp := make([]deviceResponse, len(devices))
	for i, d := range devices {
		resp[i] = deviceResponse{Device: d}
		if m, ok := monitor.Containing(monitors, list[i].Client); ok {
			resp[i].Monitor = m.Index
		}
	}
	writeJSON(w, resp)
}

// handleMonitors returns the display layout.
func (a *App) handleMonitors(w http.ResponseWriter, _ *http.Request) {
	if a.monitors == nil {
		http.Error(w, monitor.ErrUnsupported.Error(), http.StatusNotImplemented)
		return
	}
	list, err := a.monitors()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, monitor.ErrUnsupported) {
			status = http.StatusNotImplemented
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, list)
}

// handleState reports the backend and connected transports.
func (a *App) handleState(w http.ResponseWriter, _ *http.Request) {
	resp := stateResponse{
		Platform:        a.platform,
		ControlSessions: a.ControlSessions(),
	}
	if a.signaling != nil {
		resp.SignalingSessions = a.signaling.Sessions()
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

// writeError answers with the kind and message of a classified error.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(failure.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"kind":  failure.KindOf(err).String(),
		"error": failure.Message(err),
	})
}

// handleFavicon avoids noisy 404s for the default browser request.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
