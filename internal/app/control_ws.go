package app

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/frudas24/pdb/internal/protocol"
)

// handleControl speaks the line protocol over a websocket. Each text message
// holds one or more command lines; every response is a text message and a
// screenshot block follows as one binary message.
func (a *App) handleControl(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.NewString()[:8]
	if !a.trackControl(conn, id) {
		_ = conn.Close()
		return
	}
	defer a.untrackControl(conn)
	log.Printf("ws: %s connected from %s", id, r.RemoteAddr)
	defer log.Printf("ws: %s disconnected", id)

	ctx := context.WithoutCancel(r.Context())
	conn.SetReadLimit(protocol.MaxLineBytes)
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := a.answer(ctx, conn, line); err != nil {
				log.Printf("ws: %s write: %v", id, err)
				return
			}
		}
	}
}

func (a *App) answer(ctx context.Context, conn *websocket.Conn, line string) error {
	_, resp := a.dispatcher.DispatchLine(ctx, line)
	text, block, err := protocol.FormatResponse(resp)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return err
	}
	if block == nil {
		return nil
	}
	return conn.WriteMessage(websocket.BinaryMessage, block)
}
