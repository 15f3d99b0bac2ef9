package webrtc

import (
	"context"
	"log"
	"strings"

	"github.com/frudas24/pdb/internal/protocol"
	"github.com/pion/webrtc/v3"
)

// CommandLabel is the data channel label that carries the line protocol.
const CommandLabel = "pdb"

// blockChunk bounds binary messages so large screenshots fit SCTP message limits.
const blockChunk = 16 << 10

// LineDispatcher executes one protocol line.
type LineDispatcher interface {
	DispatchLine(ctx context.Context, line string) (protocol.Command, protocol.Response)
}

// sender is the write side of a data channel.
type sender interface {
	SendText(s string) error
	Send(data []byte) error
}

// ServeCommands answers every text message on dc. Each line of a message is
// one command; its status lines go back as one text message and a screenshot
// block follows as binary messages of at most 16 KiB.
func ServeCommands(ctx context.Context, dc *webrtc.DataChannel, d LineDispatcher, id string) {
	dc.OnOpen(func() {
		log.Printf("rtc: %s command channel open", id)
	})
	dc.OnClose(func() {
		log.Printf("rtc: %s command channel closed", id)
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if !msg.IsString {
			log.Printf("rtc: %s ignoring %d-byte binary message", id, len(msg.Data))
			return
		}
		for _, line := range strings.Split(string(msg.Data), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := handleLine(ctx, d, dc, line); err != nil {
				log.Printf("rtc: %s send: %v", id, err)
				return
			}
			if debugEnabled() {
				log.Printf("rtc: %s <- %q", id, line)
			}
		}
	})
}

func handleLine(ctx context.Context, d LineDispatcher, s sender, line string) error {
	_, resp := d.DispatchLine(ctx, line)
	text, block, err := protocol.FormatResponse(resp)
	if err != nil {
		return err
	}
	if err := s.SendText(text); err != nil {
		return err
	}
	for len(block) > 0 {
		n := min(len(block), blockChunk)
		if err := s.Send(block[:n]); err != nil {
			return err
		}
		block = block[n:]
	}
	return nil
}
