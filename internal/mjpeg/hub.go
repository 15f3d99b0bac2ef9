package mjpeg

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/window"
)

// Screenshotter captures a window without changing its state.
type Screenshotter interface {
	Screenshot(ctx context.Context, h window.Handle) (*capture.Bitmap, error)
}

// Hub runs one capture loop per previewed window, shared by all its viewers.
// A loop starts with the first viewer and stops with the last.
type Hub struct {
	shots    Screenshotter
	interval time.Duration
	quality  int

	mu    sync.Mutex
	feeds map[window.Handle]*feed
}

type feed struct {
	stream  *Stream
	viewers int
	cancel  context.CancelFunc
}

// NewHub creates a hub capturing every interval at the given JPEG quality.
func NewHub(shots Screenshotter, interval time.Duration, quality int) *Hub {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Hub{
		shots:    shots,
		interval: interval,
		quality:  quality,
		feeds:    make(map[window.Handle]*feed),
	}
}

// ServeHTTP streams the window named by the handle query parameter.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hd, err := window.ParseHandle(r.URL.Query().Get("handle"))
	if err != nil {
		http.Error(w, failure.Message(err), failure.HTTPStatus(err))
		return
	}
	first, err := h.frame(r.Context(), hd)
	if err != nil {
		http.Error(w, failure.Message(err), failure.HTTPStatus(err))
		return
	}

	stream := h.acquire(hd, first)
	defer h.release(hd)
	log.Printf("mjpeg: viewer joined %s", hd)
	stream.Handler(w, r)
	log.Printf("mjpeg: viewer left %s", hd)
}

// Viewers reports how many clients are watching h.
func (h *Hub) Viewers(hd window.Handle) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if f, ok := h.feeds[hd]; ok {
		return f.viewers
	}
	return 0
}

func (h *Hub) acquire(hd window.Handle, first []byte) *Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.feeds[hd]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		f = &feed{stream: NewStream(0), cancel: cancel}
		f.stream.Publish(first)
		h.feeds[hd] = f
		go h.run(ctx, hd, f.stream)
	}
	f.viewers++
	return f.stream
}

func (h *Hub) release(hd window.Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f, ok := h.feeds[hd]
	if !ok {
		return
	}
	f.viewers--
	if f.viewers <= 0 {
		f.cancel()
		f.stream.Close()
		delete(h.feeds, hd)
	}
}

// run publishes a frame every interval until cancelled or the window closes.
func (h *Hub) run(ctx context.Context, hd window.Handle, s *Stream) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		jpg, err := h.frame(ctx, hd)
		switch {
		case err == nil:
			s.Publish(jpg)
		case ctx.Err() != nil:
			return
		case gone(err):
			log.Printf("mjpeg: %s: %v", hd, err)
			s.Close()
			return
		default:
			log.Printf("mjpeg: capture %s: %v", hd, err)
		}
	}
}

func (h *Hub) frame(ctx context.Context, hd window.Handle) ([]byte, error) {
	bmp, err := h.shots.Screenshot(ctx, hd)
	if err != nil {
		return nil, err
	}
	return capture.EncodeJPEG(bmp, h.quality)
}

func gone(err error) bool {
	switch failure.KindOf(err) {
	case failure.NotFound, failure.WindowGone, failure.InvalidHandle:
		return true
	}
	return false
}
