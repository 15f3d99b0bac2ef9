//go:build linux

package platform

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/window"
)

const (
	stateHidden = "_NET_WM_STATE_HIDDEN"
	// sourcePager marks client messages as direct user actions.
	sourcePager = 2
)

// Native drives X11 client windows through EWMH/ICCCM.
type Native struct {
	mu        sync.Mutex
	xu        *xgbutil.XUtil
	composite bool
	// redirected tracks windows already redirected offscreen.
	redirected map[xproto.Window]bool
}

var _ Desktop = (*Native)(nil)

// New connects to $DISPLAY. The Composite extension is optional: without it
// capture falls back to reading the mapped window.
func New() (*Native, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, failure.Wrap(failure.PlatformError, err, "connect X server")
	}
	n := &Native{xu: xu, redirected: make(map[xproto.Window]bool)}
	if err := composite.Init(xu.Conn()); err == nil {
		n.composite = true
	}
	return n, nil
}

// Name identifies the backend.
func (n *Native) Name() string {
	if n.composite {
		return "x11+composite"
	}
	return "x11"
}

// Close disconnects from the X server.
func (n *Native) Close() error {
	n.xu.Conn().Close()
	return nil
}

// Windows lists the window manager's managed clients in stacking-independent order.
func (n *Native) Windows() ([]window.Info, error) {
	clients, err := ewmh.ClientListGet(n.xu)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	out := make([]window.Info, 0, len(clients))
	for _, w := range clients {
		info, err := n.describe(w)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// Window returns a fresh snapshot of one window.
func (n *Native) Window(h window.Handle) (window.Info, error) {
	info, err := n.describe(xproto.Window(h))
	if err != nil {
		return window.Info{}, failure.Wrap(failure.NotFound, err, "no window with handle "+h.String())
	}
	return info, nil
}

func (n *Native) describe(w xproto.Window) (window.Info, error) {
	geom, err := xproto.GetGeometry(n.xu.Conn(), xproto.Drawable(w)).Reply()
	if err != nil {
		return window.Info{}, err
	}
	origin, err := xproto.TranslateCoordinates(n.xu.Conn(), w, n.xu.RootWin(), 0, 0).Reply()
	if err != nil {
		return window.Info{}, err
	}
	info := window.Info{
		Handle:    window.Handle(w),
		Title:     n.title(w),
		Minimized: n.minimized(w),
		Client: window.Rect{
			X: int(origin.DstX),
			Y: int(origin.DstY),
			W: int(geom.Width),
			H: int(geom.Height),
		},
	}
	if class, err := icccm.WmClassGet(n.xu, w); err == nil {
		info.Class = class.Class
	}
	return info, nil
}

func (n *Native) title(w xproto.Window) string {
	if name, err := ewmh.WmNameGet(n.xu, w); err == nil && name != "" {
		return name
	}
	name, _ := icccm.WmNameGet(n.xu, w)
	return name
}

func (n *Native) minimized(w xproto.Window) bool {
	if states, err := ewmh.WmStateGet(n.xu, w); err == nil {
		for _, s := range states {
			if s == stateHidden {
				return true
			}
		}
	}
	if st, err := icccm.WmStateGet(n.xu, w); err == nil {
		return st.State == icccm.StateIconic
	}
	return false
}

// Restore maps the window and asks the window manager to activate it.
func (n *Native) Restore(h window.Handle) error {
	w := xproto.Window(h)
	if _, err := n.describe(w); err != nil {
		return failure.Wrap(failure.NotFound, err, "no window with handle "+h.String())
	}
	if err := xproto.MapWindowChecked(n.xu.Conn(), w).Check(); err != nil {
		return fmt.Errorf("map window: %w", err)
	}
	return n.activate(w)
}

// Minimize iconifies a window via WM_CHANGE_STATE.
func (n *Native) Minimize(h window.Handle) error {
	w := xproto.Window(h)
	if _, err := n.describe(w); err != nil {
		return failure.Wrap(failure.NotFound, err, "no window with handle "+h.String())
	}
	return n.clientMessage(w, "WM_CHANGE_STATE", icccm.StateIconic)
}

// Focus activates and raises a window using _NET_ACTIVE_WINDOW.
func (n *Native) Focus(h window.Handle) error {
	w := xproto.Window(h)
	if _, err := n.describe(w); err != nil {
		return failure.Wrap(failure.NotFound, err, "no window with handle "+h.String())
	}
	return n.activate(w)
}

func (n *Native) activate(w xproto.Window) error {
	return n.clientMessage(w, "_NET_ACTIVE_WINDOW", sourcePager)
}

// clientMessage sends a 32-bit client message about w to the root window.
// The message is built by hand because the ewmh request helpers panic on
// this xgbutil version.
func (n *Native) clientMessage(w xproto.Window, atomName string, data0 uint32) error {
	reply, err := xproto.InternAtom(n.xu.Conn(), false, uint16(len(atomName)), atomName).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", atomName, err)
	}
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: w,
		Type:   reply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{data0, 0, 0, 0, 0}),
	}
	return xproto.SendEventChecked(
		n.xu.Conn(),
		false,
		n.xu.RootWin(),
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// CursorPos returns the pointer position on the root window.
func (n *Native) CursorPos() (window.Point, error) {
	reply, err := xproto.QueryPointer(n.xu.Conn(), n.xu.RootWin()).Reply()
	if err != nil {
		return window.Point{}, fmt.Errorf("query pointer: %w", err)
	}
	return window.Point{X: int(reply.RootX), Y: int(reply.RootY)}, nil
}

// Grab reads the window's composited backing pixmap when Composite is
// available, so occluded windows capture correctly. Unmapped windows have
// no pixmap and report capture.ErrNoFrame. Iconified windows are unmapped
// under X11, so a minimized window only yields the frame the pipeline cached
// while it was visible; with no cached frame the capture times out.
func (n *Native) Grab(h window.Handle) (*capture.Bitmap, error) {
	w := xproto.Window(h)
	geom, err := xproto.GetGeometry(n.xu.Conn(), xproto.Drawable(w)).Reply()
	if err != nil {
		return nil, failure.Wrap(failure.WindowGone, err, "window "+h.String()+" closed")
	}
	attrs, err := xproto.GetWindowAttributes(n.xu.Conn(), w).Reply()
	if err != nil {
		return nil, failure.Wrap(failure.WindowGone, err, "window "+h.String()+" closed")
	}
	if attrs.MapState != xproto.MapStateViewable {
		return nil, capture.ErrNoFrame
	}

	width, height := geom.Width, geom.Height
	drawable := xproto.Drawable(w)
	if n.composite {
		pix, err := n.namePixmap(w)
		if err == nil {
			defer xproto.FreePixmap(n.xu.Conn(), pix)
			drawable = xproto.Drawable(pix)
		}
	}
	img, err := xproto.GetImage(n.xu.Conn(), xproto.ImageFormatZPixmap, drawable, 0, 0, width, height, ^uint32(0)).Reply()
	if err != nil {
		return nil, capture.ErrNoFrame
	}
	return capture.FromBGRA(int(width), int(height), int(width)*4, img.Data)
}

// namePixmap redirects w offscreen on first use and names its current pixmap.
func (n *Native) namePixmap(w xproto.Window) (xproto.Pixmap, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := n.xu.Conn()
	if !n.redirected[w] {
		if err := composite.RedirectWindowChecked(c, w, composite.RedirectAutomatic).Check(); err != nil {
			return 0, err
		}
		n.redirected[w] = true
	}
	pix, err := xproto.NewPixmapId(c)
	if err != nil {
		return 0, err
	}
	if err := composite.NameWindowPixmapChecked(c, w, pix).Check(); err != nil {
		return 0, err
	}
	return pix, nil
}
