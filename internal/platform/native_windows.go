//go:build windows

package platform

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/window"
	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

// pwClientOnly | pwRenderFullContent: the DWM composes the client area even
// for hardware-accelerated or occluded windows.
const printWindowFlags = 0x1 | 0x2

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows        = user32.NewProc("EnumWindows")
	procGetWindowTextW     = user32.NewProc("GetWindowTextW")
	procGetWindowTextLenW  = user32.NewProc("GetWindowTextLengthW")
	procIsWindow           = user32.NewProc("IsWindow")
	procPrintWindow        = user32.NewProc("PrintWindow")
	procSetProcessDPIAware = user32.NewProc("SetProcessDPIAware")
	procAdjustWindowRectEx = user32.NewProc("AdjustWindowRectEx")
	procGetMenu            = user32.NewProc("GetMenu")
)

// Native drives Win32 top-level windows.
type Native struct{}

var _ Desktop = (*Native)(nil)

// New marks the process DPI aware so client rectangles are physical pixels.
func New() (*Native, error) {
	if err := procSetProcessDPIAware.Find(); err == nil {
		procSetProcessDPIAware.Call()
	}
	return &Native{}, nil
}

// Name identifies the backend.
func (n *Native) Name() string {
	return "win32"
}

// Close is a no-op; the backend holds no handles between calls.
func (n *Native) Close() error {
	return nil
}

// Windows enumerates visible top-level application windows, minimized ones included.
func (n *Native) Windows() ([]window.Info, error) {
	state := &enumState{}
	callback := syscall.NewCallback(state.enumProc)
	r, _, err := procEnumWindows.Call(callback, 0)
	if r == 0 {
		return nil, fmt.Errorf("EnumWindows failed: %w", err)
	}
	out := make([]window.Info, 0, len(state.hwnds))
	for _, hwnd := range state.hwnds {
		info, err := describe(hwnd)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

type enumState struct {
	hwnds []win.HWND
}

func (s *enumState) enumProc(hwnd win.HWND, lparam uintptr) uintptr {
	if isAppWindow(hwnd) {
		s.hwnds = append(s.hwnds, hwnd)
	}
	return 1
}

// isAppWindow keeps what the task switcher would show.
func isAppWindow(hwnd win.HWND) bool {
	if !win.IsWindowVisible(hwnd) {
		return false
	}
	if windowText(hwnd) == "" {
		return false
	}
	if win.GetWindowLong(hwnd, win.GWL_EXSTYLE)&win.WS_EX_TOOLWINDOW != 0 {
		return false
	}
	return win.GetAncestor(hwnd, win.GA_ROOTOWNER) == hwnd || win.GetWindow(hwnd, win.GW_OWNER) == 0
}

// Window returns a fresh snapshot of one window.
func (n *Native) Window(h window.Handle) (window.Info, error) {
	hwnd := win.HWND(uintptr(h))
	if !isWindow(hwnd) {
		return window.Info{}, failure.New(failure.NotFound, "no window with handle %s", h)
	}
	return describe(hwnd)
}

func describe(hwnd win.HWND) (window.Info, error) {
	info := window.Info{
		Handle:    window.Handle(uintptr(hwnd)),
		Title:     windowText(hwnd),
		Class:     className(hwnd),
		Minimized: win.IsIconic(hwnd),
	}
	rect, err := clientRect(hwnd, info.Minimized)
	if err != nil {
		return window.Info{}, err
	}
	info.Client = rect
	return info, nil
}

// clientRect returns the client area in screen coordinates. Minimized
// windows report their restored client area: the restored placement minus
// the frame, moved from workspace to screen coordinates.
func clientRect(hwnd win.HWND, minimized bool) (window.Rect, error) {
	if minimized {
		var wp win.WINDOWPLACEMENT
		wp.Length = uint32(unsafe.Sizeof(wp))
		if !win.GetWindowPlacement(hwnd, &wp) {
			return window.Rect{}, fmt.Errorf("GetWindowPlacement: %w", lastError())
		}
		r := wp.RcNormalPosition
		normal := window.Rect{X: int(r.Left), Y: int(r.Top), W: int(r.Right - r.Left), H: int(r.Bottom - r.Top)}
		return restoredClient(normal, frameOf(hwnd), workOffset(hwnd)), nil
	}
	var rc win.RECT
	if !win.GetClientRect(hwnd, &rc) {
		return window.Rect{}, failure.Wrap(failure.WindowGone, lastError(), "GetClientRect")
	}
	origin := win.POINT{}
	if !win.ClientToScreen(hwnd, &origin) {
		return window.Rect{}, failure.Wrap(failure.WindowGone, lastError(), "ClientToScreen")
	}
	return window.Rect{X: int(origin.X), Y: int(origin.Y), W: int(rc.Right - rc.Left), H: int(rc.Bottom - rc.Top)}, nil
}

// frameOf measures the non-client border for the window's styles.
func frameOf(hwnd win.HWND) frameInsets {
	var rc win.RECT
	style := uint32(win.GetWindowLong(hwnd, win.GWL_STYLE))
	exStyle := uint32(win.GetWindowLong(hwnd, win.GWL_EXSTYLE))
	menu, _, _ := procGetMenu.Call(uintptr(hwnd))
	hasMenu := uintptr(0)
	if menu != 0 {
		hasMenu = 1
	}
	r, _, _ := procAdjustWindowRectEx.Call(uintptr(unsafe.Pointer(&rc)), uintptr(style), hasMenu, uintptr(exStyle))
	if r == 0 {
		return frameInsets{}
	}
	return frameInsets{Left: int(-rc.Left), Top: int(-rc.Top), Right: int(rc.Right), Bottom: int(rc.Bottom)}
}

// workOffset is how far the work area of the window's monitor sits from the
// monitor origin; placement rectangles are relative to the work area.
func workOffset(hwnd win.HWND) window.Point {
	if uint32(win.GetWindowLong(hwnd, win.GWL_EXSTYLE))&win.WS_EX_TOOLWINDOW != 0 {
		return window.Point{}
	}
	var mi win.MONITORINFO
	mi.CbSize = uint32(unsafe.Sizeof(mi))
	if !win.GetMonitorInfo(win.MonitorFromWindow(hwnd, win.MONITOR_DEFAULTTONEAREST), &mi) {
		return window.Point{}
	}
	return window.Point{X: int(mi.RcWork.Left - mi.RcMonitor.Left), Y: int(mi.RcWork.Top - mi.RcMonitor.Top)}
}

// Restore shows a minimized window at its previous placement.
func (n *Native) Restore(h window.Handle) error {
	hwnd := win.HWND(uintptr(h))
	if !isWindow(hwnd) {
		return failure.New(failure.NotFound, "no window with handle %s", h)
	}
	win.ShowWindow(hwnd, win.SW_RESTORE)
	if win.IsIconic(hwnd) {
		return fmt.Errorf("window %s did not restore", h)
	}
	return nil
}

// Minimize iconifies a window.
func (n *Native) Minimize(h window.Handle) error {
	hwnd := win.HWND(uintptr(h))
	if !isWindow(hwnd) {
		return failure.New(failure.NotFound, "no window with handle %s", h)
	}
	win.ShowWindow(hwnd, win.SW_MINIMIZE)
	if !win.IsIconic(hwnd) {
		return fmt.Errorf("window %s did not minimize", h)
	}
	return nil
}

// Focus asks the shell to make the window foreground.
func (n *Native) Focus(h window.Handle) error {
	hwnd := win.HWND(uintptr(h))
	if !isWindow(hwnd) {
		return failure.New(failure.NotFound, "no window with handle %s", h)
	}
	if !win.SetForegroundWindow(hwnd) {
		return errors.New("SetForegroundWindow refused")
	}
	return nil
}

// CursorPos returns the cursor in screen coordinates.
func (n *Native) CursorPos() (window.Point, error) {
	var pt win.POINT
	if !win.GetCursorPos(&pt) {
		return window.Point{}, fmt.Errorf("GetCursorPos: %w", lastError())
	}
	return window.Point{X: int(pt.X), Y: int(pt.Y)}, nil
}

// Grab renders the client area through PrintWindow, falling back to a GDI
// copy of the window DC when PrintWindow is refused.
func (n *Native) Grab(h window.Handle) (*capture.Bitmap, error) {
	hwnd := win.HWND(uintptr(h))
	if !isWindow(hwnd) {
		return nil, failure.New(failure.WindowGone, "window %s closed", h)
	}
	minimized := win.IsIconic(hwnd)
	rect, err := clientRect(hwnd, minimized)
	if err != nil {
		return nil, err
	}
	if rect.W <= 0 || rect.H <= 0 {
		return nil, capture.ErrNoFrame
	}

	screen := win.GetDC(0)
	if screen == 0 {
		return nil, errors.New("GetDC failed")
	}
	defer win.ReleaseDC(0, screen)
	mem := win.CreateCompatibleDC(screen)
	if mem == 0 {
		return nil, errors.New("CreateCompatibleDC failed")
	}
	defer win.DeleteDC(mem)
	bmp := win.CreateCompatibleBitmap(screen, int32(rect.W), int32(rect.H))
	if bmp == 0 {
		return nil, errors.New("CreateCompatibleBitmap failed")
	}
	defer win.DeleteObject(win.HGDIOBJ(bmp))
	old := win.SelectObject(mem, win.HGDIOBJ(bmp))
	defer win.SelectObject(mem, old)

	if r, _, _ := procPrintWindow.Call(uintptr(hwnd), uintptr(mem), printWindowFlags); r == 0 {
		if minimized {
			return nil, capture.ErrNoFrame
		}
		src := win.GetDC(hwnd)
		if src == 0 {
			return nil, capture.ErrNoFrame
		}
		ok := win.BitBlt(mem, 0, 0, int32(rect.W), int32(rect.H), src, 0, 0, win.SRCCOPY|win.CAPTUREBLT)
		win.ReleaseDC(hwnd, src)
		if !ok {
			return nil, fmt.Errorf("BitBlt: %w", lastError())
		}
	}
	return readDIB(mem, bmp, rect.W, rect.H)
}

// readDIB copies a bitmap out as top-down 32-bit BGRA.
func readDIB(dc win.HDC, bmp win.HBITMAP, w, h int) (*capture.Bitmap, error) {
	var bi win.BITMAPINFO
	bi.BmiHeader.BiSize = uint32(unsafe.Sizeof(bi.BmiHeader))
	bi.BmiHeader.BiWidth = int32(w)
	bi.BmiHeader.BiHeight = -int32(h)
	bi.BmiHeader.BiPlanes = 1
	bi.BmiHeader.BiBitCount = 32
	bi.BmiHeader.BiCompression = win.BI_RGB

	buf := make([]byte, w*h*4)
	if win.GetDIBits(dc, bmp, 0, uint32(h), &buf[0], &bi, win.DIB_RGB_COLORS) == 0 {
		return nil, errors.New("GetDIBits failed")
	}
	return capture.FromBGRA(w, h, w*4, buf)
}

func isWindow(hwnd win.HWND) bool {
	r, _, _ := procIsWindow.Call(uintptr(hwnd))
	return r != 0
}

func windowText(hwnd win.HWND) string {
	n, _, _ := procGetWindowTextLenW.Call(uintptr(hwnd))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}

func className(hwnd win.HWND) string {
	buf := make([]uint16, 256)
	n, err := win.GetClassName(hwnd, &buf[0], len(buf))
	if err != nil || n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func lastError() error {
	if code := win.GetLastError(); code != 0 {
		return syscall.Errno(code)
	}
	return errors.New("unknown error")
}
