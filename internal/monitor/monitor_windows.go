//go:build windows

package monitor

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/frudas24/pdb/internal/window"
	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
)

// ListMonitors returns the displays in EnumDisplayMonitors order.
func ListMonitors() ([]Monitor, error) {
	state := &enumState{}
	callback := syscall.NewCallback(state.enumProc)

	if r, _, err := procEnumDisplayMonitors.Call(0, 0, callback, 0); r == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors failed: %w", err)
	}
	if len(state.list) == 0 {
		return nil, fmt.Errorf("no monitors detected")
	}
	return state.list, nil
}

type enumState struct {
	list []Monitor
}

func (s *enumState) enumProc(hMonitor win.HMONITOR, _ win.HDC, _ *win.RECT, _ uintptr) uintptr {
	var info win.MONITORINFO
	info.CbSize = uint32(unsafe.Sizeof(info))
	if !win.GetMonitorInfo(hMonitor, &info) {
		return 1
	}
	s.list = append(s.list, Monitor{
		Index:   len(s.list) + 1,
		Bounds:  rect(info.RcMonitor),
		Work:    rect(info.RcWork),
		Primary: info.DwFlags&win.MONITORINFOF_PRIMARY != 0,
	})
	return 1
}

func rect(r win.RECT) window.Rect {
	return window.Rect{
		X: int(r.Left),
		Y: int(r.Top),
		W: int(r.Right - r.Left),
		H: int(r.Bottom - r.Top),
	}
}
