//go:build linux

package monitor

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/frudas24/pdb/internal/window"
)

// ListMonitors queries Xinerama for the active screens. Without Xinerama the
// root window is reported as a single display.
func ListMonitors() ([]Monitor, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X server: %w", err)
	}
	defer conn.Close()

	if err := xinerama.Init(conn); err == nil {
		reply, err := xinerama.QueryScreens(conn).Reply()
		if err == nil && len(reply.ScreenInfo) > 0 {
			list := make([]Monitor, 0, len(reply.ScreenInfo))
			for i, s := range reply.ScreenInfo {
				r := window.Rect{X: int(s.XOrg), Y: int(s.YOrg), W: int(s.Width), H: int(s.Height)}
				list = append(list, Monitor{Index: i + 1, Bounds: r, Work: r, Primary: i == 0})
			}
			return list, nil
		}
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	r := window.Rect{W: int(screen.WidthInPixels), H: int(screen.HeightInPixels)}
	return []Monitor{{Index: 1, Bounds: r, Work: r, Primary: true}}, nil
}
