//go:build !windows && !linux

package monitor

// ListMonitors returns ErrUnsupported on this platform.
func ListMonitors() ([]Monitor, error) {
	return nil, ErrUnsupported
}
