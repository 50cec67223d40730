//go:build windows

package winapi

import (
	"fmt"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"screen-ui-agent/src/geometry"
	"screen-ui-agent/src/uitree"
)

// WindowAtPoint returns the top-level window under a screen point. The answer
// can change between the caller's observation and this query.
func (Desktop) WindowAtPoint(x, y int) (uitree.Handle, error) {
	hwnd := win.WindowFromPoint(win.POINT{X: int32(x), Y: int32(y)})
	if hwnd == 0 {
		return 0, fmt.Errorf("%w (%d,%d)", ErrNoWindow, x, y)
	}
	if root := win.GetAncestor(hwnd, win.GA_ROOT); root != 0 {
		hwnd = root
	}
	return uitree.Handle(hwnd), nil
}

// OwningProcessID returns the id of the process that created the window.
func (Desktop) OwningProcessID(window uitree.Handle) (uint32, error) {
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(windows.HWND(window), &pid); err != nil {
		return 0, fmt.Errorf("GetWindowThreadProcessId(%s): %w", window, err)
	}
	return pid, nil
}

// WindowRect returns the window's current bounds in screen coordinates.
func (Desktop) WindowRect(window uitree.Handle) (geometry.ScreenRect, error) {
	hwnd := win.HWND(window)
	if !uitree.IsWindow(window) {
		return geometry.ScreenRect{}, fmt.Errorf("%w: %s", uitree.ErrInvalidHandle, window)
	}
	var r win.RECT
	if !win.GetWindowRect(hwnd, &r) {
		return geometry.ScreenRect{}, fmt.Errorf("%w: %s", ErrNoRect, window)
	}
	rect := geometry.ScreenRect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}
	if rect.Empty() {
		return geometry.ScreenRect{}, fmt.Errorf("%w: %s has no area", ErrNoRect, window)
	}
	return rect, nil
}
