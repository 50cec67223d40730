//go:build !windows

package winapi

import (
	"screen-ui-agent/src/geometry"
	"screen-ui-agent/src/uitree"
)

func (Desktop) WindowAtPoint(x, y int) (uitree.Handle, error) { return 0, ErrUnsupported }

func (Desktop) OwningProcessID(uitree.Handle) (uint32, error) { return 0, ErrUnsupported }

func (Desktop) WindowRect(uitree.Handle) (geometry.ScreenRect, error) {
	return geometry.ScreenRect{}, ErrUnsupported
}
