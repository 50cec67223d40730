// Package winapi wraps the handful of user32 queries the core needs: the
// window under a point, its owning process, and a window's screen rectangle.
package winapi

import "errors"

var (
	ErrUnsupported = errors.New("window queries are only available on Windows")
	ErrNoWindow    = errors.New("no window at point")
	ErrNoRect      = errors.New("window rectangle unavailable")
)

// Desktop answers window and process questions about the live desktop.
// It holds no state; every call queries the OS.
type Desktop struct{}

func NewDesktop() Desktop { return Desktop{} }
