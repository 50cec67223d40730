package geometry

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrNoMonitors is returned when a mapping is requested against an empty topology.
	ErrNoMonitors = errors.New("monitor list is empty")
	// ErrMonitorIndex is returned when a monitor index does not exist in the snapshot.
	ErrMonitorIndex = errors.New("monitor index out of range")
)

// ScreenRect is a rectangle in absolute virtual-screen pixels.
// Coordinates can be negative (a monitor left of or above the primary).
type ScreenRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r ScreenRect) CenterX() int { return r.X + r.Width/2 }

func (r ScreenRect) CenterY() int { return r.Y + r.Height/2 }

// Empty reports whether the rect has no area.
func (r ScreenRect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Bounds converts the rect to an image.Rectangle (Max is exclusive).
func (r ScreenRect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r ScreenRect) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d)", r.Width, r.Height, r.X, r.Y)
}

// FromBounds builds a ScreenRect from an image.Rectangle.
func FromBounds(b image.Rectangle) ScreenRect {
	b = b.Canon()
	return ScreenRect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
}

// MonitorDescriptor describes one connected display in absolute coordinates.
type MonitorDescriptor struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	IsPrimary bool `json:"is_primary"`
}

// Contains uses half-open intervals on both axes, so a point on the right or
// bottom edge belongs to the neighbouring monitor, never to this one.
func (m MonitorDescriptor) Contains(x, y int) bool {
	return m.X <= x && x < m.X+m.Width && m.Y <= y && y < m.Y+m.Height
}

func (m MonitorDescriptor) Rect() ScreenRect {
	return ScreenRect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// MonitorRelativeRect is a rectangle relative to a monitor's origin.
type MonitorRelativeRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Placement pairs a relative rect with the index of its monitor in the
// snapshot it was computed from. Indices from different snapshots must not be mixed.
type Placement struct {
	MonitorIndex int                 `json:"monitor_index"`
	Rect         MonitorRelativeRect `json:"rect"`
}
