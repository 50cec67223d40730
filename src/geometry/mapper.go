package geometry

import "image"

// ToMonitorRelative maps an absolute rect onto the monitor containing its center.
//
// Monitors are scanned in list order and the first one containing the center
// wins. When the center is outside every monitor the rect is expressed against
// the primary monitor (index 0 if none is flagged). Width and height pass
// through unchanged. An empty monitor list is the only rejected input.
func ToMonitorRelative(rect ScreenRect, monitors []MonitorDescriptor) (Placement, error) {
	if len(monitors) == 0 {
		return Placement{}, ErrNoMonitors
	}

	cx, cy := rect.CenterX(), rect.CenterY()

	idx := -1
	for i, m := range monitors {
		if m.Contains(cx, cy) {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = PrimaryIndex(monitors)
	}

	m := monitors[idx]
	return Placement{
		MonitorIndex: idx,
		Rect: MonitorRelativeRect{
			X:      rect.X - m.X,
			Y:      rect.Y - m.Y,
			Width:  rect.Width,
			Height: rect.Height,
		},
	}, nil
}

// FromMonitorRelative is the inverse of ToMonitorRelative for the same snapshot.
func FromMonitorRelative(p Placement, monitors []MonitorDescriptor) (ScreenRect, error) {
	if len(monitors) == 0 {
		return ScreenRect{}, ErrNoMonitors
	}
	if p.MonitorIndex < 0 || p.MonitorIndex >= len(monitors) {
		return ScreenRect{}, ErrMonitorIndex
	}
	m := monitors[p.MonitorIndex]
	return ScreenRect{
		X:      p.Rect.X + m.X,
		Y:      p.Rect.Y + m.Y,
		Width:  p.Rect.Width,
		Height: p.Rect.Height,
	}, nil
}

// PrimaryIndex returns the index of the first monitor flagged primary, or 0.
func PrimaryIndex(monitors []MonitorDescriptor) int {
	for i, m := range monitors {
		if m.IsPrimary {
			return i
		}
	}
	return 0
}

// Union returns the virtual-desktop bounds spanning every monitor.
func Union(monitors []MonitorDescriptor) (ScreenRect, error) {
	if len(monitors) == 0 {
		return ScreenRect{}, ErrNoMonitors
	}
	u := monitors[0].Rect().Bounds()
	for _, m := range monitors[1:] {
		u = u.Union(m.Rect().Bounds())
	}
	return FromBounds(u), nil
}

// IntersectMonitors clips rect to the virtual desktop. The result is empty
// when the rect lies entirely off-screen.
func IntersectMonitors(rect ScreenRect, monitors []MonitorDescriptor) ScreenRect {
	var visible image.Rectangle
	b := rect.Bounds()
	for _, m := range monitors {
		visible = visible.Union(b.Intersect(m.Rect().Bounds()))
	}
	return FromBounds(visible)
}
