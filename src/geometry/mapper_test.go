package geometry

import (
	"errors"
	"testing"
)

// Two 1920x1080 monitors side by side; the secondary sits left of the origin.
var sideBySide = []MonitorDescriptor{
	{X: 0, Y: 0, Width: 1920, Height: 1080, IsPrimary: true},
	{X: -1920, Y: 0, Width: 1920, Height: 1080},
}

func TestToMonitorRelativeContained(t *testing.T) {
	tests := []struct {
		name      string
		rect      ScreenRect
		monitors  []MonitorDescriptor
		wantIndex int
	}{
		{"primary", ScreenRect{X: 100, Y: 200, Width: 50, Height: 20}, sideBySide, 0},
		{"secondary with negative x", ScreenRect{X: -500, Y: 10, Width: 100, Height: 40}, sideBySide, 1},
		{"zero area rect", ScreenRect{X: -1, Y: 5}, sideBySide, 1},
		{"stacked vertical", ScreenRect{X: 10, Y: 1200, Width: 10, Height: 10}, []MonitorDescriptor{
			{X: 0, Y: 0, Width: 1920, Height: 1080, IsPrimary: true},
			{X: 0, Y: 1080, Width: 1920, Height: 1080},
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMonitorRelative(tt.rect, tt.monitors)
			if err != nil {
				t.Fatalf("ToMonitorRelative failed: %v", err)
			}
			if got.MonitorIndex != tt.wantIndex {
				t.Fatalf("Expected monitor %d, got %d", tt.wantIndex, got.MonitorIndex)
			}
			m := tt.monitors[got.MonitorIndex]
			if got.Rect.X+m.X != tt.rect.X || got.Rect.Y+m.Y != tt.rect.Y {
				t.Errorf("Relative origin (%d,%d) does not map back to (%d,%d)", got.Rect.X, got.Rect.Y, tt.rect.X, tt.rect.Y)
			}
			if got.Rect.Width != tt.rect.Width || got.Rect.Height != tt.rect.Height {
				t.Errorf("Size changed: got %dx%d, want %dx%d", got.Rect.Width, got.Rect.Height, tt.rect.Width, tt.rect.Height)
			}
		})
	}
}

func TestToMonitorRelativeHalfOpenEdge(t *testing.T) {
	monitors := []MonitorDescriptor{
		{X: 0, Y: 0, Width: 1920, Height: 1080, IsPrimary: true},
		{X: 1920, Y: 0, Width: 1280, Height: 1024},
	}

	// Center lands exactly on x=1920, the right edge of monitor 0.
	rect := ScreenRect{X: 1910, Y: 100, Width: 20, Height: 20}
	got, err := ToMonitorRelative(rect, monitors)
	if err != nil {
		t.Fatalf("ToMonitorRelative failed: %v", err)
	}
	if got.MonitorIndex != 1 {
		t.Fatalf("Expected the right-edge center to belong to monitor 1, got %d", got.MonitorIndex)
	}
	if got.Rect.X != -10 {
		t.Errorf("Expected relative x=-10, got %d", got.Rect.X)
	}

	// Same center with nothing to the right falls back to the primary.
	got, err = ToMonitorRelative(rect, monitors[:1])
	if err != nil {
		t.Fatalf("ToMonitorRelative failed: %v", err)
	}
	if got.MonitorIndex != 0 {
		t.Fatalf("Expected fallback to primary, got %d", got.MonitorIndex)
	}

	// Bottom edge behaves the same way.
	rect = ScreenRect{X: 100, Y: 1070, Width: 20, Height: 20}
	got, _ = ToMonitorRelative(rect, []MonitorDescriptor{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 0, Y: 1080, Width: 1920, Height: 1080, IsPrimary: true},
	})
	if got.MonitorIndex != 1 {
		t.Errorf("Expected bottom-edge center to belong to monitor 1, got %d", got.MonitorIndex)
	}
}

func TestToMonitorRelativeOffscreenFallback(t *testing.T) {
	tests := []struct {
		name      string
		rect      ScreenRect
		monitors  []MonitorDescriptor
		wantIndex int
	}{
		{"far negative uses flagged primary", ScreenRect{X: -99999, Y: -99999, Width: 10, Height: 10}, []MonitorDescriptor{
			{X: -1920, Y: 0, Width: 1920, Height: 1080},
			{X: 0, Y: 0, Width: 1920, Height: 1080, IsPrimary: true},
		}, 1},
		{"far positive uses flagged primary", ScreenRect{X: 50000, Y: 50000, Width: 10, Height: 10}, []MonitorDescriptor{
			{X: -1920, Y: 0, Width: 1920, Height: 1080},
			{X: 0, Y: 0, Width: 1920, Height: 1080, IsPrimary: true},
		}, 1},
		{"no primary flag uses index 0", ScreenRect{X: 5000, Y: 5000, Width: 10, Height: 10}, []MonitorDescriptor{
			{X: 0, Y: 0, Width: 800, Height: 600},
			{X: 800, Y: 0, Width: 800, Height: 600},
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMonitorRelative(tt.rect, tt.monitors)
			if err != nil {
				t.Fatalf("ToMonitorRelative failed: %v", err)
			}
			if got.MonitorIndex != tt.wantIndex {
				t.Fatalf("Expected monitor %d, got %d", tt.wantIndex, got.MonitorIndex)
			}
			m := tt.monitors[tt.wantIndex]
			if got.Rect.X != tt.rect.X-m.X || got.Rect.Y != tt.rect.Y-m.Y {
				t.Errorf("Unexpected relative origin (%d,%d)", got.Rect.X, got.Rect.Y)
			}
		})
	}
}

func TestToMonitorRelativeOverlapUsesListOrder(t *testing.T) {
	monitors := []MonitorDescriptor{
		{X: 0, Y: 0, Width: 1000, Height: 1000},
		{X: 0, Y: 0, Width: 1000, Height: 1000, IsPrimary: true},
	}
	got, err := ToMonitorRelative(ScreenRect{X: 10, Y: 10, Width: 10, Height: 10}, monitors)
	if err != nil {
		t.Fatalf("ToMonitorRelative failed: %v", err)
	}
	if got.MonitorIndex != 0 {
		t.Errorf("Expected first listed monitor to win, got %d", got.MonitorIndex)
	}
}

func TestToMonitorRelativeEmptyMonitors(t *testing.T) {
	_, err := ToMonitorRelative(ScreenRect{Width: 10, Height: 10}, nil)
	if !errors.Is(err, ErrNoMonitors) {
		t.Fatalf("Expected ErrNoMonitors, got %v", err)
	}
}

func TestFromMonitorRelativeRoundTrip(t *testing.T) {
	rect := ScreenRect{X: -700, Y: 300, Width: 120, Height: 30}
	p, err := ToMonitorRelative(rect, sideBySide)
	if err != nil {
		t.Fatalf("ToMonitorRelative failed: %v", err)
	}
	back, err := FromMonitorRelative(p, sideBySide)
	if err != nil {
		t.Fatalf("FromMonitorRelative failed: %v", err)
	}
	if back != rect {
		t.Errorf("Round trip mismatch: got %v, want %v", back, rect)
	}

	if _, err := FromMonitorRelative(Placement{MonitorIndex: 5}, sideBySide); !errors.Is(err, ErrMonitorIndex) {
		t.Errorf("Expected ErrMonitorIndex, got %v", err)
	}
}

func TestUnionAndIntersect(t *testing.T) {
	u, err := Union(sideBySide)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	want := ScreenRect{X: -1920, Y: 0, Width: 3840, Height: 1080}
	if u != want {
		t.Errorf("Union = %v, want %v", u, want)
	}

	clipped := IntersectMonitors(ScreenRect{X: 1900, Y: 1000, Width: 100, Height: 100}, sideBySide)
	if clipped != (ScreenRect{X: 1900, Y: 1000, Width: 20, Height: 80}) {
		t.Errorf("Unexpected clipped rect %v", clipped)
	}

	if !IntersectMonitors(ScreenRect{X: 5000, Y: 5000, Width: 10, Height: 10}, sideBySide).Empty() {
		t.Error("Expected off-screen rect to clip to empty")
	}
}
