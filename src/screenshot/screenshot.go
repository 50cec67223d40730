package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log"

	"github.com/kbinani/screenshot"

	"screen-ui-agent/src/geometry"
)

// displays is the part of github.com/kbinani/screenshot this package uses.
type displays interface {
	NumActiveDisplays() int
	GetDisplayBounds(i int) image.Rectangle
	CaptureRect(r image.Rectangle) (*image.RGBA, error)
}

type kbinaniDisplays struct{}

func (kbinaniDisplays) NumActiveDisplays() int { return screenshot.NumActiveDisplays() }

func (kbinaniDisplays) GetDisplayBounds(i int) image.Rectangle { return screenshot.GetDisplayBounds(i) }

func (kbinaniDisplays) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

// Topology reports the current monitor layout. Nothing is cached: monitors can
// be plugged or rearranged between calls.
type Topology struct {
	d displays
}

func NewTopology() *Topology { return &Topology{d: kbinaniDisplays{}} }

// Monitors returns every active display in enumeration order. The primary is
// the display whose bounds contain the desktop origin.
func (t *Topology) Monitors(ctx context.Context) ([]geometry.MonitorDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := t.d.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}

	monitors := make([]geometry.MonitorDescriptor, 0, n)
	primary := -1
	for i := 0; i < n; i++ {
		b := t.d.GetDisplayBounds(i)
		m := geometry.MonitorDescriptor{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
		if primary < 0 && m.Contains(0, 0) {
			primary = i
			m.IsPrimary = true
		}
		monitors = append(monitors, m)
	}
	if primary < 0 {
		monitors[0].IsPrimary = true
	}
	return monitors, nil
}

// Capturer grabs screen pixels for OCR.
type Capturer struct {
	d        displays
	topology *Topology
}

func NewCapturer() *Capturer {
	d := kbinaniDisplays{}
	return &Capturer{d: d, topology: &Topology{d: d}}
}

// Capture returns the pixels of rect, clipped to the visible desktop. A rect
// lying entirely off-screen is an error.
func (c *Capturer) Capture(ctx context.Context, rect geometry.ScreenRect) (image.Image, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("invalid region dimensions: width=%d, height=%d", rect.Width, rect.Height)
	}
	monitors, err := c.topology.Monitors(ctx)
	if err != nil {
		return nil, err
	}
	visible := geometry.IntersectMonitors(rect, monitors)
	if visible.Empty() {
		return nil, fmt.Errorf("region %v is outside every display", rect)
	}
	if visible != rect {
		log.Printf("SCREENSHOT: clipped %v to visible %v", rect, visible)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := c.d.CaptureRect(visible.Bounds())
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}
