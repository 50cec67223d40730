//go:build !windows

package uitree

import "screen-ui-agent/src/geometry"

// NewWin32Provider returns a provider whose every call fails with ErrUnsupported.
func NewWin32Provider() *Win32Provider {
	return &Win32Provider{src: unsupportedSource{}}
}

type unsupportedSource struct{}

func (unsupportedSource) Valid(Handle) bool { return false }

func (unsupportedSource) Descendants(Handle) ([]Handle, error) { return nil, ErrUnsupported }

func (unsupportedSource) Visible(Handle) bool { return false }

func (unsupportedSource) Text(Handle) (string, error) { return "", ErrUnsupported }

func (unsupportedSource) ClassName(Handle) string { return "" }

func (unsupportedSource) ControlID(Handle) int { return 0 }

func (unsupportedSource) Rect(Handle) (geometry.ScreenRect, bool) { return geometry.ScreenRect{}, false }
