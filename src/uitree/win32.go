package uitree

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"screen-ui-agent/src/geometry"
)

var ErrUnsupported = errors.New("win32 UI tree is only available on Windows")

// windowSource is the slice of user32 the Win32 provider needs.
type windowSource interface {
	Valid(h Handle) bool
	// Descendants lists every descendant of parent, depth-first pre-order.
	Descendants(parent Handle) ([]Handle, error)
	Visible(h Handle) bool
	Text(h Handle) (string, error)
	ClassName(h Handle) string
	ControlID(h Handle) int
	Rect(h Handle) (geometry.ScreenRect, bool)
}

// Win32Provider exposes the child-window hierarchy of a top-level window as a
// UI tree. Each call walks the live hierarchy; nothing is cached.
type Win32Provider struct {
	src windowSource
}

var _ Provider = (*Win32Provider)(nil)

func (p *Win32Provider) describe(h Handle) NodeInfo {
	class := p.src.ClassName(h)
	name, _ := p.src.Text(h)
	info := NodeInfo{
		Name:        name,
		ClassName:   class,
		ControlType: ControlTypeForClass(class),
	}
	if id := p.src.ControlID(h); id != 0 {
		info.AutomationID = strconv.Itoa(id)
	}
	if r, ok := p.src.Rect(h); ok {
		info.Bounds = r
	}
	return info
}

func (p *Win32Provider) FindNodes(ctx context.Context, window Handle, filters []Filter) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.src.Valid(window) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, window)
	}

	children, err := p.src.Descendants(window)
	if err != nil {
		return nil, fmt.Errorf("enumerate children of %s: %w", window, err)
	}

	var matches []Node
	for _, h := range children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info := p.describe(h)
		if MatchAll(filters, info) {
			matches = append(matches, Node{Handle: h, Info: info})
		}
	}
	log.Printf("UITREE: %d of %d nodes under %s matched %v", len(matches), len(children), window, filters)
	return matches, nil
}

func (p *Win32Provider) Text(ctx context.Context, target Target, includeChildren bool) (TextRead, error) {
	if err := ctx.Err(); err != nil {
		return TextRead{}, err
	}

	h := target.Window
	if target.Node != nil {
		h = target.Node.Handle
	}
	if !p.src.Valid(h) {
		return TextRead{Err: fmt.Errorf("%w: %s", ErrInvalidHandle, h)}, nil
	}

	own, err := p.src.Text(h)
	if err != nil {
		return TextRead{Err: fmt.Errorf("read text of %s: %w", h, err)}, nil
	}
	if !includeChildren {
		return TextRead{Success: true, Text: own}, nil
	}

	parts := make([]string, 0, 8)
	if strings.TrimSpace(own) != "" {
		parts = append(parts, own)
	}
	children, err := p.src.Descendants(h)
	if err != nil {
		return TextRead{Err: fmt.Errorf("enumerate children of %s: %w", h, err)}, nil
	}
	for _, c := range children {
		if err := ctx.Err(); err != nil {
			return TextRead{}, err
		}
		if !p.src.Visible(c) {
			continue
		}
		text, err := p.src.Text(c)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}
	return TextRead{Success: true, Text: strings.Join(parts, "\n")}, nil
}

// ControlTypeForClass maps well-known Win32 window classes onto UI Automation
// control type names. Unknown classes are reported as Pane.
func ControlTypeForClass(class string) string {
	c := strings.ToLower(class)
	switch {
	case c == "button":
		return "Button"
	case c == "edit":
		return "Edit"
	case c == "static":
		return "Text"
	case c == "combobox", c == "comboboxex32":
		return "ComboBox"
	case c == "listbox", c == "syslistview32":
		return "List"
	case c == "systreeview32":
		return "Tree"
	case c == "systabcontrol32":
		return "Tab"
	case c == "msctls_progress32":
		return "ProgressBar"
	case c == "msctls_trackbar32":
		return "Slider"
	case c == "scrollbar":
		return "ScrollBar"
	case c == "toolbarwindow32":
		return "ToolBar"
	case c == "msctls_statusbar32":
		return "StatusBar"
	case c == "sysheader32":
		return "Header"
	case c == "syslink":
		return "Hyperlink"
	case strings.HasPrefix(c, "richedit"):
		return "Document"
	case c == "#32770":
		return "Window"
	default:
		return "Pane"
	}
}
