//go:build windows

package uitree

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"

	"screen-ui-agent/src/geometry"
)

const (
	smtoAbortIfHung   = 0x0002
	textReadTimeoutMs = 500
	maxClassName      = 256
)

var (
	user32DLL              = syscall.NewLazyDLL("user32.dll")
	procGetDlgCtrlID       = user32DLL.NewProc("GetDlgCtrlID")
	procSendMessageTimeout = user32DLL.NewProc("SendMessageTimeoutW")
	procIsWindow           = user32DLL.NewProc("IsWindow")
)

// EnumChildWindows callbacks are created once; syscall caps how many a process
// may create. Each enumeration registers a collector under a fresh id and the
// shared callback routes to it through lParam.
var (
	enumOnce     sync.Once
	enumCallback uintptr

	collectorsMu sync.Mutex
	collectors   = map[uintptr]*[]Handle{}
	nextID       uintptr
)

// IsWindow reports whether h names an existing window.
func IsWindow(h Handle) bool {
	ret, _, _ := procIsWindow.Call(uintptr(h))
	return ret != 0
}

// NewWin32Provider returns a provider backed by user32.
func NewWin32Provider() *Win32Provider {
	return &Win32Provider{src: user32Source{}}
}

type user32Source struct{}

func (user32Source) Valid(h Handle) bool { return IsWindow(h) }

func (user32Source) Visible(h Handle) bool { return win.IsWindowVisible(win.HWND(h)) }

func (user32Source) Descendants(parent Handle) ([]Handle, error) {
	enumOnce.Do(func() {
		enumCallback = syscall.NewCallback(func(hwnd win.HWND, lParam uintptr) uintptr {
			collectorsMu.Lock()
			out := collectors[lParam]
			collectorsMu.Unlock()
			if out == nil {
				return 0
			}
			*out = append(*out, Handle(hwnd))
			return 1
		})
	})

	var found []Handle
	collectorsMu.Lock()
	nextID++
	id := nextID
	collectors[id] = &found
	collectorsMu.Unlock()
	defer func() {
		collectorsMu.Lock()
		delete(collectors, id)
		collectorsMu.Unlock()
	}()

	// EnumChildWindows returns FALSE both for failures and for windows without
	// children, so the collected slice is the only signal.
	win.EnumChildWindows(win.HWND(parent), enumCallback, id)
	return found, nil
}

func (user32Source) Text(h Handle) (string, error) {
	var length uintptr
	if !sendMessageTimeout(h, win.WM_GETTEXTLENGTH, 0, 0, &length) {
		return "", fmt.Errorf("WM_GETTEXTLENGTH timed out or failed for %s", h)
	}
	if length == 0 {
		return "", nil
	}
	buf := make([]uint16, length+1)
	var copied uintptr
	if !sendMessageTimeout(h, win.WM_GETTEXT, uintptr(len(buf)), uintptr(unsafe.Pointer(&buf[0])), &copied) {
		return "", fmt.Errorf("WM_GETTEXT timed out or failed for %s", h)
	}
	if int(copied) < len(buf) {
		buf = buf[:copied]
	}
	return syscall.UTF16ToString(buf), nil
}

func (user32Source) ClassName(h Handle) string {
	buf := make([]uint16, maxClassName)
	n, err := win.GetClassName(win.HWND(h), &buf[0], len(buf))
	if err != nil || n == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf[:n])
}

func (user32Source) ControlID(h Handle) int {
	ret, _, _ := procGetDlgCtrlID.Call(uintptr(h))
	return int(int32(ret))
}

func (user32Source) Rect(h Handle) (geometry.ScreenRect, bool) {
	var r win.RECT
	if !win.GetWindowRect(win.HWND(h), &r) {
		return geometry.ScreenRect{}, false
	}
	return geometry.ScreenRect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}, true
}

func sendMessageTimeout(h Handle, msg uint32, wParam, lParam uintptr, result *uintptr) bool {
	ret, _, _ := procSendMessageTimeout.Call(
		uintptr(h),
		uintptr(msg),
		wParam,
		lParam,
		smtoAbortIfHung,
		textReadTimeoutMs,
		uintptr(unsafe.Pointer(result)),
	)
	return ret != 0
}
