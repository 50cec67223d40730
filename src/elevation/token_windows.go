//go:build windows

package elevation

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// tokenElevation mirrors TOKEN_ELEVATION.
type tokenElevation struct {
	TokenIsElevated uint32
}

type windowsTokens struct{}

// NewTokenSource returns the advapi32/kernel32-backed token source.
func NewTokenSource() TokenSource { return windowsTokens{} }

func (windowsTokens) OpenProcess(pid uint32) (Handle, error) {
	// Elevated targets refuse PROCESS_QUERY_INFORMATION to medium-integrity
	// callers but still grant the limited right.
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return 0, err
	}
	return Handle(h), nil
}

func (windowsTokens) OpenToken(process Handle) (Handle, error) {
	var token windows.Token
	if err := windows.OpenProcessToken(windows.Handle(process), windows.TOKEN_QUERY, &token); err != nil {
		return 0, err
	}
	return Handle(token), nil
}

func (windowsTokens) QueryElevation(token Handle) (bool, error) {
	var elevation tokenElevation
	var returned uint32
	err := windows.GetTokenInformation(
		windows.Token(token),
		windows.TokenElevation,
		(*byte)(unsafe.Pointer(&elevation)),
		uint32(unsafe.Sizeof(elevation)),
		&returned,
	)
	if err != nil {
		return false, err
	}
	return elevation.TokenIsElevated != 0, nil
}

func (windowsTokens) Close(h Handle) error {
	return windows.CloseHandle(windows.Handle(h))
}
