//go:build windows

package winapi

import (
	"errors"
	"testing"

	"screen-ui-agent/src/uitree"
)

func TestWindowRectStaleHandle(t *testing.T) {
	_, err := NewDesktop().WindowRect(uitree.Handle(0xDEAD))
	if !errors.Is(err, uitree.ErrInvalidHandle) {
		t.Fatalf("Expected ErrInvalidHandle, got %v", err)
	}
}
