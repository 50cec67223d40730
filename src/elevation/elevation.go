// Package elevation decides whether a process runs elevated (administrator).
//
// The answer is a hint, not a gate: overlapping windows, protected processes
// and security software can make the true status undeterminable, and every
// such path reports "not elevated". Only a token query that explicitly
// reports elevation yields true.
package elevation

import (
	"errors"
	"fmt"
	"log"

	"screen-ui-agent/src/uitree"
)

// Handle is an OS handle owned by a TokenSource.
type Handle uintptr

// TokenSource is the open/query/close surface of the process token API.
// Every handle returned by OpenProcess or OpenToken must be passed to Close.
type TokenSource interface {
	OpenProcess(pid uint32) (Handle, error)
	OpenToken(process Handle) (Handle, error)
	QueryElevation(token Handle) (bool, error)
	Close(h Handle) error
}

// WindowLocator resolves a screen point to the process owning the window there.
type WindowLocator interface {
	WindowAtPoint(x, y int) (uitree.Handle, error)
	OwningProcessID(window uitree.Handle) (uint32, error)
}

// Reason names the step that decided a classification.
type Reason string

const (
	ReasonElevated       Reason = "elevated"
	ReasonNotElevated    Reason = "not_elevated"
	ReasonZeroPID        Reason = "zero_pid"
	ReasonNoWindow       Reason = "no_window_at_point"
	ReasonNoProcessID    Reason = "process_id_unavailable"
	ReasonOpenProcess    Reason = "open_process_failed"
	ReasonOpenToken      Reason = "open_token_failed"
	ReasonQueryElevation Reason = "token_query_failed"
)

// Report explains a classification. Elevated carries the same value the
// boolean methods return; Reason is for logs and diagnostics only.
type Report struct {
	PID      uint32 `json:"pid"`
	Elevated bool   `json:"elevated"`
	Reason   Reason `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// Classifier answers elevation questions. It keeps no state between calls and
// never retries.
type Classifier struct {
	tokens  TokenSource
	windows WindowLocator
}

func NewClassifier(tokens TokenSource, windows WindowLocator) *Classifier {
	return &Classifier{tokens: tokens, windows: windows}
}

// IsProcessElevated reports whether pid is definitely elevated.
func (c *Classifier) IsProcessElevated(pid uint32) bool {
	return c.Describe(pid).Elevated
}

// IsTargetElevated reports whether the process owning the topmost window at
// (x, y) is definitely elevated.
//
// The window at a point may change between the caller observing its target
// and this query; the process-id form is the authoritative primitive.
func (c *Classifier) IsTargetElevated(x, y int) bool {
	return c.DescribePoint(x, y).Elevated
}

// DescribePoint is IsTargetElevated with the deciding step attached.
func (c *Classifier) DescribePoint(x, y int) Report {
	if c.windows == nil {
		return Report{Reason: ReasonNoWindow, Detail: "no window locator configured"}
	}
	hwnd, err := c.windows.WindowAtPoint(x, y)
	if err != nil || hwnd == 0 {
		return failed(0, ReasonNoWindow, err)
	}
	pid, err := c.windows.OwningProcessID(hwnd)
	if err != nil {
		return failed(0, ReasonNoProcessID, err)
	}
	return c.Describe(pid)
}

// Describe is IsProcessElevated with the deciding step attached.
func (c *Classifier) Describe(pid uint32) Report {
	if pid == 0 {
		return Report{Reason: ReasonZeroPID}
	}

	process, err := c.tokens.OpenProcess(pid)
	if err != nil {
		return failed(pid, ReasonOpenProcess, err)
	}
	defer c.release(process)

	token, err := c.tokens.OpenToken(process)
	if err != nil {
		return failed(pid, ReasonOpenToken, err)
	}
	defer c.release(token)

	elevated, err := c.tokens.QueryElevation(token)
	if err != nil {
		return failed(pid, ReasonQueryElevation, err)
	}
	if !elevated {
		return Report{PID: pid, Reason: ReasonNotElevated}
	}
	return Report{PID: pid, Elevated: true, Reason: ReasonElevated}
}

func (c *Classifier) release(h Handle) {
	if err := c.tokens.Close(h); err != nil {
		log.Printf("ELEVATION: close handle %#x: %v", uintptr(h), err)
	}
}

func failed(pid uint32, reason Reason, err error) Report {
	if err == nil {
		err = errors.New("no result")
	}
	log.Printf("ELEVATION: pid=%d treated as not elevated (%s): %v", pid, reason, err)
	return Report{PID: pid, Reason: reason, Detail: fmt.Sprint(err)}
}
