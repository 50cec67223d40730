package uitree

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Handle is a native window handle (HWND on Windows).
type Handle uintptr

var ErrInvalidHandle = errors.New("invalid window handle")

// ParseHandle accepts decimal or 0x-prefixed hexadecimal handles.
// A zero handle is rejected.
func ParseHandle(s string) (Handle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidHandle)
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHandle, s)
	}
	if v == 0 {
		return 0, fmt.Errorf("%w: null handle", ErrInvalidHandle)
	}
	return Handle(v), nil
}

func (h Handle) String() string { return fmt.Sprintf("0x%X", uintptr(h)) }

// ElementQuery selects a node beneath a window. Every non-empty filter field
// must match (AND); FoundIndex picks the n-th match (1-based) in traversal order.
type ElementQuery struct {
	WindowHandle    string `json:"window_handle"`
	Name            string `json:"name,omitempty"`
	NameContains    string `json:"name_contains,omitempty"`
	NamePattern     string `json:"name_pattern,omitempty"`
	ControlType     string `json:"control_type,omitempty"`
	AutomationID    string `json:"automation_id,omitempty"`
	ClassName       string `json:"class_name,omitempty"`
	FoundIndex      int    `json:"found_index,omitempty"`
	IncludeChildren bool   `json:"include_children,omitempty"`
}

// HasFilters reports whether any field besides the window handle is set.
func (q ElementQuery) HasFilters() bool {
	return q.Name != "" || q.NameContains != "" || q.NamePattern != "" ||
		q.ControlType != "" || q.AutomationID != "" || q.ClassName != ""
}

// Index returns the 1-based match index, clamped to at least 1.
func (q ElementQuery) Index() int {
	if q.FoundIndex < 1 {
		return 1
	}
	return q.FoundIndex
}

// FilterKind tags a filter so callers can inspect the pipeline.
type FilterKind string

const (
	FilterName         FilterKind = "name"
	FilterNameContains FilterKind = "name_contains"
	FilterNamePattern  FilterKind = "name_pattern"
	FilterControlType  FilterKind = "control_type"
	FilterAutomationID FilterKind = "automation_id"
	FilterClassName    FilterKind = "class_name"
)

// Filter is one predicate of a query, evaluated left to right.
type Filter struct {
	Kind  FilterKind
	Value string
	match func(NodeInfo) bool
}

func (f Filter) Match(n NodeInfo) bool { return f.match(n) }

func (f Filter) String() string { return fmt.Sprintf("%s=%q", f.Kind, f.Value) }

// Filters compiles the query into its ordered predicate list. Name comparisons
// are exact, NameContains is case-insensitive, ControlType and ClassName are
// case-insensitive. An invalid NamePattern is an error.
func (q ElementQuery) Filters() ([]Filter, error) {
	var out []Filter
	if q.Name != "" {
		want := q.Name
		out = append(out, Filter{Kind: FilterName, Value: want, match: func(n NodeInfo) bool {
			return n.Name == want
		}})
	}
	if q.NameContains != "" {
		want := strings.ToLower(q.NameContains)
		out = append(out, Filter{Kind: FilterNameContains, Value: q.NameContains, match: func(n NodeInfo) bool {
			return strings.Contains(strings.ToLower(n.Name), want)
		}})
	}
	if q.NamePattern != "" {
		re, err := regexp.Compile(q.NamePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid name pattern %q: %w", q.NamePattern, err)
		}
		out = append(out, Filter{Kind: FilterNamePattern, Value: q.NamePattern, match: func(n NodeInfo) bool {
			return re.MatchString(n.Name)
		}})
	}
	if q.ControlType != "" {
		want := q.ControlType
		out = append(out, Filter{Kind: FilterControlType, Value: want, match: func(n NodeInfo) bool {
			return strings.EqualFold(n.ControlType, want)
		}})
	}
	if q.AutomationID != "" {
		want := q.AutomationID
		out = append(out, Filter{Kind: FilterAutomationID, Value: want, match: func(n NodeInfo) bool {
			return n.AutomationID == want
		}})
	}
	if q.ClassName != "" {
		want := q.ClassName
		out = append(out, Filter{Kind: FilterClassName, Value: want, match: func(n NodeInfo) bool {
			return strings.EqualFold(n.ClassName, want)
		}})
	}
	return out, nil
}

// MatchAll reports whether n satisfies every filter. An empty list matches everything.
func MatchAll(filters []Filter, n NodeInfo) bool {
	for _, f := range filters {
		if !f.Match(n) {
			return false
		}
	}
	return true
}
