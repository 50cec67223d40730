package uitree

import (
	"context"
	"strings"

	"screen-ui-agent/src/geometry"
)

// NodeInfo holds the attributes a filter can match on.
type NodeInfo struct {
	Name         string              `json:"name"`
	ControlType  string              `json:"control_type"`
	AutomationID string              `json:"automation_id,omitempty"`
	ClassName    string              `json:"class_name,omitempty"`
	Bounds       geometry.ScreenRect `json:"bounds"`
}

// Node is one element of a live UI tree. Nodes are only valid for the call
// that produced them; the tree invalidates on every UI change.
type Node struct {
	Handle Handle
	Info   NodeInfo
}

// Target is what a text read is addressed to: a node, or the window itself
// when Node is nil.
type Target struct {
	Window Handle
	Node   *Node
}

func (t Target) String() string {
	if t.Node != nil {
		return "element " + t.Node.Handle.String() + " in window " + t.Window.String()
	}
	return "window " + t.Window.String()
}

// TextRead is the outcome of a structured text request.
type TextRead struct {
	Success bool
	Text    string
	// Err describes why the read failed; nil on success.
	Err error
}

// Usable reports a successful read with non-whitespace text.
func (r TextRead) Usable() bool {
	return r.Success && strings.TrimSpace(r.Text) != ""
}

// Provider enumerates accessibility nodes under a window.
type Provider interface {
	// FindNodes returns the nodes under window matching every filter, in
	// tree traversal order.
	FindNodes(ctx context.Context, window Handle, filters []Filter) ([]Node, error)
	// Text reads the target's text, aggregating descendants when includeChildren is set.
	Text(ctx context.Context, target Target, includeChildren bool) (TextRead, error)
}

// Select returns the index-th (1-based) node, or nil when there are fewer matches.
func Select(nodes []Node, index int) *Node {
	if index < 1 {
		index = 1
	}
	if index > len(nodes) {
		return nil
	}
	n := nodes[index-1]
	return &n
}
