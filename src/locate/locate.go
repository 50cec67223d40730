package locate

import (
	"context"
	"fmt"
	"log"

	"screen-ui-agent/src/geometry"
	"screen-ui-agent/src/textread"
	"screen-ui-agent/src/uitree"
)

// Topology supplies the monitor layout for one call.
type Topology interface {
	Monitors(ctx context.Context) ([]geometry.MonitorDescriptor, error)
}

// Element is a matched node with its position on the desktop. Placement
// indexes the Monitors slice returned alongside it.
type Element struct {
	Handle    string              `json:"handle"`
	Info      uitree.NodeInfo     `json:"info"`
	Rect      geometry.ScreenRect `json:"rect"`
	CenterX   int                 `json:"center_x"`
	CenterY   int                 `json:"center_y"`
	Placement geometry.Placement  `json:"placement"`
}

// Result holds the matches and the monitor snapshot their placements refer to.
type Result struct {
	Elements []Element                    `json:"elements"`
	Monitors []geometry.MonitorDescriptor `json:"monitors"`
}

type Locator struct {
	tree     uitree.Provider
	topology Topology
}

func NewLocator(tree uitree.Provider, topology Topology) *Locator {
	return &Locator{tree: tree, topology: topology}
}

// Find returns every node under the query's window that matches its filters.
// When FoundIndex is set only that match is returned. All placements come
// from a single topology snapshot.
func (l *Locator) Find(ctx context.Context, query uitree.ElementQuery) (Result, error) {
	hwnd, err := uitree.ParseHandle(query.WindowHandle)
	if err != nil {
		return Result{}, &textread.CallerFaultError{Field: "window_handle", Reason: err.Error(), Err: err}
	}
	filters, err := query.Filters()
	if err != nil {
		return Result{}, &textread.CallerFaultError{Field: "name_pattern", Reason: err.Error(), Err: err}
	}

	nodes, err := l.tree.FindNodes(ctx, hwnd, filters)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	if err != nil {
		return Result{}, fmt.Errorf("find elements in %s: %w", hwnd, err)
	}
	if query.FoundIndex > 0 {
		if n := uitree.Select(nodes, query.FoundIndex); n != nil {
			nodes = []uitree.Node{*n}
		} else {
			nodes = nil
		}
	}

	monitors, err := l.topology.Monitors(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("monitor topology: %w", err)
	}

	out := Result{Elements: make([]Element, 0, len(nodes)), Monitors: monitors}
	for _, n := range nodes {
		p, err := geometry.ToMonitorRelative(n.Info.Bounds, monitors)
		if err != nil {
			return Result{}, err
		}
		out.Elements = append(out.Elements, Element{
			Handle:    n.Handle.String(),
			Info:      n.Info,
			Rect:      n.Info.Bounds,
			CenterX:   n.Info.Bounds.CenterX(),
			CenterY:   n.Info.Bounds.CenterY(),
			Placement: p,
		})
	}
	log.Printf("LOCATE: %d element(s) for %v in %s across %d monitor(s)", len(out.Elements), filters, hwnd, len(monitors))
	return out, nil
}
