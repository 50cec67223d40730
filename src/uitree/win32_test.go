package uitree

import (
	"context"
	"errors"
	"testing"

	"screen-ui-agent/src/geometry"
)

type fakeWindow struct {
	text     string
	class    string
	id       int
	hidden   bool
	children []Handle
	textErr  error
}

// fakeSource models a window hierarchy keyed by handle.
type fakeSource struct {
	windows map[Handle]*fakeWindow
}

func (f *fakeSource) Valid(h Handle) bool {
	_, ok := f.windows[h]
	return ok
}

func (f *fakeSource) Descendants(parent Handle) ([]Handle, error) {
	var out []Handle
	var walk func(Handle)
	walk = func(h Handle) {
		for _, c := range f.windows[h].children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(parent)
	return out, nil
}

func (f *fakeSource) Visible(h Handle) bool { return !f.windows[h].hidden }

func (f *fakeSource) Text(h Handle) (string, error) {
	w := f.windows[h]
	return w.text, w.textErr
}

func (f *fakeSource) ClassName(h Handle) string { return f.windows[h].class }

func (f *fakeSource) ControlID(h Handle) int { return f.windows[h].id }

func (f *fakeSource) Rect(h Handle) (geometry.ScreenRect, bool) {
	return geometry.ScreenRect{X: int(h), Y: int(h), Width: 10, Height: 10}, true
}

// dialog:
//
//	1 (#32770 "Run")
//	├── 2 Static "Open:"
//	├── 3 ComboBox ""
//	│   └── 4 Edit "notepad"
//	├── 5 Button "OK"     id=1
//	├── 6 Button "Cancel" id=2
//	└── 7 Button "OK"     id=3 hidden
func newDialog() *fakeSource {
	return &fakeSource{windows: map[Handle]*fakeWindow{
		1: {text: "Run", class: "#32770", children: []Handle{2, 3, 5, 6, 7}},
		2: {text: "Open:", class: "Static"},
		3: {class: "ComboBox", children: []Handle{4}},
		4: {text: "notepad", class: "Edit", id: 1001},
		5: {text: "OK", class: "Button", id: 1},
		6: {text: "Cancel", class: "Button", id: 2},
		7: {text: "OK", class: "Button", id: 3, hidden: true},
	}}
}

func TestWin32FindNodesTraversalOrder(t *testing.T) {
	p := &Win32Provider{src: newDialog()}
	filters, _ := ElementQuery{ControlType: "Button"}.Filters()

	nodes, err := p.FindNodes(context.Background(), 1, filters)
	if err != nil {
		t.Fatalf("FindNodes failed: %v", err)
	}
	var got []Handle
	for _, n := range nodes {
		got = append(got, n.Handle)
	}
	want := []Handle{5, 6, 7}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}

	if nodes[0].Info.AutomationID != "1" || nodes[0].Info.Name != "OK" {
		t.Errorf("Unexpected node info %+v", nodes[0].Info)
	}
}

func TestWin32FindNodesAndSemantics(t *testing.T) {
	p := &Win32Provider{src: newDialog()}
	filters, _ := ElementQuery{Name: "OK", ControlType: "button"}.Filters()

	nodes, err := p.FindNodes(context.Background(), 1, filters)
	if err != nil {
		t.Fatalf("FindNodes failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Expected two OK buttons, got %d", len(nodes))
	}
	second := Select(nodes, 2)
	if second == nil || second.Info.AutomationID != "3" {
		t.Errorf("Expected second OK button (id 3), got %+v", second)
	}
}

func TestWin32FindNodesInvalidWindow(t *testing.T) {
	p := &Win32Provider{src: newDialog()}
	_, err := p.FindNodes(context.Background(), 99, nil)
	if !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("Expected ErrInvalidHandle, got %v", err)
	}
}

func TestWin32FindNodesCancelled(t *testing.T) {
	p := &Win32Provider{src: newDialog()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.FindNodes(ctx, 1, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestWin32Text(t *testing.T) {
	p := &Win32Provider{src: newDialog()}
	ctx := context.Background()

	read, err := p.Text(ctx, Target{Window: 1}, false)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if !read.Usable() || read.Text != "Run" {
		t.Errorf("Expected window caption only, got %+v", read)
	}

	read, err = p.Text(ctx, Target{Window: 1}, true)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	want := "Run\nOpen:\nnotepad\nOK\nCancel"
	if read.Text != want {
		t.Errorf("Expected aggregated text %q, got %q", want, read.Text)
	}

	combo := Node{Handle: 3}
	read, _ = p.Text(ctx, Target{Window: 1, Node: &combo}, false)
	if !read.Success || read.Usable() {
		t.Errorf("Expected successful but blank read for the combo box, got %+v", read)
	}
	read, _ = p.Text(ctx, Target{Window: 1, Node: &combo}, true)
	if read.Text != "notepad" {
		t.Errorf("Expected combo children text, got %q", read.Text)
	}
}

func TestWin32TextFailure(t *testing.T) {
	src := newDialog()
	src.windows[5].textErr = errors.New("hung")
	p := &Win32Provider{src: src}

	node := Node{Handle: 5}
	read, err := p.Text(context.Background(), Target{Window: 1, Node: &node}, false)
	if err != nil {
		t.Fatalf("Expected failure reported in TextRead, got error %v", err)
	}
	if read.Success || read.Err == nil {
		t.Errorf("Expected failed read, got %+v", read)
	}

	read, _ = p.Text(context.Background(), Target{Window: 42}, false)
	if read.Success || !errors.Is(read.Err, ErrInvalidHandle) {
		t.Errorf("Expected invalid handle failure, got %+v", read)
	}
}

func TestControlTypeForClass(t *testing.T) {
	tests := map[string]string{
		"Button":             "Button",
		"EDIT":               "Edit",
		"Static":             "Text",
		"ComboBoxEx32":       "ComboBox",
		"SysListView32":      "List",
		"SysTreeView32":      "Tree",
		"msctls_progress32":  "ProgressBar",
		"RichEdit20W":        "Document",
		"RICHEDIT50W":        "Document",
		"#32770":             "Window",
		"Chrome_WidgetWin_1": "Pane",
		"":                   "Pane",
	}
	for class, want := range tests {
		if got := ControlTypeForClass(class); got != want {
			t.Errorf("ControlTypeForClass(%q) = %q, want %q", class, got, want)
		}
	}
}
