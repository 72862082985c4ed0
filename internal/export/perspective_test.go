package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/layout-studio/backend/internal/geometry"
)

var pinned = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestBuildPerspectiveView(t *testing.T) {
	p := testProject(t)
	view, err := BuildPerspectiveView(p, PerspectiveOptions{Timestamp: pinned})
	if err != nil {
		t.Fatalf("BuildPerspectiveView: %v", err)
	}

	if view.Root.Type != "ia.container.coord" {
		t.Errorf("root type = %q", view.Root.Type)
	}
	if view.Root.Meta.Name != "ConveyorView" {
		t.Errorf("root name = %q, want default ConveyorView", view.Root.Meta.Name)
	}
	if len(view.Root.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(view.Root.Children))
	}

	cv := view.Root.Children[0]
	if cv.Type != "perspective.straight_conveyor" {
		t.Errorf("conveyor child type = %q", cv.Type)
	}
	if cv.Meta.Name != "CV-001" || !cv.Meta.Generated {
		t.Errorf("conveyor meta = %+v", cv.Meta)
	}
	if cv.Meta.Timestamp != "2024-05-01T12:00:00Z" {
		t.Errorf("timestamp = %q", cv.Meta.Timestamp)
	}
	if cv.Position.X != 0 || cv.Position.Y != 100 {
		t.Errorf("position = %+v", cv.Position)
	}
	if cv.Size.Width != 300 || cv.Size.Height != 40 {
		t.Errorf("size = %+v", cv.Size)
	}

	paths, ok := cv.Props["paths"].([]map[string]interface{})
	if !ok || len(paths) == 0 {
		t.Fatalf("conveyor props missing paths: %+v", cv.Props)
	}
	if d, _ := paths[0]["d"].(string); !strings.HasPrefix(d, "M ") {
		t.Errorf("path data = %q", d)
	}
	if tag, _ := cv.Props["tagPath"].(string); tag != "{[default]Equipment/CV001/value}" {
		t.Errorf("tagPath = %q", tag)
	}

	motor := view.Root.Children[1]
	if motor.Type != "perspective.motor" {
		t.Errorf("motor child type = %q", motor.Type)
	}
	if _, ok := motor.Props["paths"]; ok {
		t.Error("marker component should not carry path props")
	}
	if _, ok := motor.Props["style"]; !ok {
		t.Error("marker component should carry its style")
	}
}

func TestPerspectiveTagProvider(t *testing.T) {
	p := testProject(t)
	view, err := BuildPerspectiveView(p, PerspectiveOptions{TagProvider: "conveyors", Timestamp: pinned})
	if err != nil {
		t.Fatalf("BuildPerspectiveView: %v", err)
	}
	tag, _ := view.Root.Children[0].Props["tagPath"].(string)
	if tag != "{[conveyors]Equipment/CV001/value}" {
		t.Errorf("tagPath = %q", tag)
	}
}

func TestWritePerspectiveJSON(t *testing.T) {
	p := testProject(t)
	opts := PerspectiveOptions{ViewName: "LineA", Timestamp: pinned}

	first, err := WritePerspectiveJSON(p, opts)
	if err != nil {
		t.Fatalf("WritePerspectiveJSON: %v", err)
	}
	second, err := WritePerspectiveJSON(p, opts)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("pinned timestamp should make output byte-stable")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(first, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	root, _ := doc["root"].(map[string]interface{})
	if root == nil {
		t.Fatal("document has no root")
	}
	if meta, _ := root["meta"].(map[string]interface{}); meta["name"] != "LineA" {
		t.Errorf("root meta = %+v", meta)
	}
}

func TestPerspectiveEmptyProject(t *testing.T) {
	view, err := BuildPerspectiveView(testEmptyProject(), PerspectiveOptions{Timestamp: pinned})
	if err != nil {
		t.Fatalf("BuildPerspectiveView: %v", err)
	}
	if len(view.Root.Children) != 0 {
		t.Errorf("children = %d, want 0", len(view.Root.Children))
	}
	if view.Props.DefaultSize != (PerspectiveSize{Width: 800, Height: 600}) {
		t.Errorf("defaultSize = %+v, want fallback 800x600", view.Props.DefaultSize)
	}
}

func TestPerspectiveRollerCount(t *testing.T) {
	p := testProject(t)
	view, err := BuildPerspectiveView(p, PerspectiveOptions{Timestamp: pinned, Engine: geometry.Options{RollerSpacing: 50}})
	if err != nil {
		t.Fatalf("BuildPerspectiveView: %v", err)
	}
	n, ok := view.Root.Children[0].Props["rollerCount"].(int)
	if !ok || n < 1 {
		t.Errorf("rollerCount = %v (%t)", n, ok)
	}
}
