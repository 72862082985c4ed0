package export

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
)

func TestBuildVisionWindow(t *testing.T) {
	p := testProject(t)
	win, err := BuildVisionWindow(p, VisionOptions{})
	if err != nil {
		t.Fatalf("BuildVisionWindow: %v", err)
	}

	if win.Name != "ConveyorWindow" {
		t.Errorf("window name = %q, want default ConveyorWindow", win.Name)
	}
	if win.Root.Name != "Root Container" {
		t.Errorf("container name = %q", win.Root.Name)
	}
	if len(win.Root.Components) != 3 {
		t.Fatalf("components = %d, want 3", len(win.Root.Components))
	}

	cv := win.Root.Components[0]
	if cv.Type != "straight_conveyor" || cv.Name != "CV-001" {
		t.Errorf("first component = %s/%s", cv.Type, cv.Name)
	}
	if cv.TagPath != "[default]Equipment/CV001/value" {
		t.Errorf("tag path = %q", cv.TagPath)
	}
	if len(cv.Paths) == 0 || !strings.HasPrefix(cv.Paths[0].Data, "M ") {
		t.Errorf("conveyor paths = %+v", cv.Paths)
	}
	if len(cv.Rollers) == 0 {
		t.Error("conveyor should carry roller lines")
	}
	if len(cv.Supports) != 2 {
		t.Errorf("supports = %d, want 2", len(cv.Supports))
	}

	motor := win.Root.Components[1]
	if len(motor.Paths) != 1 {
		t.Fatalf("motor paths = %d, want envelope rectangle", len(motor.Paths))
	}
	if !strings.HasSuffix(motor.Paths[0].Data, "Z") {
		t.Errorf("envelope path not closed: %q", motor.Paths[0].Data)
	}

	label := win.Root.Components[2]
	if label.Label == nil || label.Label.Text != "Inbound" {
		t.Errorf("label = %+v", label.Label)
	}
}

func TestWriteVisionXML(t *testing.T) {
	p := testProject(t)
	var buf bytes.Buffer
	if err := WriteVisionXML(&buf, p, VisionOptions{WindowName: "LineA"}); err != nil {
		t.Fatalf("WriteVisionXML: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, xml.Header) {
		t.Error("missing XML declaration")
	}
	if !strings.Contains(out, `<window name="LineA"`) {
		t.Error("missing window element")
	}

	var win VisionWindow
	if err := xml.Unmarshal(buf.Bytes(), &win); err != nil {
		t.Fatalf("output does not parse back: %v", err)
	}
	if win.Name != "LineA" || len(win.Root.Components) != 3 {
		t.Errorf("round trip = %q with %d components", win.Name, len(win.Root.Components))
	}
}

func TestWriteVisionXMLDeterministic(t *testing.T) {
	p := testProject(t)
	var a, b bytes.Buffer
	if err := WriteVisionXML(&a, p, VisionOptions{}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteVisionXML(&b, p, VisionOptions{}); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("identical projects must serialize byte-identically")
	}
}
