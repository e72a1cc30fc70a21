package output_test

import (
	"context"
	"strings"
	"testing"

	"github.com/temirov/abcdump/internal/output"
	"github.com/temirov/abcdump/internal/scene"
	"github.com/temirov/abcdump/internal/services/stream"
)

const quadScene = `
objects:
  - name: root
    xform:
      samples:
        - ops: [{type: translate, channels: [1, 2, 3]}]
    children:
      - name: quad
        polyMesh:
          normalsScope: vtx
          samples:
            - positions: [[0, 0, 0], [1, 0, 0], [1, 1, 0], [0, 1, 0]]
              faceIndices: [0, 1, 2, 3]
              faceCounts: [4]
`

// streamScene runs the dump stream over a YAML scene and returns every event.
func streamScene(t *testing.T, content string) []stream.Event {
	t.Helper()
	archive, err := scene.Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("parse scene: %v", err)
	}
	events := make(chan stream.Event, 256)
	err = stream.StreamArchive(context.Background(), stream.StreamOptions{Archive: archive, Path: "quad.yaml", IncludeTimes: true}, events)
	close(events)
	var collected []stream.Event
	for event := range events {
		collected = append(collected, event)
	}
	if err != nil {
		t.Fatalf("stream archive: %v", err)
	}
	return collected
}

func render(t *testing.T, renderer output.StreamRenderer, events []stream.Event) {
	t.Helper()
	for index, event := range events {
		if err := renderer.Handle(event); err != nil {
			t.Fatalf("handle event %d failed: %v", index, err)
		}
	}
	if err := renderer.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
}
