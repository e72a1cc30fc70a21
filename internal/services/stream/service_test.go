package stream_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/temirov/abcdump/internal/abc"
	"github.com/temirov/abcdump/internal/scene"
	"github.com/temirov/abcdump/internal/services/stream"
	"github.com/temirov/abcdump/internal/types"
)

const streamScene = `
objects:
  - name: root
    xform:
      samples:
        - ops: [{type: translate, channels: [1, 2, 3]}]
    children:
      - name: cloud
        points:
          samples:
            - positions: []
            - positions: [[1, 1, 1], [-1, 0, 2]]
              ids: [7, 8]
`

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func parseArchive(t *testing.T, content string) abc.Archive {
	t.Helper()
	archive, err := scene.Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("parse scene: %v", err)
	}
	return archive
}

func TestStreamArchiveEmitsEventsAndTree(t *testing.T) {
	archive := parseArchive(t, streamScene)
	events := collectEvents(t, func(ch chan<- stream.Event) error {
		options := stream.StreamOptions{Archive: archive, Path: "scene.yaml", IncludeTimes: true}
		return stream.StreamArchive(context.Background(), options, ch)
	})

	if len(events) == 0 {
		t.Fatalf("expected events, got none")
	}
	if events[0].Kind != stream.EventKindStart || events[0].Path != "scene.yaml" {
		t.Fatalf("expected start event for scene.yaml, got %+v", events[0])
	}
	tail := events[len(events)-3:]
	if tail[0].Kind != stream.EventKindTree || tail[1].Kind != stream.EventKindSummary || tail[2].Kind != stream.EventKindDone {
		t.Fatalf("unexpected trailing events: %v %v %v", tail[0].Kind, tail[1].Kind, tail[2].Kind)
	}

	var samples int
	for _, event := range events {
		if event.Version != stream.SchemaVersion || event.Command != types.CommandDump {
			t.Fatalf("event missing version or command: %+v", event)
		}
		if event.Kind == stream.EventKindSample {
			samples++
			if event.Path == "/root/cloud" && event.Sample.Schema != types.SchemaKindPoints {
				t.Fatalf("unexpected schema kind %q", event.Sample.Schema)
			}
		}
	}
	if samples != 3 {
		t.Fatalf("expected 3 sample events, got %d", samples)
	}

	summary := tail[1].Summary
	if summary == nil || summary.Objects != 3 || summary.Xforms != 1 || summary.Points != 1 || summary.Samples != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	tree := tail[0].Tree
	if tree == nil || tree.FullName != "/" || len(tree.Children) != 1 {
		t.Fatalf("unexpected tree root %+v", tree)
	}
	cloud := tree.Children[0].Children[0]
	if cloud.FullName != "/root/cloud" || len(cloud.Samples) != 2 {
		t.Fatalf("unexpected cloud node %+v", cloud)
	}
	if cloud.Samples[0].Bounds != nil {
		t.Fatalf("expected empty sample to carry no bounds")
	}
	if bounds := cloud.Samples[1].Bounds; bounds == nil || bounds.Min != (types.Vector{X: -1, Y: 0, Z: 1}) {
		t.Fatalf("unexpected bounds %+v", bounds)
	}
	if cloud.TimeSampling == nil || len(cloud.TimeSampling.Times) != 2 {
		t.Fatalf("expected two time entries, got %+v", cloud.TimeSampling)
	}

	if _, err := json.Marshal(tree); err != nil {
		t.Fatalf("tree is not JSON encodable: %v", err)
	}
}

func TestStreamArchiveReportsWalkFailure(t *testing.T) {
	archive := parseArchive(t, "objects:\n  - name: xf\n    xform:\n      samples:\n        - ops: [{type: scale, channels: [1]}]\n")
	events := make(chan stream.Event, 64)
	err := stream.StreamArchive(context.Background(), stream.StreamOptions{Archive: archive, Path: "bad.yaml"}, events)
	close(events)
	if !errors.Is(err, abc.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}

	var last stream.Event
	for event := range events {
		if event.Kind == stream.EventKindTree || event.Kind == stream.EventKindDone {
			t.Fatalf("unexpected %s event after a failure", event.Kind)
		}
		last = event
	}
	if last.Kind != stream.EventKindError || !strings.Contains(last.Err.Message, "invalid transformation") {
		t.Fatalf("expected a trailing error event, got %+v", last)
	}
}

func TestStreamArchiveStopsOnCancellation(t *testing.T) {
	archive := parseArchive(t, streamScene)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := stream.StreamArchive(ctx, stream.StreamOptions{Archive: archive}, make(chan stream.Event))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStreamArchiveRejectsMissingInputs(t *testing.T) {
	archive := parseArchive(t, streamScene)
	if err := stream.StreamArchive(context.Background(), stream.StreamOptions{Archive: archive}, nil); err == nil {
		t.Fatalf("expected an error for a nil channel")
	}
	if err := stream.StreamArchive(context.Background(), stream.StreamOptions{}, make(chan stream.Event, 1)); err == nil {
		t.Fatalf("expected an error for a nil archive")
	}
}

func collectEvents(t *testing.T, producer func(chan<- stream.Event) error) []stream.Event {
	t.Helper()
	events := make(chan stream.Event, 32)
	errCh := make(chan error, 1)
	go func() {
		errCh <- producer(events)
		close(events)
	}()

	var out []stream.Event
	for event := range events {
		out = append(out, event)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("producer returned error: %v", err)
	}
	return out
}
