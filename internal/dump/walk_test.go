package dump

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/temirov/abcdump/internal/abc"
	"github.com/temirov/abcdump/internal/scene"
)

const walkScene = `
timeSamplings:
  - {type: uniform, timePerCycle: 0.5, times: [1]}
objects:
  - name: a
    xform:
      timeSampling: 1
      samples:
        - ops: [{type: translate, channels: [1, 2, 3]}]
        - inherits: false
          ops: [{type: scale, channels: [2, 2, 2]}]
    children:
      - name: mesh
        polyMesh:
          normalsScope: vtx
          samples:
            - positions: [[0, 0, 0], [1, 0, 0], [1, 1, 0], [0, 1, 0], [2, 0, 0]]
              faceIndices: [0, 1, 2, 3, 1, 4, 2]
              faceCounts: [4, 3]
      - name: cloud
        points:
          samples:
            - positions: [[1, 1, 1]]
              ids: [3]
  - name: b
    children:
      - name: c
`

func parseScene(t *testing.T, content string) abc.Archive {
	t.Helper()
	archive, err := scene.Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("parse scene: %v", err)
	}
	return archive
}

func collectEvents(t *testing.T, archive abc.Archive, options Options) []Event {
	t.Helper()
	var events []Event
	if err := Walk(archive, options, func(event Event) error {
		events = append(events, event)
		return nil
	}); err != nil {
		t.Fatalf("walk: %v", err)
	}
	return events
}

func TestWalkVisitsObjectsInPreOrder(t *testing.T) {
	events := collectEvents(t, parseScene(t, walkScene), Options{IncludeTimes: true})

	type visit struct {
		FullName string
		Depth    int
	}
	var entered []visit
	openObjects := map[string]bool{}
	for _, event := range events {
		switch event.Kind {
		case EventEnterObject:
			if openObjects[event.FullName] {
				t.Fatalf("object %s entered twice", event.FullName)
			}
			openObjects[event.FullName] = true
			entered = append(entered, visit{FullName: event.FullName, Depth: event.Depth})
		case EventLeaveObject:
			delete(openObjects, event.FullName)
		default:
			if !openObjects[event.FullName] {
				t.Fatalf("event %d for %s outside of its object", event.Kind, event.FullName)
			}
		}
	}
	expected := []visit{
		{FullName: "/", Depth: 0},
		{FullName: "/a", Depth: 1},
		{FullName: "/a/mesh", Depth: 2},
		{FullName: "/a/cloud", Depth: 2},
		{FullName: "/b", Depth: 1},
		{FullName: "/b/c", Depth: 2},
	}
	if diff := cmp.Diff(expected, entered); diff != "" {
		t.Fatalf("visit order mismatch (-want +got):\n%s", diff)
	}
	if len(openObjects) != 0 {
		t.Fatalf("objects left open: %v", openObjects)
	}
}

func TestWalkReportsSchemaSamples(t *testing.T) {
	events := collectEvents(t, parseScene(t, walkScene), Options{IncludeTimes: true})

	var kinds []EventKind
	for _, event := range events {
		if event.FullName == "/a" || event.FullName == "/a/mesh" {
			kinds = append(kinds, event.Kind)
		}
	}
	expectedKinds := []EventKind{
		EventEnterObject, EventXformSample, EventXformSample, EventTimeSampling,
		EventEnterObject, EventTopology, EventPolyMeshSample, EventTimeSampling, EventLeaveObject,
		EventLeaveObject,
	}
	if diff := cmp.Diff(expectedKinds, kinds); diff != "" {
		t.Fatalf("event kinds mismatch (-want +got):\n%s", diff)
	}

	for _, event := range events {
		switch {
		case event.Kind == EventXformSample && event.Xform.Index == 1:
			if event.Xform.Time != 1.5 || event.Xform.Inherits || event.Xform.Ops[0].Type != abc.XformOpScale {
				t.Fatalf("unexpected second xform sample %+v", event.Xform)
			}
		case event.Kind == EventTimeSampling && event.FullName == "/a":
			expected := []TimeEntry{{Index: 0, Time: 1}, {Index: 1, Time: 1.5}}
			if diff := cmp.Diff(expected, event.TimeSampling.Times); diff != "" {
				t.Fatalf("times mismatch (-want +got):\n%s", diff)
			}
			if event.TimeSampling.Kind != abc.TimeSamplingUniform || event.TimeSampling.TimePerCycle != 0.5 {
				t.Fatalf("unexpected time sampling %+v", event.TimeSampling)
			}
		case event.Kind == EventPolyMeshSample:
			consumed := 0
			for _, face := range event.PolyMesh.Faces {
				consumed += len(face)
			}
			if len(event.PolyMesh.Faces) != 2 || consumed != 7 {
				t.Fatalf("unexpected faces %v", event.PolyMesh.Faces)
			}
			if event.PolyMesh.Bounds.Max != (abc.Vec3{X: 2, Y: 1}) {
				t.Fatalf("unexpected bounds %+v", event.PolyMesh.Bounds)
			}
		case event.Kind == EventTopology:
			if event.Topology.NormalsScope != abc.GeometryScopeVertex || event.Topology.Variance != abc.TopologyConstant {
				t.Fatalf("unexpected topology %+v", event.Topology)
			}
		case event.Kind == EventPointsSample:
			if diff := cmp.Diff([]uint64{3}, event.Points.IDs); diff != "" {
				t.Fatalf("ids mismatch (-want +got):\n%s", diff)
			}
		}
	}
}

func TestWalkSummaries(t *testing.T) {
	events := collectEvents(t, parseScene(t, walkScene), Options{})
	last := events[len(events)-1]
	if last.Kind != EventLeaveObject || last.FullName != "/" {
		t.Fatalf("expected the walk to end leaving the top object, got %+v", last)
	}
	expected := Summary{Objects: 6, Xforms: 1, Meshes: 1, Points: 1, Samples: 4}
	if last.Object.Summary != expected {
		t.Fatalf("expected %+v, got %+v", expected, last.Object.Summary)
	}
	for _, event := range events {
		if event.Kind == EventTimeSampling && len(event.TimeSampling.Times) != 0 {
			t.Fatalf("expected time tables to be omitted, got %v", event.TimeSampling.Times)
		}
	}
}

func TestWalkAbortsOnInvalidTransformation(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "wrong_channel_count", content: "objects:\n  - name: xf\n    xform:\n      samples:\n        - ops: [{type: rotate, channels: [1, 2]}]\n    children:\n      - name: never\n"},
		{name: "missing_schema_block", content: "objects:\n  - name: xf\n    metadata: {schema: AbcGeom_Xform_v3}\n    children:\n      - name: never\n"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var entered []string
			err := Walk(parseScene(t, testCase.content), Options{}, func(event Event) error {
				if event.Kind == EventEnterObject {
					entered = append(entered, event.FullName)
				}
				return nil
			})
			if !errors.Is(err, abc.ErrInvalidSchema) {
				t.Fatalf("expected ErrInvalidSchema, got %v", err)
			}
			if !strings.Contains(err.Error(), invalidTransformationMessage) || !strings.Contains(err.Error(), "/xf") {
				t.Fatalf("unexpected message %q", err.Error())
			}
			if diff := cmp.Diff([]string{"/", "/xf"}, entered); diff != "" {
				t.Fatalf("objects visited before the failure (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWalkAbortsOnFaceCountMismatch(t *testing.T) {
	content := "objects:\n  - name: mesh\n    polyMesh:\n      samples:\n        - positions: [[0, 0, 0]]\n          faceIndices: [0, 0]\n          faceCounts: [3]\n"
	err := Walk(parseScene(t, content), Options{}, func(Event) error { return nil })
	if !errors.Is(err, abc.ErrFaceIndexOverrun) {
		t.Fatalf("expected ErrFaceIndexOverrun, got %v", err)
	}
}

func TestWalkStopsOnHandlerError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Walk(parseScene(t, walkScene), Options{}, func(Event) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || calls != 3 {
		t.Fatalf("expected the walk to stop after 3 events, got %d calls and %v", calls, err)
	}
}

func TestWalkRejectsMissingInputs(t *testing.T) {
	if err := Walk(nil, Options{}, func(Event) error { return nil }); !errors.Is(err, abc.ErrInvalidArchive) {
		t.Fatalf("expected ErrInvalidArchive, got %v", err)
	}
	if err := Walk(parseScene(t, walkScene), Options{}, nil); err == nil {
		t.Fatalf("expected an error for a nil handler")
	}
}

func TestWalkReportsMeshVelocities(t *testing.T) {
	const meshTemplate = `
objects:
  - name: tri
    polyMesh:
      samples:
        - positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
          faceIndices: [0, 1, 2]
          faceCounts: [3]
%s`
	testCases := []struct {
		name     string
		extra    string
		expected bool
	}{
		{name: "without_velocities", expected: false},
		{name: "with_velocities", extra: "          velocities: [[0, 0, 1], [0, 0, 1], [0, 0, 1]]\n", expected: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			events := collectEvents(t, parseScene(t, fmt.Sprintf(meshTemplate, testCase.extra)), Options{})
			var topology *TopologyEvent
			for _, event := range events {
				if event.Kind == EventTopology {
					topology = event.Topology
				}
			}
			if topology == nil {
				t.Fatalf("expected a topology event")
			}
			if topology.Velocities != testCase.expected {
				t.Fatalf("expected velocities %t, got %t", testCase.expected, topology.Velocities)
			}
		})
	}
}
