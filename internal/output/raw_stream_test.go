package output_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/temirov/abcdump/internal/output"
	"github.com/temirov/abcdump/internal/services/stream"
	"github.com/temirov/abcdump/internal/types"
)

const quadRawExpected = `ABC
 root schema=AbcGeom_Xform_v3
 sample 0 time=0 inherits=true
 translate:1,2,3,
 time sampling: uniform samplesPerCycle=1 timePerCycle=1
 0: 0
  quad schema=AbcGeom_PolyMesh_v1
  topology: constant
  normals scope: vertex
  sample 0 time=0
  P 0,0,0
  P 1,0,0
  P 1,1,0
  P 0,1,0
  face 0: 0,1,2,3
  bounds 0,0,0..1,1,0
  time sampling: uniform samplesPerCycle=1 timePerCycle=1
  0: 0
Summary: 3 objects (1 xform, 1 mesh, 0 point clouds), 2 samples
`

func TestRawStreamRendererPrintsIndentedDump(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	renderer := output.NewRawStreamRenderer(&stdout, &stderr, output.RawOptions{IndentWidth: 1, IncludeSummary: true})
	render(t, renderer, streamScene(t, quadScene))

	if diff := cmp.Diff(quadRawExpected, stdout.String()); diff != "" {
		t.Fatalf("raw output mismatch (-want +got):\n%s", diff)
	}
	if stderr.Len() != 0 {
		t.Fatalf("expected no stderr output, got %q", stderr.String())
	}
}

func TestRawStreamRendererIndentationMatchesDepth(t *testing.T) {
	testCases := []struct {
		name        string
		indentWidth int
	}{
		{name: "one space", indentWidth: 1},
		{name: "four spaces", indentWidth: 4},
		{name: "flat", indentWidth: 0},
	}
	events := streamScene(t, quadScene)
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var stdout bytes.Buffer
			renderer := output.NewRawStreamRenderer(&stdout, nil, output.RawOptions{IndentWidth: testCase.indentWidth})
			render(t, renderer, events)
			for _, line := range strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n") {
				indentation := len(line) - len(strings.TrimLeft(line, " "))
				var expectedDepth int
				switch {
				case strings.HasPrefix(strings.TrimSpace(line), "ABC"):
					expectedDepth = 0
				case strings.HasPrefix(strings.TrimSpace(line), "root"), strings.HasPrefix(strings.TrimSpace(line), "translate"):
					expectedDepth = 1
				case strings.HasPrefix(strings.TrimSpace(line), "quad"), strings.HasPrefix(strings.TrimSpace(line), "P "):
					expectedDepth = 2
				default:
					continue
				}
				if indentation != expectedDepth*testCase.indentWidth {
					t.Fatalf("line %q: expected %d spaces, got %d", line, expectedDepth*testCase.indentWidth, indentation)
				}
			}
		})
	}
}

func TestRawStreamRendererIsDeterministic(t *testing.T) {
	var first, second bytes.Buffer
	render(t, output.NewRawStreamRenderer(&first, nil, output.RawOptions{IndentWidth: 2, IncludeSummary: true}), streamScene(t, quadScene))
	render(t, output.NewRawStreamRenderer(&second, nil, output.RawOptions{IndentWidth: 2, IncludeSummary: true}), streamScene(t, quadScene))
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatalf("expected identical output across runs")
	}
}

func TestRawStreamRendererColors(t *testing.T) {
	var plain, colored bytes.Buffer
	events := streamScene(t, quadScene)
	render(t, output.NewRawStreamRenderer(&plain, nil, output.RawOptions{IndentWidth: 1, Palette: output.NewPalette(false)}), events)
	render(t, output.NewRawStreamRenderer(&colored, nil, output.RawOptions{IndentWidth: 1, Palette: output.NewPalette(true)}), events)
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("expected no escape sequences without color")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("expected escape sequences with color")
	}
}

func TestRawStreamRendererWritesErrorsToStderr(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	renderer := output.NewRawStreamRenderer(&stdout, &stderr, output.RawOptions{IncludeSummary: true})
	render(t, renderer, []stream.Event{
		{Kind: stream.EventKindStart, Path: "broken.yaml"},
		{Kind: stream.EventKindObject, Object: &stream.ObjectEvent{Phase: stream.ObjectEnter, Name: "ABC", FullName: "/"}},
		{Kind: stream.EventKindError, Path: "broken.yaml", Err: &stream.ErrorEvent{Message: "/xf: invalid transformation"}},
	})
	if stdout.String() != "ABC\n" {
		t.Fatalf("expected the partial dump to be kept, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "invalid transformation") {
		t.Fatalf("expected the error on stderr, got %q", stderr.String())
	}
}

type failingWriter struct{}

var errWriteFailed = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) { return 0, errWriteFailed }

func TestRawStreamRendererReportsWriteErrors(t *testing.T) {
	renderer := output.NewRawStreamRenderer(failingWriter{}, nil, output.RawOptions{})
	err := renderer.Handle(stream.Event{Kind: stream.EventKindObject, Object: &stream.ObjectEvent{Phase: stream.ObjectEnter, Name: "ABC"}})
	if !errors.Is(err, errWriteFailed) {
		t.Fatalf("expected the write error, got %v", err)
	}
	if !errors.Is(renderer.Flush(), errWriteFailed) {
		t.Fatalf("expected Flush to report the write error")
	}
}

func TestRawStreamRendererMarksMeshVelocities(t *testing.T) {
	testCases := []struct {
		name       string
		velocities bool
		expected   string
	}{
		{name: "absent", expected: "topology: constant\nnormals scope: vertex\n"},
		{name: "present", velocities: true, expected: "topology: constant\nnormals scope: vertex\nvelocities: present\n"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var stdout bytes.Buffer
			renderer := output.NewRawStreamRenderer(&stdout, nil, output.RawOptions{})
			render(t, renderer, []stream.Event{{
				Kind:     stream.EventKindTopology,
				Topology: &types.TopologyNode{Variance: "constant", NormalsScope: "vertex", Velocities: testCase.velocities},
			}})
			if diff := cmp.Diff(testCase.expected, stdout.String()); diff != "" {
				t.Fatalf("topology output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
