package stream

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/abcdump/internal/abc"
	"github.com/temirov/abcdump/internal/dump"
	"github.com/temirov/abcdump/internal/types"
)

const (
	nilChannelMessage    = "stream: event channel is nil"
	nilArchiveMessage    = "stream: archive is nil"
	stackMismatchFormat  = "stream: object stack mismatch for %s"
	unexpectedKindFormat = "stream: unexpected dump event %d for %s"
)

type StreamOptions struct {
	Archive      abc.Archive
	Path         string
	IncludeTimes bool
	Logger       *zap.Logger
}

type emitter struct {
	ctx     context.Context
	out     chan<- Event
	command string
}

func newEmitter(ctx context.Context, out chan<- Event, command string) *emitter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &emitter{ctx: ctx, out: out, command: command}
}

func (e *emitter) send(event Event) error {
	if e.out == nil {
		return errors.New(nilChannelMessage)
	}
	event.Version = SchemaVersion
	if event.Command == "" {
		event.Command = e.command
	}
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	case e.out <- event:
		return nil
	}
}

// treeBuilder assembles the object tree from enter and leave events.
type treeBuilder struct {
	stack []*types.ObjectNode
	root  *types.ObjectNode
}

func (builder *treeBuilder) current(fullName string) (*types.ObjectNode, error) {
	if len(builder.stack) == 0 {
		return nil, fmt.Errorf(stackMismatchFormat, fullName)
	}
	node := builder.stack[len(builder.stack)-1]
	if node.FullName != fullName {
		return nil, fmt.Errorf(stackMismatchFormat, fullName)
	}
	return node, nil
}

func (builder *treeBuilder) enter(object *dump.ObjectEvent) {
	builder.stack = append(builder.stack, &types.ObjectNode{
		Name:     object.Name,
		FullName: object.FullName,
		MetaData: object.MetaData,
		Schema:   object.Schema,
	})
}

func (builder *treeBuilder) leave(object *dump.ObjectEvent) error {
	node, err := builder.current(object.FullName)
	if err != nil {
		return err
	}
	node.Summary = convertSummary(object.Summary)
	builder.stack = builder.stack[:len(builder.stack)-1]
	if len(builder.stack) == 0 {
		builder.root = node
		return nil
	}
	parent := builder.stack[len(builder.stack)-1]
	parent.Children = append(parent.Children, node)
	return nil
}

// StreamArchive walks options.Archive and emits start, one event per walk step, then
// tree, summary and done. A failed walk emits an error event and returns the failure.
func StreamArchive(ctx context.Context, options StreamOptions, out chan<- Event) error {
	if options.Archive == nil {
		return errors.New(nilArchiveMessage)
	}
	if options.Path == "" {
		options.Path = options.Archive.Name()
	}

	emitter := newEmitter(ctx, out, types.CommandDump)
	if err := emitter.send(Event{Kind: EventKindStart, Path: options.Path}); err != nil {
		return err
	}

	builder := &treeBuilder{}
	handler := func(event dump.Event) error {
		converted, err := convertEvent(event)
		if err != nil {
			return err
		}
		switch event.Kind {
		case dump.EventEnterObject:
			builder.enter(event.Object)
		case dump.EventLeaveObject:
			if err := builder.leave(event.Object); err != nil {
				return err
			}
		default:
			node, err := builder.current(event.FullName)
			if err != nil {
				return err
			}
			switch converted.Kind {
			case EventKindSample:
				node.Samples = append(node.Samples, converted.Sample.SampleNode)
			case EventKindTopology:
				node.Topology = converted.Topology
			case EventKindTimeSampling:
				node.TimeSampling = converted.TimeSampling
			}
		}
		return emitter.send(converted)
	}

	walkOptions := dump.Options{IncludeTimes: options.IncludeTimes, Logger: options.Logger}
	if err := dump.Walk(options.Archive, walkOptions, handler); err != nil {
		_ = emitter.send(Event{Kind: EventKindError, Path: options.Path, Err: &ErrorEvent{Message: err.Error()}})
		return err
	}

	if err := emitter.send(Event{Kind: EventKindTree, Path: options.Path, Tree: builder.root}); err != nil {
		return err
	}
	var summary *types.OutputSummary
	if builder.root != nil {
		summary = builder.root.Summary
	}
	if err := emitter.send(Event{Kind: EventKindSummary, Path: options.Path, Summary: summary}); err != nil {
		return err
	}
	return emitter.send(Event{Kind: EventKindDone, Path: options.Path})
}

func convertEvent(event dump.Event) (Event, error) {
	converted := Event{Path: event.FullName, Depth: event.Depth}
	switch event.Kind {
	case dump.EventEnterObject, dump.EventLeaveObject:
		object := event.Object
		converted.Kind = EventKindObject
		converted.Object = &ObjectEvent{
			Phase:    ObjectEnter,
			Name:     object.Name,
			FullName: object.FullName,
			MetaData: object.MetaData,
			Schema:   object.Schema,
		}
		if event.Kind == dump.EventLeaveObject {
			converted.Object.Phase = ObjectLeave
			converted.Object.Summary = convertSummary(object.Summary)
		}
	case dump.EventXformSample:
		sample := event.Xform
		inherits := sample.Inherits
		converted.Kind = EventKindSample
		converted.Sample = &SampleEvent{
			Schema: types.SchemaKindXform,
			SampleNode: types.SampleNode{
				Index:    sample.Index,
				Time:     sample.Time,
				Inherits: &inherits,
				Ops:      convertOps(sample.Ops),
			},
		}
	case dump.EventTopology:
		converted.Kind = EventKindTopology
		converted.Topology = &types.TopologyNode{
			Variance:     event.Topology.Variance.String(),
			NormalsScope: event.Topology.NormalsScope.String(),
			Velocities:   event.Topology.Velocities,
		}
	case dump.EventPolyMeshSample:
		sample := event.PolyMesh
		converted.Kind = EventKindSample
		converted.Sample = &SampleEvent{
			Schema: types.SchemaKindPolyMesh,
			SampleNode: types.SampleNode{
				Index:      sample.Index,
				Time:       sample.Time,
				Positions:  convertVectors(sample.Positions),
				Normals:    convertVectors(sample.Normals),
				Faces:      convertFaces(sample.Faces),
				Velocities: convertVectors(sample.Velocities),
				Bounds:     convertBounds(sample.Bounds),
			},
		}
	case dump.EventPointsSample:
		sample := event.Points
		converted.Kind = EventKindSample
		converted.Sample = &SampleEvent{
			Schema: types.SchemaKindPoints,
			SampleNode: types.SampleNode{
				Index:      sample.Index,
				Time:       sample.Time,
				Positions:  convertVectors(sample.Positions),
				IDs:        sample.IDs,
				Velocities: convertVectors(sample.Velocities),
				Bounds:     convertBounds(sample.Bounds),
			},
		}
	case dump.EventTimeSampling:
		sampling := event.TimeSampling
		node := &types.TimeSamplingNode{
			Kind:            string(sampling.Kind),
			SamplesPerCycle: sampling.SamplesPerCycle,
			TimePerCycle:    sampling.TimePerCycle,
		}
		for _, entry := range sampling.Times {
			node.Times = append(node.Times, types.TimeEntry{Index: entry.Index, Time: entry.Time})
		}
		converted.Kind = EventKindTimeSampling
		converted.TimeSampling = node
	default:
		return Event{}, fmt.Errorf(unexpectedKindFormat, event.Kind, event.FullName)
	}
	return converted, nil
}

func convertSummary(summary dump.Summary) *types.OutputSummary {
	return &types.OutputSummary{
		Objects: summary.Objects,
		Xforms:  summary.Xforms,
		Meshes:  summary.Meshes,
		Points:  summary.Points,
		Samples: summary.Samples,
	}
}

func convertOps(ops []abc.XformOp) []types.XformOp {
	if len(ops) == 0 {
		return nil
	}
	converted := make([]types.XformOp, 0, len(ops))
	for _, op := range ops {
		converted = append(converted, types.XformOp{Type: op.Type.String(), Channels: op.Channels})
	}
	return converted
}

func convertVector(vector abc.Vec3) types.Vector {
	return types.Vector{X: vector.X, Y: vector.Y, Z: vector.Z}
}

func convertVectors(vectors []abc.Vec3) []types.Vector {
	if len(vectors) == 0 {
		return nil
	}
	converted := make([]types.Vector, 0, len(vectors))
	for _, vector := range vectors {
		converted = append(converted, convertVector(vector))
	}
	return converted
}

func convertFaces(faces [][]int32) []types.Face {
	if len(faces) == 0 {
		return nil
	}
	converted := make([]types.Face, 0, len(faces))
	for _, face := range faces {
		converted = append(converted, types.Face{Indices: face})
	}
	return converted
}

// convertBounds returns nil for an empty box, whose infinite corners have no JSON form.
func convertBounds(box abc.Box3) *types.Bounds {
	if box.IsEmpty() {
		return nil
	}
	return &types.Bounds{Min: convertVector(box.Min), Max: convertVector(box.Max)}
}
