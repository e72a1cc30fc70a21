// Package dump walks an archive depth first and reports every object and schema sample.
package dump

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/abcdump/internal/abc"
)

// EventKind identifies the step of the walk an Event reports.
type EventKind int

// Event kinds reported by Walk.
const (
	EventEnterObject EventKind = iota
	EventXformSample
	EventTopology
	EventPolyMeshSample
	EventPointsSample
	EventTimeSampling
	EventLeaveObject
)

const (
	invalidTransformationMessage = "invalid transformation"
	nilHandlerMessage            = "dump handler is nil"
	objectErrorFormat            = "%s: %w"
)

// Summary counts the objects and samples of a subtree.
type Summary struct {
	Objects int
	Xforms  int
	Meshes  int
	Points  int
	Samples int
}

func (summary *Summary) add(other Summary) {
	summary.Objects += other.Objects
	summary.Xforms += other.Xforms
	summary.Meshes += other.Meshes
	summary.Points += other.Points
	summary.Samples += other.Samples
}

// ObjectEvent is the payload of EventEnterObject and EventLeaveObject. Summary is set on leave only.
type ObjectEvent struct {
	Name     string
	FullName string
	MetaData string
	Schema   string
	Summary  Summary
}

// XformSampleEvent is one transform sample.
type XformSampleEvent struct {
	Index    int
	Time     float64
	Inherits bool
	Ops      []abc.XformOp
}

// TopologyEvent describes a polygon mesh schema before its samples. Velocities reports whether any
// sample carries velocities.
type TopologyEvent struct {
	Variance     abc.TopologyVariance
	NormalsScope abc.GeometryScope
	Velocities   bool
}

// PolyMeshSampleEvent is one polygon mesh sample with its faces already split.
type PolyMeshSampleEvent struct {
	Index      int
	Time       float64
	Positions  []abc.Vec3
	Normals    []abc.Vec3
	Faces      [][]int32
	Velocities []abc.Vec3
	Bounds     abc.Box3
}

// PointsSampleEvent is one point cloud sample.
type PointsSampleEvent struct {
	Index      int
	Time       float64
	Positions  []abc.Vec3
	IDs        []uint64
	Velocities []abc.Vec3
	Bounds     abc.Box3
}

// TimeEntry pairs a sample index with its time.
type TimeEntry struct {
	Index int
	Time  float64
}

// TimeSamplingEvent closes the samples of a schema. Times is empty unless Options.IncludeTimes is set.
type TimeSamplingEvent struct {
	Kind            abc.TimeSamplingKind
	SamplesPerCycle uint32
	TimePerCycle    float64
	Times           []TimeEntry
}

// Event is reported for every step of the walk. Depth and FullName identify the
// object the event belongs to; exactly one payload matching Kind is set.
type Event struct {
	Kind         EventKind
	Depth        int
	FullName     string
	Object       *ObjectEvent
	Xform        *XformSampleEvent
	Topology     *TopologyEvent
	PolyMesh     *PolyMeshSampleEvent
	Points       *PointsSampleEvent
	TimeSampling *TimeSamplingEvent
}

// Options configures Walk.
type Options struct {
	IncludeTimes bool
	Logger       *zap.Logger
}

type walkContext struct {
	options Options
	handler func(Event) error
}

// Walk visits archive in pre-order starting at its top object and reports each step to handler.
// The first failure stops the walk and is returned.
func Walk(archive abc.Archive, options Options, handler func(Event) error) error {
	if handler == nil {
		return errors.New(nilHandlerMessage)
	}
	if archive == nil || !archive.Valid() {
		return abc.ErrInvalidArchive
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	top, err := archive.Top()
	if err != nil {
		return fmt.Errorf(objectErrorFormat, archive.Name(), err)
	}
	ctx := walkContext{options: options, handler: handler}
	_, err = ctx.visit(top, 0)
	return err
}

func (ctx *walkContext) visit(object abc.Object, depth int) (Summary, error) {
	header := object.Header()
	ctx.options.Logger.Debug("visiting object",
		zap.String("object", header.FullName),
		zap.Int("depth", depth),
		zap.String("schema", header.SchemaTitle()),
		zap.Int("children", object.NumChildren()),
	)

	enter := ObjectEvent{
		Name:     header.Name,
		FullName: header.FullName,
		MetaData: header.MetaData.Serialize(),
		Schema:   header.SchemaTitle(),
	}
	if err := ctx.emit(Event{Kind: EventEnterObject, Depth: depth, FullName: header.FullName, Object: &enter}); err != nil {
		return Summary{}, err
	}

	summary := Summary{Objects: 1}
	var schemaErr error
	switch {
	case abc.MatchesXform(header):
		summary.Xforms = 1
		summary.Samples, schemaErr = ctx.visitXform(object, depth)
	case abc.MatchesPolyMesh(header):
		summary.Meshes = 1
		summary.Samples, schemaErr = ctx.visitPolyMesh(object, depth)
	case abc.MatchesPoints(header):
		summary.Points = 1
		summary.Samples, schemaErr = ctx.visitPoints(object, depth)
	}
	if schemaErr != nil {
		return Summary{}, fmt.Errorf(objectErrorFormat, header.FullName, schemaErr)
	}

	for childIndex := 0; childIndex < object.NumChildren(); childIndex++ {
		child, err := object.Child(childIndex)
		if err != nil {
			return Summary{}, fmt.Errorf(objectErrorFormat, header.FullName, err)
		}
		childSummary, err := ctx.visit(child, depth+1)
		if err != nil {
			return Summary{}, err
		}
		summary.add(childSummary)
	}

	leave := enter
	leave.Summary = summary
	if err := ctx.emit(Event{Kind: EventLeaveObject, Depth: depth, FullName: header.FullName, Object: &leave}); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func (ctx *walkContext) visitXform(object abc.Object, depth int) (int, error) {
	schema, err := abc.XformOf(object)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", invalidTransformationMessage, abc.ErrInvalidSchema, err)
	}
	if !schema.Valid() {
		return 0, fmt.Errorf("%s: %w", invalidTransformationMessage, abc.ErrInvalidSchema)
	}
	sampling := schema.TimeSampling()
	fullName := object.Header().FullName
	for sampleIndex := 0; sampleIndex < schema.NumSamples(); sampleIndex++ {
		sample, err := schema.Sample(sampleIndex)
		if err != nil {
			return 0, err
		}
		event := XformSampleEvent{
			Index:    sampleIndex,
			Time:     sampling.SampleTime(sampleIndex),
			Inherits: sample.Inherits,
			Ops:      sample.Ops,
		}
		if err := ctx.emit(Event{Kind: EventXformSample, Depth: depth, FullName: fullName, Xform: &event}); err != nil {
			return 0, err
		}
	}
	return schema.NumSamples(), ctx.emitTimeSampling(fullName, depth, sampling, schema.NumSamples())
}

func (ctx *walkContext) visitPolyMesh(object abc.Object, depth int) (int, error) {
	schema, err := abc.PolyMeshOf(object)
	if err != nil {
		return 0, err
	}
	fullName := object.Header().FullName
	topology := TopologyEvent{
		Variance:     schema.TopologyVariance(),
		NormalsScope: schema.NormalsScope(),
		Velocities:   schema.HasVelocities(),
	}
	if err := ctx.emit(Event{Kind: EventTopology, Depth: depth, FullName: fullName, Topology: &topology}); err != nil {
		return 0, err
	}
	sampling := schema.TimeSampling()
	for sampleIndex := 0; sampleIndex < schema.NumSamples(); sampleIndex++ {
		sample, err := schema.Sample(sampleIndex)
		if err != nil {
			return 0, err
		}
		faces, err := sample.Faces()
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", sampleIndex, err)
		}
		event := PolyMeshSampleEvent{
			Index:      sampleIndex,
			Time:       sampling.SampleTime(sampleIndex),
			Positions:  sample.Positions,
			Normals:    sample.Normals,
			Faces:      faces,
			Velocities: sample.Velocities,
			Bounds:     sample.Bounds(),
		}
		if err := ctx.emit(Event{Kind: EventPolyMeshSample, Depth: depth, FullName: fullName, PolyMesh: &event}); err != nil {
			return 0, err
		}
	}
	return schema.NumSamples(), ctx.emitTimeSampling(fullName, depth, sampling, schema.NumSamples())
}

func (ctx *walkContext) visitPoints(object abc.Object, depth int) (int, error) {
	schema, err := abc.PointsOf(object)
	if err != nil {
		return 0, err
	}
	fullName := object.Header().FullName
	sampling := schema.TimeSampling()
	for sampleIndex := 0; sampleIndex < schema.NumSamples(); sampleIndex++ {
		sample, err := schema.Sample(sampleIndex)
		if err != nil {
			return 0, err
		}
		event := PointsSampleEvent{
			Index:      sampleIndex,
			Time:       sampling.SampleTime(sampleIndex),
			Positions:  sample.Positions,
			IDs:        sample.IDs,
			Velocities: sample.Velocities,
			Bounds:     sample.Bounds(),
		}
		if err := ctx.emit(Event{Kind: EventPointsSample, Depth: depth, FullName: fullName, Points: &event}); err != nil {
			return 0, err
		}
	}
	return schema.NumSamples(), ctx.emitTimeSampling(fullName, depth, sampling, schema.NumSamples())
}

func (ctx *walkContext) emitTimeSampling(fullName string, depth int, sampling abc.TimeSampling, numSamples int) error {
	event := TimeSamplingEvent{
		Kind:            sampling.Kind(),
		SamplesPerCycle: sampling.Type.SamplesPerCycle,
		TimePerCycle:    sampling.Type.TimePerCycle,
	}
	if ctx.options.IncludeTimes {
		for sampleIndex, sampleTime := range sampling.Times(numSamples) {
			event.Times = append(event.Times, TimeEntry{Index: sampleIndex, Time: sampleTime})
		}
	}
	return ctx.emit(Event{Kind: EventTimeSampling, Depth: depth, FullName: fullName, TimeSampling: &event})
}

func (ctx *walkContext) emit(event Event) error {
	return ctx.handler(event)
}
