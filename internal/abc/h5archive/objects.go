package h5archive

import (
	"fmt"
	"sync"

	"github.com/temirov/abcdump/internal/abc"
)

type object struct {
	archive   *Archive
	header    abc.ObjectHeader
	record    objectRecord
	firstSlot int
	children  []int
}

func (entry *object) Header() abc.ObjectHeader {
	return entry.header
}

func (entry *object) NumChildren() int {
	return len(entry.children)
}

func (entry *object) Child(index int) (abc.Object, error) {
	if index < 0 || index >= len(entry.children) {
		return nil, fmt.Errorf("%s child %d: %w", entry.header.FullName, index, abc.ErrChildIndex)
	}
	return entry.archive.objects[entry.children[index]], nil
}

func (entry *object) Schema() (abc.Schema, error) {
	base := schemaBase{entry: entry, title: entry.header.SchemaTitle()}
	switch {
	case abc.MatchesXform(entry.header):
		return newXformSchema(base), nil
	case abc.MatchesPolyMesh(entry.header):
		return &polyMeshSchema{schemaBase: base}, nil
	case abc.MatchesPoints(entry.header):
		return &pointsSchema{schemaBase: base}, nil
	default:
		return nil, nil
	}
}

type schemaBase struct {
	entry *object
	title string
}

func (base schemaBase) Title() string {
	return base.title
}

func (base schemaBase) NumSamples() int {
	return base.entry.record.numSamples
}

func (base schemaBase) TimeSampling() abc.TimeSampling {
	if base.entry.record.timeSamplingIndex == noTimeSamplingIndex {
		return abc.IdentityTimeSampling()
	}
	return base.entry.archive.timeSamplings[base.entry.record.timeSamplingIndex]
}

func (base schemaBase) slot(index int) (int, error) {
	if index < 0 || index >= base.NumSamples() {
		return 0, fmt.Errorf("%s sample %d: %w", base.entry.header.FullName, index, abc.ErrSampleIndex)
	}
	return base.entry.firstSlot + index, nil
}

func (base schemaBase) values(property string, slot int) []float64 {
	return base.entry.archive.columns[property].slot(slot)
}

func (base schemaBase) vectors(property string, slot int) ([]abc.Vec3, error) {
	vectors, err := floatsToVectors(base.values(property, slot))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", base.entry.header.FullName, property, err)
	}
	return vectors, nil
}

type xformSchema struct {
	schemaBase
	valid bool
}

func newXformSchema(base schemaBase) *xformSchema {
	schema := &xformSchema{schemaBase: base, valid: true}
	for index := 0; index < base.NumSamples(); index++ {
		if _, err := schema.Sample(index); err != nil {
			schema.valid = false
			break
		}
	}
	return schema
}

func (schema *xformSchema) Valid() bool {
	return schema.valid
}

func (schema *xformSchema) Sample(index int) (abc.XformSample, error) {
	slot, err := schema.slot(index)
	if err != nil {
		return abc.XformSample{}, err
	}
	codes := schema.values(xformOpsDataset, slot)
	channels := schema.values(xformChannelsDataset, slot)
	sample := abc.XformSample{Inherits: schema.entry.archive.inheritsAt(slot)}
	consumed := 0
	for _, code := range codes {
		opType := abc.XformOpType(int(code))
		end := consumed + opType.ChannelCount()
		if !opType.Valid() || end > len(channels) {
			return abc.XformSample{}, fmt.Errorf("%s sample %d: %w", schema.entry.header.FullName, index, abc.ErrChannelCount)
		}
		op, err := abc.NewXformOp(opType, channels[consumed:end])
		if err != nil {
			return abc.XformSample{}, err
		}
		sample.Ops = append(sample.Ops, op)
		consumed = end
	}
	if consumed != len(channels) {
		return abc.XformSample{}, fmt.Errorf("%s sample %d: %w", schema.entry.header.FullName, index, abc.ErrChannelCount)
	}
	return sample, nil
}

type polyMeshSchema struct {
	schemaBase
	varianceOnce sync.Once
	variance     abc.TopologyVariance
	validity     error
}

func (schema *polyMeshSchema) classify() {
	schema.varianceOnce.Do(func() {
		samples := make([]abc.PolyMeshSample, 0, schema.NumSamples())
		for index := 0; index < schema.NumSamples(); index++ {
			sample, err := schema.Sample(index)
			if err != nil {
				schema.validity = err
				return
			}
			samples = append(samples, sample)
		}
		schema.variance = abc.ClassifyMeshSamples(samples)
	})
}

func (schema *polyMeshSchema) Valid() bool {
	schema.classify()
	return schema.validity == nil
}

func (schema *polyMeshSchema) TopologyVariance() abc.TopologyVariance {
	schema.classify()
	return schema.variance
}

func (schema *polyMeshSchema) NormalsScope() abc.GeometryScope {
	return schema.entry.record.normalsScope
}

func (schema *polyMeshSchema) HasVelocities() bool {
	for index := 0; index < schema.NumSamples(); index++ {
		if len(schema.values(velocitiesDataset, schema.entry.firstSlot+index)) > 0 {
			return true
		}
	}
	return false
}

func (schema *polyMeshSchema) Sample(index int) (abc.PolyMeshSample, error) {
	slot, err := schema.slot(index)
	if err != nil {
		return abc.PolyMeshSample{}, err
	}
	var sample abc.PolyMeshSample
	if sample.Positions, err = schema.vectors(positionsDataset, slot); err != nil {
		return abc.PolyMeshSample{}, err
	}
	if sample.Normals, err = schema.vectors(normalsDataset, slot); err != nil {
		return abc.PolyMeshSample{}, err
	}
	if sample.Velocities, err = schema.vectors(velocitiesDataset, slot); err != nil {
		return abc.PolyMeshSample{}, err
	}
	sample.FaceIndices = floatsToInt32s(schema.values(faceIndicesDataset, slot))
	sample.FaceCounts = floatsToInt32s(schema.values(faceCountsDataset, slot))
	return sample, nil
}

type pointsSchema struct {
	schemaBase
}

func (schema *pointsSchema) Valid() bool {
	for index := 0; index < schema.NumSamples(); index++ {
		if _, err := schema.Sample(index); err != nil {
			return false
		}
	}
	return true
}

func (schema *pointsSchema) Sample(index int) (abc.PointsSample, error) {
	slot, err := schema.slot(index)
	if err != nil {
		return abc.PointsSample{}, err
	}
	var sample abc.PointsSample
	if sample.Positions, err = schema.vectors(positionsDataset, slot); err != nil {
		return abc.PointsSample{}, err
	}
	if sample.Velocities, err = schema.vectors(velocitiesDataset, slot); err != nil {
		return abc.PointsSample{}, err
	}
	sample.IDs = floatsToUint64s(schema.values(pointIDsDataset, slot))
	return sample, nil
}
