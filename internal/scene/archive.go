package scene

import (
	"fmt"

	"github.com/temirov/abcdump/internal/abc"
)

// Archive is an in-memory archive built from a scene description.
type Archive struct {
	name          string
	metaData      abc.MetaData
	timeSamplings []abc.TimeSampling
	top           *Object
}

func (archive *Archive) Name() string {
	return archive.name
}

func (archive *Archive) Valid() bool {
	return archive != nil && archive.top != nil
}

func (archive *Archive) MetaData() abc.MetaData {
	return archive.metaData
}

func (archive *Archive) Top() (abc.Object, error) {
	if !archive.Valid() {
		return nil, abc.ErrInvalidArchive
	}
	return archive.top, nil
}

func (archive *Archive) NumTimeSamplings() int {
	return len(archive.timeSamplings)
}

func (archive *Archive) TimeSampling(index int) (abc.TimeSampling, error) {
	return archive.timeSampling(index)
}

func (archive *Archive) Close() error {
	return nil
}

// Object is a node of a scene archive.
type Object struct {
	header   abc.ObjectHeader
	children []*Object
	schema   abc.Schema
}

func (object *Object) Header() abc.ObjectHeader {
	return object.header
}

func (object *Object) NumChildren() int {
	return len(object.children)
}

func (object *Object) Child(index int) (abc.Object, error) {
	if index < 0 || index >= len(object.children) {
		return nil, fmt.Errorf("%s child %d: %w", object.header.FullName, index, abc.ErrChildIndex)
	}
	return object.children[index], nil
}

func (object *Object) Schema() (abc.Schema, error) {
	return object.schema, nil
}

type schemaBase struct {
	title        string
	timeSampling abc.TimeSampling
}

func (base schemaBase) Title() string {
	return base.title
}

func (base schemaBase) TimeSampling() abc.TimeSampling {
	return base.timeSampling
}

func checkSampleIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("sample %d of %d: %w", index, count, abc.ErrSampleIndex)
	}
	return nil
}

// XformSchema holds transform samples.
type XformSchema struct {
	schemaBase
	samples []abc.XformSample
	valid   bool
}

// Valid reports whether every operation carries the channel count of its type.
func (schema *XformSchema) Valid() bool {
	return schema.valid
}

func (schema *XformSchema) NumSamples() int {
	return len(schema.samples)
}

func (schema *XformSchema) Sample(index int) (abc.XformSample, error) {
	if err := checkSampleIndex(index, len(schema.samples)); err != nil {
		return abc.XformSample{}, err
	}
	return schema.samples[index], nil
}

// PolyMeshSchema holds polygon mesh samples.
type PolyMeshSchema struct {
	schemaBase
	samples      []abc.PolyMeshSample
	normalsScope abc.GeometryScope
	variance     abc.TopologyVariance
}

func (schema *PolyMeshSchema) Valid() bool {
	return true
}

func (schema *PolyMeshSchema) NumSamples() int {
	return len(schema.samples)
}

func (schema *PolyMeshSchema) Sample(index int) (abc.PolyMeshSample, error) {
	if err := checkSampleIndex(index, len(schema.samples)); err != nil {
		return abc.PolyMeshSample{}, err
	}
	return schema.samples[index], nil
}

func (schema *PolyMeshSchema) TopologyVariance() abc.TopologyVariance {
	return schema.variance
}

func (schema *PolyMeshSchema) NormalsScope() abc.GeometryScope {
	return schema.normalsScope
}

func (schema *PolyMeshSchema) HasVelocities() bool {
	for _, sample := range schema.samples {
		if len(sample.Velocities) > 0 {
			return true
		}
	}
	return false
}

// PointsSchema holds point cloud samples.
type PointsSchema struct {
	schemaBase
	samples []abc.PointsSample
}

func (schema *PointsSchema) Valid() bool {
	return true
}

func (schema *PointsSchema) NumSamples() int {
	return len(schema.samples)
}

func (schema *PointsSchema) Sample(index int) (abc.PointsSample, error) {
	if err := checkSampleIndex(index, len(schema.samples)); err != nil {
		return abc.PointsSample{}, err
	}
	return schema.samples[index], nil
}
