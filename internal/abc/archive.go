// Package abc defines the read-only query interface over scene-description archives:
// a hierarchy of objects carrying time-sampled transform, polygon mesh and point
// cloud schemas. Backends implement Archive and Object; the value types and
// classification rules shared by every backend live here as well.
package abc

import "fmt"

// Schema titles recognized in object metadata under SchemaKey.
const (
	XformSchemaTitle    = "AbcGeom_Xform_v3"
	PolyMeshSchemaTitle = "AbcGeom_PolyMesh_v1"
	PointsSchemaTitle   = "AbcGeom_Points_v1"

	// TopObjectName is the name reported by the top object of every archive.
	TopObjectName = "ABC"
)

// ObjectHeader identifies an object and carries its metadata.
type ObjectHeader struct {
	Name     string
	FullName string
	MetaData MetaData
}

// SchemaTitle returns the schema title recorded in the header metadata.
func (header ObjectHeader) SchemaTitle() string {
	return header.MetaData.Get(SchemaKey)
}

// Archive is an opened scene archive.
type Archive interface {
	Name() string
	Valid() bool
	MetaData() MetaData
	Top() (Object, error)
	NumTimeSamplings() int
	TimeSampling(index int) (TimeSampling, error)
	Close() error
}

// Object is a node of the archive hierarchy.
type Object interface {
	Header() ObjectHeader
	NumChildren() int
	Child(index int) (Object, error)
	// Schema returns the typed schema of the object, or nil when it has none.
	Schema() (Schema, error)
}

// Schema is the part shared by every typed schema.
type Schema interface {
	Title() string
	Valid() bool
	NumSamples() int
	TimeSampling() TimeSampling
}

// XformSchema exposes transform samples.
type XformSchema interface {
	Schema
	Sample(index int) (XformSample, error)
}

// PolyMeshSchema exposes polygon mesh samples.
type PolyMeshSchema interface {
	Schema
	Sample(index int) (PolyMeshSample, error)
	TopologyVariance() TopologyVariance
	NormalsScope() GeometryScope
	HasVelocities() bool
}

// PointsSchema exposes point cloud samples.
type PointsSchema interface {
	Schema
	Sample(index int) (PointsSample, error)
}

// MatchesXform reports whether header describes a transform.
func MatchesXform(header ObjectHeader) bool {
	return header.SchemaTitle() == XformSchemaTitle
}

// MatchesPolyMesh reports whether header describes a polygon mesh.
func MatchesPolyMesh(header ObjectHeader) bool {
	return header.SchemaTitle() == PolyMeshSchemaTitle
}

// MatchesPoints reports whether header describes a point cloud.
func MatchesPoints(header ObjectHeader) bool {
	return header.SchemaTitle() == PointsSchemaTitle
}

// XformOf returns the transform schema of object.
func XformOf(object Object) (XformSchema, error) {
	schema, err := typedSchema(object, MatchesXform)
	if err != nil {
		return nil, err
	}
	xform, ok := schema.(XformSchema)
	if !ok {
		return nil, fmt.Errorf("%s: %w", object.Header().FullName, ErrSchemaMismatch)
	}
	return xform, nil
}

// PolyMeshOf returns the polygon mesh schema of object.
func PolyMeshOf(object Object) (PolyMeshSchema, error) {
	schema, err := typedSchema(object, MatchesPolyMesh)
	if err != nil {
		return nil, err
	}
	mesh, ok := schema.(PolyMeshSchema)
	if !ok {
		return nil, fmt.Errorf("%s: %w", object.Header().FullName, ErrSchemaMismatch)
	}
	return mesh, nil
}

// PointsOf returns the point cloud schema of object.
func PointsOf(object Object) (PointsSchema, error) {
	schema, err := typedSchema(object, MatchesPoints)
	if err != nil {
		return nil, err
	}
	points, ok := schema.(PointsSchema)
	if !ok {
		return nil, fmt.Errorf("%s: %w", object.Header().FullName, ErrSchemaMismatch)
	}
	return points, nil
}

func typedSchema(object Object, matches func(ObjectHeader) bool) (Schema, error) {
	if object == nil {
		return nil, ErrSchemaMismatch
	}
	header := object.Header()
	if !matches(header) {
		return nil, fmt.Errorf("%s: %w", header.FullName, ErrSchemaMismatch)
	}
	schema, err := object.Schema()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", header.FullName, err)
	}
	if schema == nil {
		return nil, fmt.Errorf("%s: %w", header.FullName, ErrInvalidSchema)
	}
	if schema.Title() != header.SchemaTitle() {
		return nil, fmt.Errorf("%s: schema %q: %w", header.FullName, schema.Title(), ErrSchemaMismatch)
	}
	return schema, nil
}

// ChildFullName joins a parent full name and a child name.
func ChildFullName(parentFullName, childName string) string {
	if parentFullName == "" || parentFullName == "/" {
		return "/" + childName
	}
	return parentFullName + "/" + childName
}
