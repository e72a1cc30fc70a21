// Package types defines every cross‑package data structure used by the abcdump CLI.
package types

const (
	CommandDump    = "dump"
	CommandConvert = "convert"
	CommandDiff    = "diff"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"

	SchemaKindXform    = "xform"
	SchemaKindPolyMesh = "polyMesh"
	SchemaKindPoints   = "points"
)

// Vector is a three component vector.
type Vector struct {
	X float64 `json:"x" xml:"x,attr"`
	Y float64 `json:"y" xml:"y,attr"`
	Z float64 `json:"z" xml:"z,attr"`
}

// Bounds is the axis-aligned bounding box of a sample.
type Bounds struct {
	Min Vector `json:"min" xml:"min"`
	Max Vector `json:"max" xml:"max"`
}

// XformOp is one transform operation of a sample.
type XformOp struct {
	Type     string    `json:"type" xml:"type,attr"`
	Channels []float64 `json:"channels" xml:"channel"`
}

// Face is one polygon of a mesh sample.
type Face struct {
	Indices []int32 `json:"indices" xml:"index"`
}

// SampleNode holds one sample of a typed schema; only the fields of that schema are set.
type SampleNode struct {
	Index      int       `json:"index" xml:"index,attr"`
	Time       float64   `json:"time" xml:"time,attr"`
	Inherits   *bool     `json:"inherits,omitempty" xml:"inherits,attr,omitempty"`
	Ops        []XformOp `json:"ops,omitempty" xml:"op,omitempty"`
	Positions  []Vector  `json:"positions,omitempty" xml:"positions>p,omitempty"`
	Normals    []Vector  `json:"normals,omitempty" xml:"normals>n,omitempty"`
	Faces      []Face    `json:"faces,omitempty" xml:"faces>face,omitempty"`
	Velocities []Vector  `json:"velocities,omitempty" xml:"velocities>v,omitempty"`
	IDs        []uint64  `json:"ids,omitempty" xml:"ids>id,omitempty"`
	Bounds     *Bounds   `json:"bounds,omitempty" xml:"bounds,omitempty"`
}

// TopologyNode describes a polygon mesh schema.
type TopologyNode struct {
	Variance     string `json:"variance" xml:"variance,attr"`
	NormalsScope string `json:"normalsScope" xml:"normalsScope,attr"`
	Velocities   bool   `json:"velocities,omitempty" xml:"velocities,attr,omitempty"`
}

// TimeEntry is the time of one sample.
type TimeEntry struct {
	Index int     `json:"index" xml:"index,attr"`
	Time  float64 `json:"time" xml:"time,attr"`
}

// TimeSamplingNode describes the time sampling of a schema.
type TimeSamplingNode struct {
	Kind            string      `json:"kind" xml:"kind,attr"`
	SamplesPerCycle uint32      `json:"samplesPerCycle" xml:"samplesPerCycle,attr"`
	TimePerCycle    float64     `json:"timePerCycle" xml:"timePerCycle,attr"`
	Times           []TimeEntry `json:"times,omitempty" xml:"time,omitempty"`
}

// OutputSummary captures aggregate counts over a subtree of objects.
type OutputSummary struct {
	Objects int `json:"objects" xml:"objects,attr"`
	Xforms  int `json:"xforms" xml:"xforms,attr"`
	Meshes  int `json:"meshes" xml:"meshes,attr"`
	Points  int `json:"points" xml:"points,attr"`
	Samples int `json:"samples" xml:"samples,attr"`
}

// ObjectNode represents one object of the archive hierarchy.
type ObjectNode struct {
	Name         string            `json:"name" xml:"name,attr"`
	FullName     string            `json:"fullName" xml:"fullName,attr"`
	MetaData     string            `json:"metadata,omitempty" xml:"metadata,omitempty"`
	Schema       string            `json:"schema,omitempty" xml:"schema,attr,omitempty"`
	Topology     *TopologyNode     `json:"topology,omitempty" xml:"topology,omitempty"`
	Samples      []SampleNode      `json:"samples,omitempty" xml:"samples>sample,omitempty"`
	TimeSampling *TimeSamplingNode `json:"timeSampling,omitempty" xml:"timeSampling,omitempty"`
	Children     []*ObjectNode     `json:"children,omitempty" xml:"children>object,omitempty"`
	Summary      *OutputSummary    `json:"summary,omitempty" xml:"summary,omitempty"`
}
