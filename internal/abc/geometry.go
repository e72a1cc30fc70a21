package abc

import (
	"fmt"
	"math"
	"strings"
)

// Vec3 is a three component vector.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min Vec3
	Max Vec3
}

// EmptyBox returns a box that contains nothing.
func EmptyBox() Box3 {
	return Box3{
		Min: Vec3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: Vec3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
}

// IsEmpty reports whether the box contains no point.
func (box Box3) IsEmpty() bool {
	return box.Min.X > box.Max.X || box.Min.Y > box.Max.Y || box.Min.Z > box.Max.Z
}

// Extend grows the box to contain point.
func (box Box3) Extend(point Vec3) Box3 {
	box.Min = Vec3{X: math.Min(box.Min.X, point.X), Y: math.Min(box.Min.Y, point.Y), Z: math.Min(box.Min.Z, point.Z)}
	box.Max = Vec3{X: math.Max(box.Max.X, point.X), Y: math.Max(box.Max.Y, point.Y), Z: math.Max(box.Max.Z, point.Z)}
	return box
}

// BoundsOf returns the bounding box of points.
func BoundsOf(points []Vec3) Box3 {
	box := EmptyBox()
	for _, point := range points {
		box = box.Extend(point)
	}
	return box
}

// GeometryScope describes how a geometric property maps onto a mesh.
type GeometryScope int

const (
	GeometryScopeConstant GeometryScope = iota
	GeometryScopeUniform
	GeometryScopeVarying
	GeometryScopeVertex
	GeometryScopeFaceVarying
	GeometryScopeUnknown
)

var geometryScopeTokens = [...]string{
	GeometryScopeConstant:    "con",
	GeometryScopeUniform:     "uni",
	GeometryScopeVarying:     "var",
	GeometryScopeVertex:      "vtx",
	GeometryScopeFaceVarying: "fvr",
	GeometryScopeUnknown:     "",
}

var geometryScopeNames = [...]string{
	GeometryScopeConstant:    "constant",
	GeometryScopeUniform:     "uniform",
	GeometryScopeVarying:     "varying",
	GeometryScopeVertex:      "vertex",
	GeometryScopeFaceVarying: "facevarying",
	GeometryScopeUnknown:     "unknown",
}

func (scope GeometryScope) valid() bool {
	return scope >= GeometryScopeConstant && scope <= GeometryScopeUnknown
}

// Token returns the metadata token of the scope.
func (scope GeometryScope) Token() string {
	if !scope.valid() {
		return ""
	}
	return geometryScopeTokens[scope]
}

func (scope GeometryScope) String() string {
	if !scope.valid() {
		return geometryScopeNames[GeometryScopeUnknown]
	}
	return geometryScopeNames[scope]
}

// ParseGeometryScope accepts either the metadata token or the long name.
// Anything else maps to GeometryScopeUnknown.
func ParseGeometryScope(value string) GeometryScope {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return GeometryScopeUnknown
	}
	for index := GeometryScopeConstant; index < GeometryScopeUnknown; index++ {
		if normalized == geometryScopeTokens[index] || normalized == geometryScopeNames[index] {
			return index
		}
	}
	return GeometryScopeUnknown
}

// TopologyVariance describes which parts of a mesh change across samples.
type TopologyVariance int

const (
	TopologyConstant TopologyVariance = iota
	TopologyHomogeneous
	TopologyHeterogeneous
)

func (variance TopologyVariance) String() string {
	switch variance {
	case TopologyConstant:
		return "constant"
	case TopologyHomogeneous:
		return "homogeneous"
	case TopologyHeterogeneous:
		return "heterogeneous"
	default:
		return fmt.Sprintf("unknown(%d)", int(variance))
	}
}

// ClassifyTopology derives the variance from the constancy of the mesh properties.
func ClassifyTopology(positionsConstant, indicesConstant, countsConstant bool) TopologyVariance {
	if !indicesConstant || !countsConstant {
		return TopologyHeterogeneous
	}
	if !positionsConstant {
		return TopologyHomogeneous
	}
	return TopologyConstant
}

// PolyMeshSample is the mesh state at one sample.
type PolyMeshSample struct {
	Positions   []Vec3
	Normals     []Vec3
	FaceIndices []int32
	FaceCounts  []int32
	Velocities  []Vec3
}

// Faces groups FaceIndices into one run per entry of FaceCounts.
func (sample PolyMeshSample) Faces() ([][]int32, error) {
	faces := make([][]int32, 0, len(sample.FaceCounts))
	consumed := 0
	for faceIndex, count := range sample.FaceCounts {
		if count < 0 {
			return nil, fmt.Errorf("face %d has negative count %d: %w", faceIndex, count, ErrFaceIndexOverrun)
		}
		end := consumed + int(count)
		if end > len(sample.FaceIndices) {
			return nil, fmt.Errorf("face %d needs indices up to %d of %d: %w", faceIndex, end, len(sample.FaceIndices), ErrFaceIndexOverrun)
		}
		faces = append(faces, sample.FaceIndices[consumed:end:end])
		consumed = end
	}
	if consumed != len(sample.FaceIndices) {
		return nil, fmt.Errorf("faces consumed %d of %d indices: %w", consumed, len(sample.FaceIndices), ErrFaceIndexUnderrun)
	}
	return faces, nil
}

// Bounds returns the bounding box of the sample positions.
func (sample PolyMeshSample) Bounds() Box3 {
	return BoundsOf(sample.Positions)
}

// ExpandIndexed resolves indexed values into a flat list.
func ExpandIndexed(values []Vec3, indices []uint32) ([]Vec3, error) {
	if len(indices) == 0 {
		return append([]Vec3(nil), values...), nil
	}
	expanded := make([]Vec3, len(indices))
	for position, index := range indices {
		if int(index) >= len(values) {
			return nil, fmt.Errorf("index %d at %d exceeds %d values: %w", index, position, len(values), ErrSampleIndex)
		}
		expanded[position] = values[index]
	}
	return expanded, nil
}

// PointsSample is the point cloud state at one sample.
type PointsSample struct {
	Positions  []Vec3
	IDs        []uint64
	Velocities []Vec3
}

// Bounds returns the bounding box of the sample positions.
func (sample PointsSample) Bounds() Box3 {
	return BoundsOf(sample.Positions)
}

// Vec3SamplesEqual reports whether every sample holds the same vectors.
func Vec3SamplesEqual(samples [][]Vec3) bool {
	for index := 1; index < len(samples); index++ {
		if !vec3SliceEqual(samples[0], samples[index]) {
			return false
		}
	}
	return true
}

// Int32SamplesEqual reports whether every sample holds the same integers.
func Int32SamplesEqual(samples [][]int32) bool {
	for index := 1; index < len(samples); index++ {
		if len(samples[0]) != len(samples[index]) {
			return false
		}
		for position, value := range samples[0] {
			if samples[index][position] != value {
				return false
			}
		}
	}
	return true
}

func vec3SliceEqual(left, right []Vec3) bool {
	if len(left) != len(right) {
		return false
	}
	for index := range left {
		if left[index] != right[index] {
			return false
		}
	}
	return true
}

// ClassifyMeshSamples derives the topology variance of a full list of mesh samples.
func ClassifyMeshSamples(samples []PolyMeshSample) TopologyVariance {
	positions := make([][]Vec3, len(samples))
	indices := make([][]int32, len(samples))
	counts := make([][]int32, len(samples))
	for index, sample := range samples {
		positions[index] = sample.Positions
		indices[index] = sample.FaceIndices
		counts[index] = sample.FaceCounts
	}
	return ClassifyTopology(Vec3SamplesEqual(positions), Int32SamplesEqual(indices), Int32SamplesEqual(counts))
}
