// Package h5archive stores scene archives in HDF5 files through github.com/scigolib/hdf5.
//
// Objects are numbered in pre-order and described by a handful of root-level
// columns; per-sample property values are flattened into one dataset per property
// with a companion ".off" dataset holding the element offset of every sample slot.
package h5archive

import (
	"errors"
	"fmt"

	"github.com/temirov/abcdump/internal/abc"
)

const (
	namesDataset              = "names"
	metaDataset               = "meta"
	treeDataset               = "tree"
	timeSamplingsDataset      = "ts"
	positionsDataset          = "P"
	normalsDataset            = "N"
	velocitiesDataset         = "v"
	faceIndicesDataset        = "fi"
	faceCountsDataset         = "fc"
	pointIDsDataset           = "ids"
	xformOpsDataset           = "ops"
	xformChannelsDataset      = "ch"
	xformInheritsDataset      = "inh"
	offsetsDatasetSuffix      = ".off"
	treeColumnCount           = 4
	timeSamplingHeaderLength  = 2
	noTimeSamplingIndex       = -1
	topParentIndex            = -1
	componentsPerVector       = 3
	datasetPathPrefix         = "/"
	inconsistentColumnMessage = "column %s: %s"
)

// maxExactPointID is the largest point id stored and read back exactly.
const maxExactPointID = 1 << 53

// ErrPointIDRange reports a point id above maxExactPointID.
var ErrPointIDRange = errors.New("point id too large for the HDF5 layout")

// slotProperties lists every property column that carries per-slot offsets.
var slotProperties = []string{
	positionsDataset,
	normalsDataset,
	velocitiesDataset,
	faceIndicesDataset,
	faceCountsDataset,
	pointIDsDataset,
	xformOpsDataset,
	xformChannelsDataset,
}

// objectRecord is one row of the tree column.
type objectRecord struct {
	parent            int
	numSamples        int
	timeSamplingIndex int
	normalsScope      abc.GeometryScope
}

func (record objectRecord) encode() []int64 {
	return []int64{
		int64(record.parent),
		int64(record.numSamples),
		int64(record.timeSamplingIndex),
		int64(record.normalsScope),
	}
}

func decodeObjectRecord(row []float64) objectRecord {
	return objectRecord{
		parent:            int(row[0]),
		numSamples:        int(row[1]),
		timeSamplingIndex: int(row[2]),
		normalsScope:      abc.GeometryScope(int(row[3])),
	}
}

func encodeTimeSampling(sampling abc.TimeSampling) []float64 {
	encoded := make([]float64, 0, timeSamplingHeaderLength+len(sampling.StoredTimes))
	encoded = append(encoded, sampling.Type.TimePerCycle, float64(sampling.Type.SamplesPerCycle))
	return append(encoded, sampling.StoredTimes...)
}

func decodeTimeSampling(encoded []float64) (abc.TimeSampling, error) {
	if len(encoded) < timeSamplingHeaderLength {
		return abc.TimeSampling{}, fmt.Errorf(inconsistentColumnMessage, timeSamplingsDataset, "truncated time sampling")
	}
	return abc.TimeSampling{
		Type: abc.TimeSamplingType{
			TimePerCycle:    encoded[0],
			SamplesPerCycle: uint32(encoded[1]),
		},
		StoredTimes: append([]float64(nil), encoded[timeSamplingHeaderLength:]...),
	}, nil
}

func vectorsToFloats(vectors []abc.Vec3) []float64 {
	flattened := make([]float64, 0, len(vectors)*componentsPerVector)
	for _, vector := range vectors {
		flattened = append(flattened, vector.X, vector.Y, vector.Z)
	}
	return flattened
}

func floatsToVectors(values []float64) ([]abc.Vec3, error) {
	if len(values)%componentsPerVector != 0 {
		return nil, fmt.Errorf("%d values do not form vectors", len(values))
	}
	if len(values) == 0 {
		return nil, nil
	}
	vectors := make([]abc.Vec3, len(values)/componentsPerVector)
	for index := range vectors {
		base := index * componentsPerVector
		vectors[index] = abc.Vec3{X: values[base], Y: values[base+1], Z: values[base+2]}
	}
	return vectors, nil
}

func floatsToInt32s(values []float64) []int32 {
	if len(values) == 0 {
		return nil
	}
	converted := make([]int32, len(values))
	for index, value := range values {
		converted[index] = int32(value)
	}
	return converted
}

func floatsToUint64s(values []float64) []uint64 {
	if len(values) == 0 {
		return nil
	}
	converted := make([]uint64, len(values))
	for index, value := range values {
		converted[index] = uint64(value)
	}
	return converted
}

func floatsToInt64s(values []float64) []int64 {
	converted := make([]int64, len(values))
	for index, value := range values {
		converted[index] = int64(value)
	}
	return converted
}
