package h5archive

import (
	"fmt"

	"github.com/scigolib/hdf5"

	"github.com/temirov/abcdump/internal/abc"
)

type numeric interface {
	int32 | int64 | float64
}

type slotColumn[T numeric] struct {
	values  []T
	offsets []int64
}

func (column *slotColumn[T]) appendSlot(values []T) {
	if len(column.offsets) == 0 {
		column.offsets = append(column.offsets, 0)
	}
	column.values = append(column.values, values...)
	column.offsets = append(column.offsets, int64(len(column.values)))
}

// slotValues holds every property of one sample slot.
type slotValues struct {
	positions   []abc.Vec3
	normals     []abc.Vec3
	velocities  []abc.Vec3
	faceIndices []int32
	faceCounts  []int32
	ids         []uint64
	ops         []int32
	channels    []float64
	inherits    bool
}

type columnBuilder struct {
	names         []string
	meta          []string
	tree          []int64
	timeSamplings []abc.TimeSampling
	positions     slotColumn[float64]
	normals       slotColumn[float64]
	velocities    slotColumn[float64]
	faceIndices   slotColumn[int32]
	faceCounts    slotColumn[int32]
	ids           slotColumn[int64]
	ops           slotColumn[int32]
	channels      slotColumn[float64]
	inherits      []int32
}

// Write converts archive into the HDF5 layout and stores it at path, replacing any existing file.
func Write(path string, archive abc.Archive) error {
	builder, err := newColumnBuilder(archive)
	if err != nil {
		return err
	}
	top, err := archive.Top()
	if err != nil {
		return fmt.Errorf("%s: %w", archive.Name(), err)
	}
	if err := builder.addObject(top, topParentIndex); err != nil {
		return err
	}

	fileWriter, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	writeError := builder.writeTo(fileWriter)
	closeError := fileWriter.Close()
	if writeError != nil {
		return fmt.Errorf("write %s: %w", path, writeError)
	}
	if closeError != nil {
		return fmt.Errorf("close %s: %w", path, closeError)
	}
	return nil
}

func newColumnBuilder(archive abc.Archive) (*columnBuilder, error) {
	builder := &columnBuilder{meta: []string{archive.MetaData().Serialize()}}
	for index := 0; index < archive.NumTimeSamplings(); index++ {
		sampling, err := archive.TimeSampling(index)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", archive.Name(), err)
		}
		builder.timeSamplings = append(builder.timeSamplings, sampling)
	}
	if len(builder.timeSamplings) == 0 {
		builder.timeSamplings = append(builder.timeSamplings, abc.IdentityTimeSampling())
	}
	return builder, nil
}

func (builder *columnBuilder) timeSamplingIndex(sampling abc.TimeSampling) int {
	for index, known := range builder.timeSamplings {
		if known.Equal(sampling) {
			return index
		}
	}
	builder.timeSamplings = append(builder.timeSamplings, sampling)
	return len(builder.timeSamplings) - 1
}

func (builder *columnBuilder) addObject(object abc.Object, parent int) error {
	header := object.Header()
	objectIndex := len(builder.names)
	builder.names = append(builder.names, header.Name)
	builder.meta = append(builder.meta, header.MetaData.Serialize())

	record := objectRecord{parent: parent, timeSamplingIndex: noTimeSamplingIndex, normalsScope: abc.GeometryScopeUnknown}
	if err := builder.addSchema(object, &record); err != nil {
		return fmt.Errorf("%s: %w", header.FullName, err)
	}
	builder.tree = append(builder.tree, record.encode()...)

	for childIndex := 0; childIndex < object.NumChildren(); childIndex++ {
		child, err := object.Child(childIndex)
		if err != nil {
			return fmt.Errorf("%s: %w", header.FullName, err)
		}
		if err := builder.addObject(child, objectIndex); err != nil {
			return err
		}
	}
	return nil
}

func (builder *columnBuilder) addSchema(object abc.Object, record *objectRecord) error {
	header := object.Header()
	switch {
	case abc.MatchesXform(header):
		schema, err := abc.XformOf(object)
		if err != nil {
			return err
		}
		builder.describeSchema(schema, record)
		for sampleIndex := 0; sampleIndex < schema.NumSamples(); sampleIndex++ {
			sample, err := schema.Sample(sampleIndex)
			if err != nil {
				return err
			}
			builder.appendSlot(xformSlot(sample))
		}
	case abc.MatchesPolyMesh(header):
		schema, err := abc.PolyMeshOf(object)
		if err != nil {
			return err
		}
		builder.describeSchema(schema, record)
		record.normalsScope = schema.NormalsScope()
		for sampleIndex := 0; sampleIndex < schema.NumSamples(); sampleIndex++ {
			sample, err := schema.Sample(sampleIndex)
			if err != nil {
				return err
			}
			builder.appendSlot(slotValues{
				positions:   sample.Positions,
				normals:     sample.Normals,
				velocities:  sample.Velocities,
				faceIndices: sample.FaceIndices,
				faceCounts:  sample.FaceCounts,
			})
		}
	case abc.MatchesPoints(header):
		schema, err := abc.PointsOf(object)
		if err != nil {
			return err
		}
		builder.describeSchema(schema, record)
		for sampleIndex := 0; sampleIndex < schema.NumSamples(); sampleIndex++ {
			sample, err := schema.Sample(sampleIndex)
			if err != nil {
				return err
			}
			if err := checkPointIDs(sample.IDs); err != nil {
				return fmt.Errorf("%s sample %d: %w", header.FullName, sampleIndex, err)
			}
			builder.appendSlot(slotValues{positions: sample.Positions, ids: sample.IDs, velocities: sample.Velocities})
		}
	}
	return nil
}

// checkPointIDs rejects ids the float64 read path cannot return unchanged.
func checkPointIDs(ids []uint64) error {
	for _, id := range ids {
		if id > maxExactPointID {
			return fmt.Errorf("%w: %d", ErrPointIDRange, id)
		}
	}
	return nil
}

func (builder *columnBuilder) describeSchema(schema abc.Schema, record *objectRecord) {
	record.numSamples = schema.NumSamples()
	record.timeSamplingIndex = builder.timeSamplingIndex(schema.TimeSampling())
}

func xformSlot(sample abc.XformSample) slotValues {
	slot := slotValues{inherits: sample.Inherits}
	for _, op := range sample.Ops {
		slot.ops = append(slot.ops, int32(op.Type))
		slot.channels = append(slot.channels, op.Channels...)
	}
	return slot
}

func (builder *columnBuilder) appendSlot(slot slotValues) {
	builder.positions.appendSlot(vectorsToFloats(slot.positions))
	builder.normals.appendSlot(vectorsToFloats(slot.normals))
	builder.velocities.appendSlot(vectorsToFloats(slot.velocities))
	builder.faceIndices.appendSlot(slot.faceIndices)
	builder.faceCounts.appendSlot(slot.faceCounts)
	ids := make([]int64, len(slot.ids))
	for index, id := range slot.ids {
		ids[index] = int64(id)
	}
	builder.ids.appendSlot(ids)
	builder.ops.appendSlot(slot.ops)
	builder.channels.appendSlot(slot.channels)
	inherits := int32(0)
	if slot.inherits {
		inherits = 1
	}
	builder.inherits = append(builder.inherits, inherits)
}

func (builder *columnBuilder) writeTo(fileWriter *hdf5.FileWriter) error {
	if err := writeStrings(fileWriter, namesDataset, builder.names); err != nil {
		return err
	}
	if err := writeStrings(fileWriter, metaDataset, builder.meta); err != nil {
		return err
	}
	if err := writeValues(fileWriter, treeDataset, hdf5.Int64, builder.tree); err != nil {
		return err
	}

	var timeSamplings slotColumn[float64]
	for _, sampling := range builder.timeSamplings {
		timeSamplings.appendSlot(encodeTimeSampling(sampling))
	}
	if err := writeColumn(fileWriter, timeSamplingsDataset, hdf5.Float64, timeSamplings); err != nil {
		return err
	}

	if err := writeColumn(fileWriter, positionsDataset, hdf5.Float64, builder.positions); err != nil {
		return err
	}
	if err := writeColumn(fileWriter, normalsDataset, hdf5.Float64, builder.normals); err != nil {
		return err
	}
	if err := writeColumn(fileWriter, velocitiesDataset, hdf5.Float64, builder.velocities); err != nil {
		return err
	}
	if err := writeColumn(fileWriter, faceIndicesDataset, hdf5.Int32, builder.faceIndices); err != nil {
		return err
	}
	if err := writeColumn(fileWriter, faceCountsDataset, hdf5.Int32, builder.faceCounts); err != nil {
		return err
	}
	if err := writeColumn(fileWriter, pointIDsDataset, hdf5.Int64, builder.ids); err != nil {
		return err
	}
	if err := writeColumn(fileWriter, xformOpsDataset, hdf5.Int32, builder.ops); err != nil {
		return err
	}
	if err := writeColumn(fileWriter, xformChannelsDataset, hdf5.Float64, builder.channels); err != nil {
		return err
	}
	return writeValues(fileWriter, xformInheritsDataset, hdf5.Int32, builder.inherits)
}

func writeColumn[T numeric](fileWriter *hdf5.FileWriter, name string, datatype hdf5.Datatype, column slotColumn[T]) error {
	if len(column.values) == 0 {
		return nil
	}
	if err := writeValues(fileWriter, name, datatype, column.values); err != nil {
		return err
	}
	return writeValues(fileWriter, name+offsetsDatasetSuffix, hdf5.Int64, column.offsets)
}

func writeValues[T numeric](fileWriter *hdf5.FileWriter, name string, datatype hdf5.Datatype, values []T) error {
	if len(values) == 0 {
		return nil
	}
	datasetWriter, err := fileWriter.CreateDataset(datasetPathPrefix+name, datatype, []uint64{uint64(len(values))})
	if err != nil {
		return fmt.Errorf("create dataset %s: %w", name, err)
	}
	if err := datasetWriter.Write(values); err != nil {
		return fmt.Errorf("write dataset %s: %w", name, err)
	}
	return nil
}

func writeStrings(fileWriter *hdf5.FileWriter, name string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	longest := 0
	for _, value := range values {
		longest = max(longest, len(value))
	}
	datasetWriter, err := fileWriter.CreateDataset(datasetPathPrefix+name, hdf5.String, []uint64{uint64(len(values))}, hdf5.WithStringSize(uint32(longest+1)))
	if err != nil {
		return fmt.Errorf("create dataset %s: %w", name, err)
	}
	if err := datasetWriter.Write(values); err != nil {
		return fmt.Errorf("write dataset %s: %w", name, err)
	}
	return nil
}
