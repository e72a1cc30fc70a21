package h5archive

import (
	"fmt"
	"path"

	"github.com/scigolib/hdf5"

	"github.com/temirov/abcdump/internal/abc"
)

// Archive is an HDF5 archive loaded into memory.
type Archive struct {
	name          string
	metaData      abc.MetaData
	timeSamplings []abc.TimeSampling
	objects       []*object
	columns       map[string]propertyColumn
	inherits      []float64
}

type propertyColumn struct {
	values  []float64
	offsets []int64
}

func (column propertyColumn) slot(index int) []float64 {
	if len(column.offsets) == 0 {
		return nil
	}
	return column.values[column.offsets[index]:column.offsets[index+1]]
}

type datasetIndex map[string]*hdf5.Dataset

// Open loads the archive stored at filePath.
func Open(filePath string) (*Archive, error) {
	file, err := hdf5.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", abc.ErrInvalidArchive, filePath, err)
	}
	defer func() { _ = file.Close() }()

	datasets := datasetIndex{}
	if root := file.Root(); root != nil {
		for _, child := range root.Children() {
			if dataset, ok := child.(*hdf5.Dataset); ok {
				datasets[path.Base(dataset.Name())] = dataset
			}
		}
	}

	archive, err := load(filePath, datasets)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", abc.ErrInvalidArchive, filePath, err)
	}
	return archive, nil
}

func load(name string, datasets datasetIndex) (*Archive, error) {
	names, err := datasets.strings(namesDataset, true)
	if err != nil {
		return nil, err
	}
	metaEntries, err := datasets.strings(metaDataset, true)
	if err != nil {
		return nil, err
	}
	tree, err := datasets.floats(treeDataset, true)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf(inconsistentColumnMessage, namesDataset, "no objects")
	}
	if len(metaEntries) != len(names)+1 {
		return nil, fmt.Errorf(inconsistentColumnMessage, metaDataset, fmt.Sprintf("expected %d entries, found %d", len(names)+1, len(metaEntries)))
	}
	if len(tree) != len(names)*treeColumnCount {
		return nil, fmt.Errorf(inconsistentColumnMessage, treeDataset, fmt.Sprintf("expected %d values, found %d", len(names)*treeColumnCount, len(tree)))
	}

	archive := &Archive{name: name, columns: map[string]propertyColumn{}}
	if archive.metaData, err = abc.ParseMetaData(metaEntries[0]); err != nil {
		return nil, fmt.Errorf(inconsistentColumnMessage, metaDataset, err.Error())
	}
	if archive.timeSamplings, err = loadTimeSamplings(datasets); err != nil {
		return nil, err
	}

	slotCount := 0
	for objectIndex, objectName := range names {
		record := decodeObjectRecord(tree[objectIndex*treeColumnCount : (objectIndex+1)*treeColumnCount])
		if err := archive.validateRecord(objectIndex, record); err != nil {
			return nil, err
		}
		metaData, err := abc.ParseMetaData(metaEntries[objectIndex+1])
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", objectName, err)
		}
		entry := &object{
			archive:   archive,
			record:    record,
			firstSlot: slotCount,
			header:    abc.ObjectHeader{Name: objectName, FullName: "/", MetaData: metaData},
		}
		if record.parent != topParentIndex {
			parent := archive.objects[record.parent]
			entry.header.FullName = abc.ChildFullName(parent.header.FullName, objectName)
			parent.children = append(parent.children, objectIndex)
		}
		archive.objects = append(archive.objects, entry)
		slotCount += record.numSamples
	}

	for _, propertyName := range slotProperties {
		column, err := loadPropertyColumn(datasets, propertyName, slotCount)
		if err != nil {
			return nil, err
		}
		archive.columns[propertyName] = column
	}
	if archive.inherits, err = datasets.floats(xformInheritsDataset, false); err != nil {
		return nil, err
	}
	if archive.inherits != nil && len(archive.inherits) != slotCount {
		return nil, fmt.Errorf(inconsistentColumnMessage, xformInheritsDataset, fmt.Sprintf("expected %d values, found %d", slotCount, len(archive.inherits)))
	}
	return archive, nil
}

func (archive *Archive) validateRecord(objectIndex int, record objectRecord) error {
	switch {
	case objectIndex == 0 && record.parent != topParentIndex:
		return fmt.Errorf(inconsistentColumnMessage, treeDataset, "top object has a parent")
	case objectIndex > 0 && (record.parent < 0 || record.parent >= objectIndex):
		return fmt.Errorf(inconsistentColumnMessage, treeDataset, fmt.Sprintf("object %d has parent %d", objectIndex, record.parent))
	case record.numSamples < 0:
		return fmt.Errorf(inconsistentColumnMessage, treeDataset, fmt.Sprintf("object %d has %d samples", objectIndex, record.numSamples))
	case record.timeSamplingIndex < noTimeSamplingIndex || record.timeSamplingIndex >= len(archive.timeSamplings):
		return fmt.Errorf("object %d: %w", objectIndex, abc.ErrTimeSamplingIndex)
	}
	return nil
}

func loadTimeSamplings(datasets datasetIndex) ([]abc.TimeSampling, error) {
	values, err := datasets.floats(timeSamplingsDataset, false)
	if err != nil {
		return nil, err
	}
	if values == nil {
		return []abc.TimeSampling{abc.IdentityTimeSampling()}, nil
	}
	offsets, err := datasets.offsets(timeSamplingsDataset, len(values))
	if err != nil {
		return nil, err
	}
	samplings := make([]abc.TimeSampling, 0, len(offsets)-1)
	for index := 0; index+1 < len(offsets); index++ {
		sampling, err := decodeTimeSampling(values[offsets[index]:offsets[index+1]])
		if err != nil {
			return nil, err
		}
		samplings = append(samplings, sampling)
	}
	return samplings, nil
}

func loadPropertyColumn(datasets datasetIndex, name string, slotCount int) (propertyColumn, error) {
	values, err := datasets.floats(name, false)
	if err != nil || values == nil {
		return propertyColumn{}, err
	}
	offsets, err := datasets.offsets(name, len(values))
	if err != nil {
		return propertyColumn{}, err
	}
	if len(offsets) != slotCount+1 {
		return propertyColumn{}, fmt.Errorf(inconsistentColumnMessage, name+offsetsDatasetSuffix, fmt.Sprintf("expected %d offsets, found %d", slotCount+1, len(offsets)))
	}
	return propertyColumn{values: values, offsets: offsets}, nil
}

func (datasets datasetIndex) floats(name string, required bool) ([]float64, error) {
	dataset, found := datasets[name]
	if !found {
		if required {
			return nil, fmt.Errorf(inconsistentColumnMessage, name, "missing")
		}
		return nil, nil
	}
	values, err := dataset.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return values, nil
}

func (datasets datasetIndex) strings(name string, required bool) ([]string, error) {
	dataset, found := datasets[name]
	if !found {
		if required {
			return nil, fmt.Errorf(inconsistentColumnMessage, name, "missing")
		}
		return nil, nil
	}
	values, err := dataset.ReadStrings()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return values, nil
}

// offsets reads the offsets companion of name and checks it partitions valueCount elements.
func (datasets datasetIndex) offsets(name string, valueCount int) ([]int64, error) {
	offsetsName := name + offsetsDatasetSuffix
	raw, err := datasets.floats(offsetsName, true)
	if err != nil {
		return nil, err
	}
	offsets := floatsToInt64s(raw)
	if len(offsets) == 0 || offsets[0] != 0 || offsets[len(offsets)-1] != int64(valueCount) {
		return nil, fmt.Errorf(inconsistentColumnMessage, offsetsName, "offsets do not cover the values")
	}
	for index := 1; index < len(offsets); index++ {
		if offsets[index] < offsets[index-1] {
			return nil, fmt.Errorf(inconsistentColumnMessage, offsetsName, "offsets decrease")
		}
	}
	return offsets, nil
}

// Name returns the path the archive was opened from.
func (archive *Archive) Name() string {
	return archive.name
}

// Valid reports whether the archive loaded; Open fails otherwise.
func (archive *Archive) Valid() bool {
	return archive != nil && len(archive.objects) > 0
}

// MetaData returns the archive metadata.
func (archive *Archive) MetaData() abc.MetaData {
	return archive.metaData
}

// Top returns the top object.
func (archive *Archive) Top() (abc.Object, error) {
	if !archive.Valid() {
		return nil, abc.ErrInvalidArchive
	}
	return archive.objects[0], nil
}

// NumTimeSamplings returns the number of stored time samplings.
func (archive *Archive) NumTimeSamplings() int {
	return len(archive.timeSamplings)
}

// TimeSampling returns the time sampling stored at index.
func (archive *Archive) TimeSampling(index int) (abc.TimeSampling, error) {
	if index < 0 || index >= len(archive.timeSamplings) {
		return abc.TimeSampling{}, fmt.Errorf("time sampling %d: %w", index, abc.ErrTimeSamplingIndex)
	}
	return archive.timeSamplings[index], nil
}

// Close releases the archive. The file itself is closed once loading completes.
func (archive *Archive) Close() error {
	return nil
}

func (archive *Archive) inheritsAt(slot int) bool {
	if archive.inherits == nil {
		return true
	}
	return archive.inherits[slot] != 0
}
