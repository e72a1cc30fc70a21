// Package scene reads archives described in YAML and serves them through the abc query interface.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/abcdump/internal/abc"
)

const (
	timeSamplingTypeUniform = "uniform"
	timeSamplingTypeCyclic  = "cyclic"
	timeSamplingTypeAcyclic = "acyclic"

	multipleDocumentsMessage = "multiple YAML documents are not supported"
	parseFailureFormat       = "%w: %s: %w"
)

type document struct {
	Archive struct {
		MetaData map[string]string `yaml:"metadata"`
	} `yaml:"archive"`
	TimeSamplings []timeSamplingDocument `yaml:"timeSamplings"`
	Objects       []objectDocument       `yaml:"objects"`
}

type timeSamplingDocument struct {
	Type            string    `yaml:"type"`
	TimePerCycle    float64   `yaml:"timePerCycle"`
	SamplesPerCycle uint32    `yaml:"samplesPerCycle"`
	Times           []float64 `yaml:"times"`
}

type objectDocument struct {
	Name     string            `yaml:"name"`
	MetaData map[string]string `yaml:"metadata"`
	Xform    *xformDocument    `yaml:"xform"`
	PolyMesh *polyMeshDocument `yaml:"polyMesh"`
	Points   *pointsDocument   `yaml:"points"`
	Children []objectDocument  `yaml:"children"`
}

type xformDocument struct {
	TimeSampling int                   `yaml:"timeSampling"`
	Samples      []xformSampleDocument `yaml:"samples"`
}

type xformSampleDocument struct {
	Inherits *bool             `yaml:"inherits"`
	Ops      []xformOpDocument `yaml:"ops"`
}

type xformOpDocument struct {
	Type     string    `yaml:"type"`
	Channels []float64 `yaml:"channels"`
}

type polyMeshDocument struct {
	TimeSampling int                      `yaml:"timeSampling"`
	NormalsScope string                   `yaml:"normalsScope"`
	Samples      []polyMeshSampleDocument `yaml:"samples"`
}

type polyMeshSampleDocument struct {
	Positions     [][]float64 `yaml:"positions"`
	Normals       [][]float64 `yaml:"normals"`
	NormalIndices []uint32    `yaml:"normalIndices"`
	FaceIndices   []int32     `yaml:"faceIndices"`
	FaceCounts    []int32     `yaml:"faceCounts"`
	Velocities    [][]float64 `yaml:"velocities"`
}

type pointsDocument struct {
	TimeSampling int                    `yaml:"timeSampling"`
	Samples      []pointsSampleDocument `yaml:"samples"`
}

type pointsSampleDocument struct {
	Positions  [][]float64 `yaml:"positions"`
	IDs        []uint64    `yaml:"ids"`
	Velocities [][]float64 `yaml:"velocities"`
}

// Load reads the scene description stored at path.
func Load(path string) (*Archive, error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("read scene from %s: %w", path, readErr)
	}
	return parse(path, bytes.NewReader(data))
}

// Parse reads a scene description from reader.
func Parse(reader io.Reader) (*Archive, error) {
	return parse("", reader)
}

func parse(name string, reader io.Reader) (*Archive, error) {
	var raw document
	if err := decodeKnownFields(reader, &raw); err != nil {
		return nil, fmt.Errorf(parseFailureFormat, abc.ErrInvalidArchive, displayName(name), err)
	}
	archive, err := build(name, raw)
	if err != nil {
		return nil, fmt.Errorf(parseFailureFormat, abc.ErrInvalidArchive, displayName(name), err)
	}
	return archive, nil
}

func decodeKnownFields(reader io.Reader, out interface{}) error {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	var extra interface{}
	if err := decoder.Decode(&extra); err == nil {
		return errors.New(multipleDocumentsMessage)
	} else if !errors.Is(err, io.EOF) {
		return fmt.Errorf("after first YAML document: %w", err)
	}
	return nil
}

func displayName(name string) string {
	if name == "" {
		return "<input>"
	}
	return name
}

func build(name string, raw document) (*Archive, error) {
	archive := &Archive{
		name:          name,
		metaData:      abc.NewMetaData(raw.Archive.MetaData),
		timeSamplings: []abc.TimeSampling{abc.IdentityTimeSampling()},
	}
	for index, sampling := range raw.TimeSamplings {
		converted, err := convertTimeSampling(sampling)
		if err != nil {
			return nil, fmt.Errorf("time sampling %d: %w", index+1, err)
		}
		archive.timeSamplings = append(archive.timeSamplings, converted)
	}

	archive.top = &Object{header: abc.ObjectHeader{Name: abc.TopObjectName, FullName: "/"}}
	children, err := archive.buildChildren(archive.top.header.FullName, raw.Objects)
	if err != nil {
		return nil, err
	}
	archive.top.children = children
	return archive, nil
}

func convertTimeSampling(raw timeSamplingDocument) (abc.TimeSampling, error) {
	sampling := abc.TimeSampling{StoredTimes: append([]float64(nil), raw.Times...)}
	switch strings.ToLower(strings.TrimSpace(raw.Type)) {
	case timeSamplingTypeUniform, "":
		sampling.Type = abc.UniformTimeSampling(raw.TimePerCycle)
	case timeSamplingTypeCyclic:
		sampling.Type = abc.CyclicTimeSampling(raw.TimePerCycle, raw.SamplesPerCycle)
		if len(sampling.StoredTimes) != int(raw.SamplesPerCycle) {
			return abc.TimeSampling{}, fmt.Errorf("cyclic sampling needs %d times, found %d", raw.SamplesPerCycle, len(sampling.StoredTimes))
		}
	case timeSamplingTypeAcyclic:
		sampling.Type = abc.AcyclicTimeSampling()
	default:
		return abc.TimeSampling{}, fmt.Errorf("unknown time sampling type %q", raw.Type)
	}
	if len(sampling.StoredTimes) == 0 {
		sampling.StoredTimes = []float64{0}
	}
	return sampling, nil
}

func (archive *Archive) buildChildren(parentFullName string, raws []objectDocument) ([]*Object, error) {
	children := make([]*Object, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		child, err := archive.buildObject(parentFullName, raw)
		if err != nil {
			return nil, err
		}
		if _, duplicate := seen[child.header.Name]; duplicate {
			return nil, fmt.Errorf("%s: duplicate child name", child.header.FullName)
		}
		seen[child.header.Name] = struct{}{}
		children = append(children, child)
	}
	return children, nil
}

func (archive *Archive) buildObject(parentFullName string, raw objectDocument) (*Object, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%s: invalid object name %q", parentFullName, raw.Name)
	}
	fullName := abc.ChildFullName(parentFullName, name)
	object := &Object{header: abc.ObjectHeader{Name: name, FullName: fullName, MetaData: abc.NewMetaData(raw.MetaData)}}

	schemaBlocks := 0
	var title string
	var err error
	if raw.Xform != nil {
		schemaBlocks++
		title = abc.XformSchemaTitle
		object.schema, err = archive.buildXform(*raw.Xform)
	}
	if raw.PolyMesh != nil {
		schemaBlocks++
		title = abc.PolyMeshSchemaTitle
		object.schema, err = archive.buildPolyMesh(*raw.PolyMesh)
	}
	if raw.Points != nil {
		schemaBlocks++
		title = abc.PointsSchemaTitle
		object.schema, err = archive.buildPoints(*raw.Points)
	}
	switch {
	case schemaBlocks > 1:
		return nil, fmt.Errorf("%s: more than one schema block", fullName)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", fullName, err)
	}
	if title != "" {
		declared := object.header.SchemaTitle()
		if declared != "" && declared != title {
			return nil, fmt.Errorf("%s: metadata schema %q conflicts with %s block", fullName, declared, title)
		}
		object.header.MetaData.Set(abc.SchemaKey, title)
	}

	if object.children, err = archive.buildChildren(fullName, raw.Children); err != nil {
		return nil, err
	}
	return object, nil
}

func (archive *Archive) timeSampling(index int) (abc.TimeSampling, error) {
	if index < 0 || index >= len(archive.timeSamplings) {
		return abc.TimeSampling{}, fmt.Errorf("time sampling %d: %w", index, abc.ErrTimeSamplingIndex)
	}
	return archive.timeSamplings[index], nil
}

func (archive *Archive) buildXform(raw xformDocument) (*XformSchema, error) {
	sampling, err := archive.timeSampling(raw.TimeSampling)
	if err != nil {
		return nil, err
	}
	schema := &XformSchema{schemaBase: schemaBase{title: abc.XformSchemaTitle, timeSampling: sampling}, valid: true}
	for sampleIndex, rawSample := range raw.Samples {
		sample := abc.XformSample{Inherits: rawSample.Inherits == nil || *rawSample.Inherits}
		for _, rawOp := range rawSample.Ops {
			opType, err := abc.ParseXformOpType(rawOp.Type)
			if err != nil {
				return nil, fmt.Errorf("sample %d: %w", sampleIndex, err)
			}
			if len(rawOp.Channels) != opType.ChannelCount() {
				schema.valid = false
			}
			sample.Ops = append(sample.Ops, abc.XformOp{Type: opType, Channels: append([]float64(nil), rawOp.Channels...)})
		}
		schema.samples = append(schema.samples, sample)
	}
	return schema, nil
}

func (archive *Archive) buildPolyMesh(raw polyMeshDocument) (*PolyMeshSchema, error) {
	sampling, err := archive.timeSampling(raw.TimeSampling)
	if err != nil {
		return nil, err
	}
	schema := &PolyMeshSchema{
		schemaBase:   schemaBase{title: abc.PolyMeshSchemaTitle, timeSampling: sampling},
		normalsScope: abc.ParseGeometryScope(raw.NormalsScope),
	}
	for sampleIndex, rawSample := range raw.Samples {
		sample, err := convertPolyMeshSample(rawSample)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", sampleIndex, err)
		}
		schema.samples = append(schema.samples, sample)
	}
	schema.variance = abc.ClassifyMeshSamples(schema.samples)
	return schema, nil
}

func convertPolyMeshSample(raw polyMeshSampleDocument) (abc.PolyMeshSample, error) {
	var sample abc.PolyMeshSample
	var err error
	if sample.Positions, err = convertVectors("positions", raw.Positions); err != nil {
		return abc.PolyMeshSample{}, err
	}
	normals, err := convertVectors("normals", raw.Normals)
	if err != nil {
		return abc.PolyMeshSample{}, err
	}
	if sample.Normals, err = abc.ExpandIndexed(normals, raw.NormalIndices); err != nil {
		return abc.PolyMeshSample{}, fmt.Errorf("normals: %w", err)
	}
	if len(sample.Normals) == 0 {
		sample.Normals = nil
	}
	if sample.Velocities, err = convertVectors("velocities", raw.Velocities); err != nil {
		return abc.PolyMeshSample{}, err
	}
	sample.FaceIndices = raw.FaceIndices
	sample.FaceCounts = raw.FaceCounts
	return sample, nil
}

func (archive *Archive) buildPoints(raw pointsDocument) (*PointsSchema, error) {
	sampling, err := archive.timeSampling(raw.TimeSampling)
	if err != nil {
		return nil, err
	}
	schema := &PointsSchema{schemaBase: schemaBase{title: abc.PointsSchemaTitle, timeSampling: sampling}}
	for sampleIndex, rawSample := range raw.Samples {
		var sample abc.PointsSample
		if sample.Positions, err = convertVectors("positions", rawSample.Positions); err != nil {
			return nil, fmt.Errorf("sample %d: %w", sampleIndex, err)
		}
		if sample.Velocities, err = convertVectors("velocities", rawSample.Velocities); err != nil {
			return nil, fmt.Errorf("sample %d: %w", sampleIndex, err)
		}
		sample.IDs = rawSample.IDs
		schema.samples = append(schema.samples, sample)
	}
	return schema, nil
}

func convertVectors(property string, raw [][]float64) ([]abc.Vec3, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	vectors := make([]abc.Vec3, len(raw))
	for index, components := range raw {
		if len(components) != 3 {
			return nil, fmt.Errorf("%s %d: expected 3 components, found %d", property, index, len(components))
		}
		vectors[index] = abc.Vec3{X: components[0], Y: components[1], Z: components[2]}
	}
	return vectors, nil
}
