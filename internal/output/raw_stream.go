package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/temirov/abcdump/internal/services/stream"
	"github.com/temirov/abcdump/internal/types"
	"github.com/temirov/abcdump/internal/utils"
)

const (
	sampleLineFormat      = "%s %s time=%s"
	inheritsSuffixFormat  = " inherits=%t"
	topologyLabel         = "topology:"
	normalsScopeLabel     = "normals scope:"
	velocitiesLabel       = "velocities:"
	velocitiesPresent     = "present"
	timeSamplingLabel     = "time sampling:"
	samplesPerCycleFormat = "samplesPerCycle=%s"
	timePerCycleFormat    = "timePerCycle=%s"
	positionLabel         = "P"
	normalLabel           = "N"
	velocityLabel         = "v"
	identifierLabel       = "id"
	faceLabel             = "face"
	boundsLabel           = "bounds"
	sampleLabel           = "sample"
	boundsSeparator       = ".."
	timeEntrySeparator    = ":"
	opChannelSeparator    = ":"
	rawFieldSeparator     = " "
	indentCharacter       = " "
)

// RawOptions configures the raw text renderer.
type RawOptions struct {
	// IndentWidth is the number of spaces per depth level; values below zero select DefaultIndentWidth.
	IndentWidth    int
	IncludeSummary bool
	Palette        Palette
}

type rawStreamRenderer struct {
	stdout  io.Writer
	stderr  io.Writer
	options RawOptions
	summary *types.OutputSummary
	err     error
}

// NewRawStreamRenderer prints every object as soon as its events arrive.
func NewRawStreamRenderer(stdout, stderr io.Writer, options RawOptions) StreamRenderer {
	if options.IndentWidth < 0 {
		options.IndentWidth = DefaultIndentWidth
	}
	if options.Palette.Name == nil {
		options.Palette = NewPalette(false)
	}
	return &rawStreamRenderer{stdout: stdout, stderr: stderr, options: options}
}

func (renderer *rawStreamRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindError:
		if event.Err != nil && renderer.stderr != nil {
			_, err := fmt.Fprintln(renderer.stderr, event.Err.Message)
			return err
		}
		return nil
	case stream.EventKindObject:
		renderer.handleObject(event.Depth, event.Object)
	case stream.EventKindSample:
		renderer.handleSample(event.Depth, event.Sample)
	case stream.EventKindTopology:
		renderer.handleTopology(event.Depth, event.Topology)
	case stream.EventKindTimeSampling:
		renderer.handleTimeSampling(event.Depth, event.TimeSampling)
	case stream.EventKindSummary:
		renderer.summary = event.Summary
	}
	return renderer.err
}

func (renderer *rawStreamRenderer) Flush() error {
	if renderer.options.IncludeSummary && renderer.summary != nil {
		renderer.writeLine(0, renderer.options.Palette.Header(FormatSummaryLine(renderer.summary)))
	}
	return renderer.err
}

func (renderer *rawStreamRenderer) handleObject(depth int, object *stream.ObjectEvent) {
	if object == nil || object.Phase != stream.ObjectEnter {
		return
	}
	palette := renderer.options.Palette
	line := palette.Name(object.Name)
	if object.MetaData != "" {
		line += rawFieldSeparator + palette.Meta(object.MetaData)
	}
	renderer.writeLine(depth, line)
}

func (renderer *rawStreamRenderer) handleSample(depth int, sample *stream.SampleEvent) {
	if sample == nil {
		return
	}
	palette := renderer.options.Palette
	header := fmt.Sprintf(sampleLineFormat, palette.Header(sampleLabel), palette.Number(strconv.Itoa(sample.Index)), palette.Number(utils.FormatFloat(sample.Time)))
	if sample.Inherits != nil {
		header += fmt.Sprintf(inheritsSuffixFormat, *sample.Inherits)
	}
	renderer.writeLine(depth, header)

	for _, op := range sample.Ops {
		renderer.writeLine(depth, palette.Tag(op.Type)+opChannelSeparator+palette.Number(utils.FormatChannels(op.Channels)))
	}
	renderer.writeVectors(depth, positionLabel, sample.Positions)
	renderer.writeVectors(depth, normalLabel, sample.Normals)
	for faceIndex, face := range sample.Faces {
		label := faceLabel + rawFieldSeparator + strconv.Itoa(faceIndex) + opChannelSeparator
		renderer.writeLine(depth, palette.Tag(label)+rawFieldSeparator+palette.Number(utils.FormatIndices(face.Indices)))
	}
	renderer.writeVectors(depth, velocityLabel, sample.Velocities)
	for _, identifier := range sample.IDs {
		renderer.writeLine(depth, palette.Tag(identifierLabel)+rawFieldSeparator+palette.Number(strconv.FormatUint(identifier, 10)))
	}
	if sample.Bounds != nil {
		box := formatVector(sample.Bounds.Min) + boundsSeparator + formatVector(sample.Bounds.Max)
		renderer.writeLine(depth, palette.Tag(boundsLabel)+rawFieldSeparator+palette.Number(box))
	}
}

func (renderer *rawStreamRenderer) handleTopology(depth int, topology *types.TopologyNode) {
	if topology == nil {
		return
	}
	palette := renderer.options.Palette
	renderer.writeLine(depth, palette.Header(topologyLabel)+rawFieldSeparator+palette.Tag(topology.Variance))
	renderer.writeLine(depth, palette.Header(normalsScopeLabel)+rawFieldSeparator+palette.Tag(topology.NormalsScope))
	if topology.Velocities {
		renderer.writeLine(depth, palette.Header(velocitiesLabel)+rawFieldSeparator+palette.Tag(velocitiesPresent))
	}
}

func (renderer *rawStreamRenderer) handleTimeSampling(depth int, sampling *types.TimeSamplingNode) {
	if sampling == nil {
		return
	}
	palette := renderer.options.Palette
	fields := []string{
		palette.Header(timeSamplingLabel),
		palette.Tag(sampling.Kind),
		fmt.Sprintf(samplesPerCycleFormat, palette.Number(strconv.FormatUint(uint64(sampling.SamplesPerCycle), 10))),
		fmt.Sprintf(timePerCycleFormat, palette.Number(utils.FormatFloat(sampling.TimePerCycle))),
	}
	renderer.writeLine(depth, strings.Join(fields, rawFieldSeparator))
	for _, entry := range sampling.Times {
		renderer.writeLine(depth, palette.Number(strconv.Itoa(entry.Index))+timeEntrySeparator+rawFieldSeparator+palette.Number(utils.FormatFloat(entry.Time)))
	}
}

func (renderer *rawStreamRenderer) writeVectors(depth int, label string, vectors []types.Vector) {
	palette := renderer.options.Palette
	for _, vector := range vectors {
		renderer.writeLine(depth, palette.Tag(label)+rawFieldSeparator+palette.Number(formatVector(vector)))
	}
}

// writeLine keeps the first write error and turns later writes into no-ops.
func (renderer *rawStreamRenderer) writeLine(depth int, content string) {
	if renderer.stdout == nil || renderer.err != nil {
		return
	}
	indentation := strings.Repeat(indentCharacter, depth*renderer.options.IndentWidth)
	_, renderer.err = io.WriteString(renderer.stdout, indentation+content+"\n")
}

func formatVector(vector types.Vector) string {
	return utils.FormatVector(vector.X, vector.Y, vector.Z)
}
