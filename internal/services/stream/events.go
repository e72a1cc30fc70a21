package stream

import (
	"encoding/xml"

	"github.com/temirov/abcdump/internal/types"
)

const SchemaVersion = 1

type EventKind string

const (
	EventKindStart        EventKind = "start"
	EventKindObject       EventKind = "object"
	EventKindSample       EventKind = "sample"
	EventKindTopology     EventKind = "topology"
	EventKindTimeSampling EventKind = "time_sampling"
	EventKindSummary      EventKind = "summary"
	EventKindError        EventKind = "error"
	EventKindTree         EventKind = "tree"
	EventKindDone         EventKind = "done"
)

type ObjectPhase string

const (
	ObjectEnter ObjectPhase = "enter"
	ObjectLeave ObjectPhase = "leave"
)

// Event is one versioned step of an archive dump. Path carries the archive path for
// start, summary, error, tree and done events and the object full name otherwise.
type Event struct {
	XMLName xml.Name  `json:"-" xml:"event"`
	Version int       `json:"version" xml:"version,attr"`
	Kind    EventKind `json:"kind" xml:"kind,attr"`
	Command string    `json:"command,omitempty" xml:"command,attr,omitempty"`
	Path    string    `json:"path,omitempty" xml:"path,attr,omitempty"`
	Depth   int       `json:"depth" xml:"depth,attr"`

	Object       *ObjectEvent            `json:"object,omitempty" xml:"node,omitempty"`
	Sample       *SampleEvent            `json:"sample,omitempty" xml:"sample,omitempty"`
	Topology     *types.TopologyNode     `json:"topology,omitempty" xml:"topology,omitempty"`
	TimeSampling *types.TimeSamplingNode `json:"timeSampling,omitempty" xml:"timeSampling,omitempty"`
	Summary      *types.OutputSummary    `json:"summary,omitempty" xml:"summary,omitempty"`
	Err          *ErrorEvent             `json:"error,omitempty" xml:"error,omitempty"`
	Tree         *types.ObjectNode       `json:"tree,omitempty" xml:"tree,omitempty"`
}

type ObjectEvent struct {
	Phase    ObjectPhase          `json:"phase" xml:"phase,attr"`
	Name     string               `json:"name" xml:"name,attr"`
	FullName string               `json:"fullName" xml:"fullName,attr"`
	MetaData string               `json:"metadata,omitempty" xml:"metadata,omitempty"`
	Schema   string               `json:"schema,omitempty" xml:"schema,attr,omitempty"`
	Summary  *types.OutputSummary `json:"summary,omitempty" xml:"summary,omitempty"`
}

// SampleEvent is one sample of the schema named by Schema.
type SampleEvent struct {
	Schema string `json:"schema" xml:"schema,attr"`
	types.SampleNode
}

type ErrorEvent struct {
	Message string `json:"message" xml:",chardata"`
}
