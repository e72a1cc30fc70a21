package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/temirov/abcdump/internal/services/stream"
)

type xmlStreamRenderer struct {
	stdout         io.Writer
	stderr         io.Writer
	includeSummary bool
	encoder        *xml.Encoder
	started        bool
	wroteEvents    bool
}

// NewXMLStreamRenderer writes each stream event as an <event> element inside a single <events> root.
func NewXMLStreamRenderer(stdout, stderr io.Writer, includeSummary bool) StreamRenderer {
	return &xmlStreamRenderer{stdout: stdout, stderr: stderr, includeSummary: includeSummary}
}

func (renderer *xmlStreamRenderer) Handle(event stream.Event) error {
	if event.Kind == stream.EventKindError && event.Err != nil && renderer.stderr != nil {
		if _, err := fmt.Fprintln(renderer.stderr, event.Err.Message); err != nil {
			return err
		}
	}
	if event.Kind == stream.EventKindSummary && !renderer.includeSummary {
		return nil
	}
	if event.Kind == stream.EventKindObject && event.Object != nil && !renderer.includeSummary {
		object := *event.Object
		object.Summary = nil
		event.Object = &object
	}
	if event.Kind == stream.EventKindTree {
		event.Tree = cloneObjectNode(event.Tree, renderer.includeSummary)
	}
	return renderer.writeEvent(event)
}

func (renderer *xmlStreamRenderer) Flush() error {
	if renderer.stdout == nil {
		return nil
	}
	if err := renderer.ensureEncoder(); err != nil {
		return err
	}
	if err := renderer.encoder.Flush(); err != nil {
		return err
	}
	closing := "</" + xmlRootElement + ">\n"
	if renderer.wroteEvents {
		closing = "\n" + closing
	}
	_, err := io.WriteString(renderer.stdout, closing)
	return err
}

func (renderer *xmlStreamRenderer) ensureEncoder() error {
	if renderer.started {
		return nil
	}
	if _, err := io.WriteString(renderer.stdout, xml.Header); err != nil {
		return err
	}
	if _, err := io.WriteString(renderer.stdout, "<"+xmlRootElement+">\n"); err != nil {
		return err
	}
	renderer.encoder = xml.NewEncoder(renderer.stdout)
	renderer.encoder.Indent(indentSpacer, indentSpacer)
	renderer.started = true
	return nil
}

func (renderer *xmlStreamRenderer) writeEvent(event stream.Event) error {
	if renderer.stdout == nil {
		return nil
	}
	if err := renderer.ensureEncoder(); err != nil {
		return err
	}
	start := xml.StartElement{Name: xml.Name{Local: "event"}}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "version"}, Value: strconv.Itoa(event.Version)})
	if event.Kind != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "kind"}, Value: string(event.Kind)})
	}
	if event.Command != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "command"}, Value: event.Command})
	}
	if event.Path != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "path"}, Value: event.Path})
	}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "depth"}, Value: strconv.Itoa(event.Depth)})
	if err := renderer.encoder.EncodeToken(start); err != nil {
		return err
	}
	encodeElement := func(name string, value interface{}) error {
		return renderer.encoder.EncodeElement(value, xml.StartElement{Name: xml.Name{Local: name}})
	}
	if event.Object != nil {
		if err := encodeElement("node", event.Object); err != nil {
			return err
		}
	}
	if event.Sample != nil {
		if err := encodeElement("sample", event.Sample); err != nil {
			return err
		}
	}
	if event.Topology != nil {
		if err := encodeElement("topology", event.Topology); err != nil {
			return err
		}
	}
	if event.TimeSampling != nil {
		if err := encodeElement("timeSampling", event.TimeSampling); err != nil {
			return err
		}
	}
	if event.Summary != nil {
		if err := encodeElement("summary", event.Summary); err != nil {
			return err
		}
	}
	if event.Err != nil {
		if err := encodeElement("error", event.Err); err != nil {
			return err
		}
	}
	if event.Tree != nil {
		if err := encodeElement("tree", event.Tree); err != nil {
			return err
		}
	}
	if err := renderer.encoder.EncodeToken(start.End()); err != nil {
		return err
	}
	renderer.wroteEvents = true
	return renderer.encoder.Flush()
}
