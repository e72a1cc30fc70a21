// Package output renders archive dump streams as indented text, a JSON object tree or an XML event log.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/abcdump/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	// DefaultIndentWidth is the number of spaces printed per depth level in raw output.
	DefaultIndentWidth = 1

	xmlRootElement = "events"

	summaryLineFormat     = "Summary: %d %s (%d %s, %d %s, %d %s), %d %s"
	unsupportedFormatText = "unsupported output format %q"
)

// RendererOptions selects and configures a renderer.
type RendererOptions struct {
	Format         string
	IndentWidth    int
	IncludeSummary bool
	Color          bool
}

// NewStreamRenderer builds the renderer for options.Format.
func NewStreamRenderer(stdout, stderr io.Writer, options RendererOptions) (StreamRenderer, error) {
	switch strings.ToLower(options.Format) {
	case types.FormatRaw, "":
		return NewRawStreamRenderer(stdout, stderr, RawOptions{
			IndentWidth:    options.IndentWidth,
			IncludeSummary: options.IncludeSummary,
			Palette:        NewPalette(options.Color),
		}), nil
	case types.FormatJSON:
		return NewJSONStreamRenderer(stdout, stderr, options.IncludeSummary), nil
	case types.FormatXML:
		return NewXMLStreamRenderer(stdout, stderr, options.IncludeSummary), nil
	default:
		return nil, fmt.Errorf(unsupportedFormatText, options.Format)
	}
}

// FormatSummaryLine renders the aggregate counts of a dump.
func FormatSummaryLine(summary *types.OutputSummary) string {
	if summary == nil {
		summary = &types.OutputSummary{}
	}
	return fmt.Sprintf(summaryLineFormat,
		summary.Objects, plural(summary.Objects, "object", "objects"),
		summary.Xforms, plural(summary.Xforms, "xform", "xforms"),
		summary.Meshes, plural(summary.Meshes, "mesh", "meshes"),
		summary.Points, plural(summary.Points, "point cloud", "point clouds"),
		summary.Samples, plural(summary.Samples, "sample", "samples"),
	)
}

func plural(count int, singular, pluralForm string) string {
	if count == 1 {
		return singular
	}
	return pluralForm
}
