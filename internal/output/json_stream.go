package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/temirov/abcdump/internal/services/stream"
	"github.com/temirov/abcdump/internal/types"
)

// jsonStreamRenderer keeps the object tree from the tree event and prints it as one document on Flush.
// The root summary doubles as the dump totals.
type jsonStreamRenderer struct {
	stdout         io.Writer
	stderr         io.Writer
	includeSummary bool
	tree           *types.ObjectNode
}

func NewJSONStreamRenderer(stdout, stderr io.Writer, includeSummary bool) StreamRenderer {
	return &jsonStreamRenderer{stdout: stdout, stderr: stderr, includeSummary: includeSummary}
}

func (renderer *jsonStreamRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindError:
		if event.Err != nil && renderer.stderr != nil {
			_, err := fmt.Fprintln(renderer.stderr, event.Err.Message)
			return err
		}
	case stream.EventKindTree:
		renderer.tree = cloneObjectNode(event.Tree, renderer.includeSummary)
	}
	return nil
}

func (renderer *jsonStreamRenderer) Flush() error {
	if renderer.stdout == nil || renderer.tree == nil {
		return nil
	}
	encoded, err := json.MarshalIndent(renderer.tree, indentPrefix, indentSpacer)
	if err != nil {
		return fmt.Errorf("json stream: %w", err)
	}
	if _, err := renderer.stdout.Write(encoded); err != nil {
		return err
	}
	_, err = renderer.stdout.Write([]byte("\n"))
	return err
}
