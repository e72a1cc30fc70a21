package output

import (
	"github.com/temirov/abcdump/internal/types"
)

// cloneObjectNode copies the node hierarchy so renderers can drop summaries without touching the stream's tree.
func cloneObjectNode(node *types.ObjectNode, includeSummary bool) *types.ObjectNode {
	if node == nil {
		return nil
	}

	cloned := *node
	if !includeSummary {
		cloned.Summary = nil
	} else if node.Summary != nil {
		summary := *node.Summary
		cloned.Summary = &summary
	}

	if len(node.Children) > 0 {
		cloned.Children = make([]*types.ObjectNode, 0, len(node.Children))
		for _, child := range node.Children {
			if child == nil {
				continue
			}
			cloned.Children = append(cloned.Children, cloneObjectNode(child, includeSummary))
		}
	} else {
		cloned.Children = nil
	}

	if len(node.Samples) > 0 {
		cloned.Samples = append([]types.SampleNode(nil), node.Samples...)
	}
	return &cloned
}
