package layout

import (
	"github.com/kryoon/backend/domain/contribution"
)

// ClassifiedEdge tags an edge with its derived category and hover state.
// A tree edge follows the target's parent link; edges touching the root
// are always treated as tree edges so they are never offset as cross
// links. Everything else is a leaf-to-leaf cross edge.
type ClassifiedEdge struct {
	contribution.Edge
	IsTreeEdge         bool `json:"isTreeEdge"`
	IsCrossEdge        bool `json:"isCrossEdge"`
	IsHoverHighlighted bool `json:"isHoverHighlighted"`
}

// Classify partitions edges into tree and cross categories and tags
// hover incidence. Edges with a missing endpoint are dropped, same as in
// Compute.
func Classify(nodes []contribution.Node, edges []contribution.Edge, hoveredID string) []ClassifiedEdge {
	byID := make(map[string]int, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = i
	}

	rootID := ""
	for i := range nodes {
		if nodes[i].IsRoot() {
			rootID = nodes[i].ID
			break
		}
	}

	return classifyEdges(filterEdges(edges, byID), nodes, byID, rootID, hoveredID)
}

func classifyEdges(edges []contribution.Edge, nodes []contribution.Node, byID map[string]int, rootID, hoveredID string) []ClassifiedEdge {
	out := make([]ClassifiedEdge, 0, len(edges))
	for _, e := range edges {
		target := &nodes[byID[e.TargetID]]
		isTree := target.ParentID == e.SourceID ||
			e.SourceID == rootID || e.TargetID == rootID
		out = append(out, ClassifiedEdge{
			Edge:               e,
			IsTreeEdge:         isTree,
			IsCrossEdge:        !isTree,
			IsHoverHighlighted: hoveredID != "" && (e.SourceID == hoveredID || e.TargetID == hoveredID),
		})
	}
	return out
}
