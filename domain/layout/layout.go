package layout

import (
	"github.com/kryoon/backend/domain/contribution"
)

// Config holds the geometry the layout engine works in. The root box is
// larger than child boxes to visually distinguish the origin post.
type Config struct {
	RootWidth         float64
	RootHeight        float64
	NodeWidth         float64
	NodeHeight        float64
	HorizontalSpacing float64
	VerticalSpacing   float64
	TopMargin         float64
	ViewportWidth     float64
	CrossOffsetX      float64
	CrossOffsetY      float64
}

// DefaultConfig returns the standard contribution-graph geometry
func DefaultConfig() Config {
	return Config{
		RootWidth:         300,
		RootHeight:        270,
		NodeWidth:         200,
		NodeHeight:        220,
		HorizontalSpacing: 100,
		VerticalSpacing:   80,
		TopMargin:         50,
		ViewportWidth:     1600,
		CrossOffsetX:      150,
		CrossOffsetY:      100,
	}
}

// PositionedNode is a node with its computed 2D position. Recomputed on
// every pass, never persisted.
type PositionedNode struct {
	contribution.Node
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Level         int     `json:"level"`
	IsRoot        bool    `json:"isRoot"`
	IsHighlighted bool    `json:"isHighlighted"`
}

// Result is the output of one layout pass
type Result struct {
	Nodes      []PositionedNode `json:"nodes"`
	Edges      []ClassifiedEdge `json:"edges"`
	TotalWidth float64          `json:"totalWidth"`
}

// Compute lays out the contribution graph. It is a pure function:
// identical, identically ordered inputs always produce identical output.
//
// Edges with a missing endpoint are dropped. Levels follow tree edges
// only (root is level 1); cross edges never contribute to depth. After
// tree positions are assigned, each cross-edge target is nudged once
// sideways and downward to reduce overlap with the primary layout.
func Compute(nodes []contribution.Node, edges []contribution.Edge, hoveredID string, cfg Config) Result {
	byID := make(map[string]int, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = i
	}

	rootIdx := -1
	for i := range nodes {
		if nodes[i].IsRoot() {
			rootIdx = i
			break
		}
	}
	if rootIdx < 0 {
		return Result{}
	}
	rootID := nodes[rootIdx].ID

	surviving := filterEdges(edges, byID)
	classified := classifyEdges(surviving, nodes, byID, rootID, hoveredID)

	// Children in document order; nodes whose parent is absent are
	// unreachable and never placed.
	children := make(map[string][]string)
	for i := range nodes {
		n := &nodes[i]
		if n.IsRoot() {
			continue
		}
		if _, ok := byID[n.ParentID]; ok {
			children[n.ParentID] = append(children[n.ParentID], n.ID)
		}
	}

	widths := make(map[string]float64, len(nodes))
	computeSubtreeWidths(rootID, children, widths, rootID, cfg)

	totalWidth := widths[rootID]
	initialX := cfg.ViewportWidth/2 - totalWidth/2

	type pos struct {
		x, y  float64
		level int
	}
	positions := make(map[string]pos, len(nodes))

	var place func(id string, startX float64, level int)
	place = func(id string, startX float64, level int) {
		own := cfg.NodeWidth
		if id == rootID {
			own = cfg.RootWidth
		}
		positions[id] = pos{
			x:     startX + (widths[id]-own)/2,
			y:     cfg.TopMargin + float64(level-1)*(cfg.NodeHeight+cfg.VerticalSpacing),
			level: level,
		}
		cursor := startX
		for _, childID := range children[id] {
			place(childID, cursor, level+1)
			cursor += widths[childID]
		}
	}
	place(rootID, initialX, 1)

	// Cross-edge post-pass: each target is adjusted at most once per
	// pass, pushed away from its source's side and stepped downward by
	// a cumulative offset.
	adjusted := make(map[string]bool)
	adjustments := 0
	for i := range classified {
		ce := &classified[i]
		if !ce.IsCrossEdge || adjusted[ce.TargetID] {
			continue
		}
		src, srcOK := positions[ce.SourceID]
		tgt, tgtOK := positions[ce.TargetID]
		if !srcOK || !tgtOK {
			continue
		}
		adjustments++
		if src.x < tgt.x {
			tgt.x += cfg.CrossOffsetX
		} else {
			tgt.x -= cfg.CrossOffsetX
		}
		tgt.y += cfg.CrossOffsetY * float64(adjustments)
		positions[ce.TargetID] = tgt
		adjusted[ce.TargetID] = true
	}

	connected := connectedToHover(classified, hoveredID)

	out := Result{
		Nodes:      make([]PositionedNode, 0, len(positions)),
		Edges:      classified,
		TotalWidth: totalWidth,
	}
	for i := range nodes {
		p, ok := positions[nodes[i].ID]
		if !ok {
			continue
		}
		id := nodes[i].ID
		out.Nodes = append(out.Nodes, PositionedNode{
			Node:          nodes[i],
			X:             p.x,
			Y:             p.y,
			Level:         p.level,
			IsRoot:        id == rootID,
			IsHighlighted: hoveredID != "" && (id == hoveredID || connected[id]),
		})
	}

	return out
}

// computeSubtreeWidths fills widths bottom-up: a leaf occupies one node
// slot plus spacing, an internal node the sum of its children.
func computeSubtreeWidths(id string, children map[string][]string, widths map[string]float64, rootID string, cfg Config) float64 {
	kids := children[id]
	if len(kids) == 0 {
		own := cfg.NodeWidth
		if id == rootID {
			own = cfg.RootWidth
		}
		w := own + cfg.HorizontalSpacing
		widths[id] = w
		return w
	}

	var sum float64
	for _, childID := range kids {
		sum += computeSubtreeWidths(childID, children, widths, rootID, cfg)
	}
	widths[id] = sum
	return sum
}

func filterEdges(edges []contribution.Edge, byID map[string]int) []contribution.Edge {
	out := make([]contribution.Edge, 0, len(edges))
	for _, e := range edges {
		if _, ok := byID[e.SourceID]; !ok {
			continue
		}
		if _, ok := byID[e.TargetID]; !ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

func connectedToHover(edges []ClassifiedEdge, hoveredID string) map[string]bool {
	connected := make(map[string]bool)
	if hoveredID == "" {
		return connected
	}
	for _, e := range edges {
		if e.SourceID == hoveredID {
			connected[e.TargetID] = true
		}
		if e.TargetID == hoveredID {
			connected[e.SourceID] = true
		}
	}
	return connected
}
