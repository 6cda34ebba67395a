package contribution

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// Edge connects two nodes in a post's contribution graph. Whether it is a
// tree edge or a cross edge is derived from the target's ParentID, never
// stored.
type Edge struct {
	ID       string `json:"id" dynamodbav:"ID"`
	SourceID string `json:"sourceId" dynamodbav:"SourceID"`
	TargetID string `json:"targetId" dynamodbav:"TargetID"`
}

// Tree is the aggregate for one post's contributions document: the full
// node and edge arrays plus a version used for conditional writes. The
// synthetic root node is not part of Nodes; callers merge it in via
// NodesWithRoot before layout.
type Tree struct {
	PostID  string `json:"postId"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
	Version int    `json:"-"`
}

// NewTree creates an empty contributions document for a post
func NewTree(postID string) *Tree {
	return &Tree{
		PostID:  postID,
		Nodes:   []Node{},
		Edges:   []Edge{},
		Version: 0,
	}
}

// FindNode returns a pointer to the node with the given ID, or nil
func (t *Tree) FindNode(id string) *Node {
	for i := range t.Nodes {
		if t.Nodes[i].ID == id {
			return &t.Nodes[i]
		}
	}
	return nil
}

// HasNode reports whether the tree contains the node or it is the root
func (t *Tree) HasNode(id string) bool {
	return id == RootNodeID || t.FindNode(id) != nil
}

// AppendContribution adds a new node plus its tree edge, and an optional
// cross edge when crossTargetID is set and differs from the parent.
// The parent and cross target must already exist (the root counts).
func (t *Tree) AppendContribution(node Node, crossTargetID string) error {
	if node.ID == "" {
		return pkgerrors.NewValidationError("node ID cannot be empty")
	}
	if node.ParentID == "" {
		return pkgerrors.NewValidationError("a contribution must have a parent")
	}
	if t.FindNode(node.ID) != nil {
		return pkgerrors.NewConflictError("node already exists")
	}
	if !t.HasNode(node.ParentID) {
		return pkgerrors.NewValidationError(fmt.Sprintf("parent node %q does not exist", node.ParentID))
	}
	if crossTargetID != "" && crossTargetID != node.ParentID && !t.HasNode(crossTargetID) {
		return pkgerrors.NewValidationError(fmt.Sprintf("cross-link target %q does not exist", crossTargetID))
	}

	t.Nodes = append(t.Nodes, node)
	t.Edges = append(t.Edges, Edge{
		ID:       uuid.New().String(),
		SourceID: node.ParentID,
		TargetID: node.ID,
	})
	if crossTargetID != "" && crossTargetID != node.ParentID {
		t.Edges = append(t.Edges, Edge{
			ID:       uuid.New().String(),
			SourceID: crossTargetID,
			TargetID: node.ID,
		})
	}

	return nil
}

// ToggleVote applies a vote toggle on a node in the tree
func (t *Tree) ToggleVote(nodeID, userID string, direction VoteDirection) error {
	node := t.FindNode(nodeID)
	if node == nil {
		return pkgerrors.NewNotFoundError("node")
	}
	return node.ToggleVote(userID, direction)
}

// AddComment appends a comment to a node in the tree
func (t *Tree) AddComment(nodeID string, c Comment) error {
	node := t.FindNode(nodeID)
	if node == nil {
		return pkgerrors.NewNotFoundError("node")
	}
	return node.AddComment(c)
}

// AddReply appends a reply under a node's existing comment
func (t *Tree) AddReply(nodeID, commentID string, reply Comment) error {
	node := t.FindNode(nodeID)
	if node == nil {
		return pkgerrors.NewNotFoundError("node")
	}
	return node.AddReply(commentID, reply)
}

// NodesWithRoot returns the synthetic root followed by the stored nodes,
// preserving document order. The result is a copy; mutating it does not
// touch the tree.
func (t *Tree) NodesWithRoot(root Node) []Node {
	merged := make([]Node, 0, len(t.Nodes)+1)
	merged = append(merged, root)
	for i := range t.Nodes {
		merged = append(merged, t.Nodes[i].Clone())
	}
	return merged
}

// DanglingEdges returns edges whose endpoints are missing from the node
// set (root included). Layout drops them; this exists for diagnostics.
func (t *Tree) DanglingEdges() []Edge {
	var out []Edge
	for _, e := range t.Edges {
		if !t.HasNode(e.SourceID) || !t.HasNode(e.TargetID) {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy of the tree
func (t *Tree) Clone() *Tree {
	out := &Tree{
		PostID:  t.PostID,
		Nodes:   make([]Node, len(t.Nodes)),
		Edges:   append([]Edge(nil), t.Edges...),
		Version: t.Version,
	}
	for i := range t.Nodes {
		out.Nodes[i] = t.Nodes[i].Clone()
	}
	return out
}
