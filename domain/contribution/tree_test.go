package contribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

func TestAppendContribution(t *testing.T) {
	tree := NewTree("post-1")

	first := Node{ID: "n1", ParentID: RootNodeID, MediaRef: "posts/post-1/contrib/a.png"}
	require.NoError(t, tree.AppendContribution(first, ""))
	require.Len(t, tree.Nodes, 1)
	require.Len(t, tree.Edges, 1)
	assert.Equal(t, RootNodeID, tree.Edges[0].SourceID)
	assert.Equal(t, "n1", tree.Edges[0].TargetID)
	assert.NotEmpty(t, tree.Edges[0].ID)

	// Cross link to a node other than the parent yields a second edge.
	second := Node{ID: "n2", ParentID: RootNodeID}
	require.NoError(t, tree.AppendContribution(second, "n1"))
	require.Len(t, tree.Edges, 3)
	assert.Equal(t, "n1", tree.Edges[2].SourceID)
	assert.Equal(t, "n2", tree.Edges[2].TargetID)
}

func TestAppendContributionCrossTargetEqualsParent(t *testing.T) {
	tree := NewTree("post-1")

	n := Node{ID: "n1", ParentID: RootNodeID}
	require.NoError(t, tree.AppendContribution(n, RootNodeID))

	// No duplicate edge when the cross target is the parent.
	assert.Len(t, tree.Edges, 1)
}

func TestAppendContributionValidation(t *testing.T) {
	tree := NewTree("post-1")
	require.NoError(t, tree.AppendContribution(Node{ID: "n1", ParentID: RootNodeID}, ""))

	tests := map[string]struct {
		node        Node
		crossTarget string
		check       func(error) bool
	}{
		"empty id":            {Node{ParentID: RootNodeID}, "", pkgerrors.IsValidation},
		"no parent":           {Node{ID: "n2"}, "", pkgerrors.IsValidation},
		"duplicate id":        {Node{ID: "n1", ParentID: RootNodeID}, "", pkgerrors.IsConflict},
		"missing parent":      {Node{ID: "n2", ParentID: "ghost"}, "", pkgerrors.IsValidation},
		"missing cross":       {Node{ID: "n2", ParentID: RootNodeID}, "ghost", pkgerrors.IsValidation},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tree.AppendContribution(tc.node, tc.crossTarget)
			require.Error(t, err)
			assert.True(t, tc.check(err))
		})
	}
}

func TestTreeVoteAndComments(t *testing.T) {
	tree := NewTree("post-1")
	require.NoError(t, tree.AppendContribution(Node{ID: "n1", ParentID: RootNodeID}, ""))

	require.NoError(t, tree.ToggleVote("n1", "user-1", VoteUp))
	assert.True(t, tree.FindNode("n1").HasUpvote("user-1"))

	err := tree.ToggleVote("missing", "user-1", VoteUp)
	assert.True(t, pkgerrors.IsNotFound(err))

	require.NoError(t, tree.AddComment("n1", Comment{ID: "c1", UserID: "user-1", Text: "hi"}))
	require.NoError(t, tree.AddReply("n1", "c1", Comment{ID: "r1", UserID: "user-2", Text: "yo"}))
	assert.Len(t, tree.FindNode("n1").Comments[0].Replies, 1)

	err = tree.AddComment("missing", Comment{ID: "c2", UserID: "user-1", Text: "hi"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestNodesWithRootIsACopy(t *testing.T) {
	tree := NewTree("post-1")
	require.NoError(t, tree.AppendContribution(Node{ID: "n1", ParentID: RootNodeID, UpvoterIDs: []string{"user-1"}}, ""))

	root := Node{ID: RootNodeID, MediaRef: "https://cdn.example.com/root.png"}
	merged := tree.NodesWithRoot(root)

	require.Len(t, merged, 2)
	assert.Equal(t, RootNodeID, merged[0].ID)
	assert.Equal(t, "n1", merged[1].ID)

	merged[1].UpvoterIDs[0] = "other"
	assert.Equal(t, "user-1", tree.FindNode("n1").UpvoterIDs[0])
}

func TestDanglingEdges(t *testing.T) {
	tree := NewTree("post-1")
	require.NoError(t, tree.AppendContribution(Node{ID: "n1", ParentID: RootNodeID}, ""))
	tree.Edges = append(tree.Edges, Edge{ID: "stale", SourceID: "n1", TargetID: "deleted"})

	dangling := tree.DanglingEdges()
	require.Len(t, dangling, 1)
	assert.Equal(t, "stale", dangling[0].ID)
}

func TestPostRootNode(t *testing.T) {
	p := Post{
		ID:          "post-1",
		OwnerUserID: "owner-1",
		MediaURL:    "https://cdn.example.com/root.mp4",
		Prompt:      "origin",
		ModelName:   "gen-v3",
		LikerIDs:    []string{"user-1", "user-2"},
	}

	root := p.RootNode()
	assert.Equal(t, RootNodeID, root.ID)
	assert.True(t, root.IsRoot())
	assert.Equal(t, p.MediaURL, root.MediaRef)
	assert.Equal(t, 2, root.NetVotes())

	// Likes are copied, not aliased.
	root.UpvoterIDs[0] = "other"
	assert.Equal(t, "user-1", p.LikerIDs[0])
}

func TestPostToggleLike(t *testing.T) {
	p := Post{ID: "post-1"}

	require.NoError(t, p.ToggleLike("user-1"))
	assert.True(t, p.HasLike("user-1"))
	require.NoError(t, p.ToggleLike("user-1"))
	assert.False(t, p.HasLike("user-1"))

	err := p.ToggleLike("")
	assert.True(t, pkgerrors.IsValidation(err))
}
