package contribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

func TestToggleVoteMutualExclusion(t *testing.T) {
	n := &Node{ID: "n1", ParentID: "1"}

	require.NoError(t, n.ToggleVote("user-1", VoteUp))
	assert.True(t, n.HasUpvote("user-1"))
	assert.Equal(t, 1, n.NetVotes())

	// Switching direction removes the opposite vote first.
	require.NoError(t, n.ToggleVote("user-1", VoteDown))
	assert.False(t, n.HasUpvote("user-1"))
	assert.True(t, n.HasDownvote("user-1"))
	assert.Equal(t, -1, n.NetVotes())

	// Same direction again toggles off.
	require.NoError(t, n.ToggleVote("user-1", VoteDown))
	assert.False(t, n.HasUpvote("user-1"))
	assert.False(t, n.HasDownvote("user-1"))
	assert.Equal(t, 0, n.NetVotes())
}

func TestToggleVoteIsolatedPerUser(t *testing.T) {
	n := &Node{ID: "n1", ParentID: "1"}

	require.NoError(t, n.ToggleVote("user-1", VoteUp))
	require.NoError(t, n.ToggleVote("user-2", VoteUp))
	require.NoError(t, n.ToggleVote("user-2", VoteDown))

	assert.True(t, n.HasUpvote("user-1"))
	assert.True(t, n.HasDownvote("user-2"))
	assert.Equal(t, 0, n.NetVotes())
}

func TestToggleVoteValidation(t *testing.T) {
	n := &Node{ID: "n1", ParentID: "1"}

	err := n.ToggleVote("", VoteUp)
	assert.True(t, pkgerrors.IsValidation(err))

	err = n.ToggleVote("user-1", VoteDirection("sideways"))
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, 0, n.NetVotes())
}

func TestParseVoteDirection(t *testing.T) {
	d, err := ParseVoteDirection("up")
	require.NoError(t, err)
	assert.Equal(t, VoteUp, d)

	d, err = ParseVoteDirection("down")
	require.NoError(t, err)
	assert.Equal(t, VoteDown, d)

	_, err = ParseVoteDirection("UP")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestAddCommentAndReply(t *testing.T) {
	n := &Node{ID: "n1", ParentID: "1"}

	c := Comment{ID: "c1", UserID: "user-1", Text: "nice remix", CreatedAt: "2026-08-28T10:00:00Z"}
	require.NoError(t, n.AddComment(c))
	require.Len(t, n.Comments, 1)

	reply := Comment{ID: "r1", UserID: "user-2", Text: "agreed"}
	require.NoError(t, n.AddReply("c1", reply))
	require.Len(t, n.Comments[0].Replies, 1)
	assert.Equal(t, "agreed", n.Comments[0].Replies[0].Text)

	err := n.AddReply("missing", reply)
	assert.True(t, pkgerrors.IsNotFound(err))

	err = n.AddComment(Comment{ID: "c2", UserID: "user-1", Text: "   "})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestCloneIsDeep(t *testing.T) {
	n := Node{
		ID:         "n1",
		ParentID:   "1",
		UpvoterIDs: []string{"user-1"},
		Comments: []Comment{{
			ID: "c1", UserID: "user-1", Text: "hi",
			Replies: []Comment{{ID: "r1", UserID: "user-2", Text: "yo"}},
		}},
	}

	clone := n.Clone()
	clone.UpvoterIDs[0] = "other"
	clone.Comments[0].Replies[0].Text = "changed"

	assert.Equal(t, "user-1", n.UpvoterIDs[0])
	assert.Equal(t, "yo", n.Comments[0].Replies[0].Text)
}

func TestHasResolvedMedia(t *testing.T) {
	assert.True(t, (&Node{MediaRef: "https://cdn.example.com/a.png"}).HasResolvedMedia())
	assert.True(t, (&Node{MediaRef: "http://cdn.example.com/a.png"}).HasResolvedMedia())
	assert.False(t, (&Node{MediaRef: "posts/p1/contrib/a.png"}).HasResolvedMedia())
	assert.False(t, (&Node{}).HasResolvedMedia())
}
