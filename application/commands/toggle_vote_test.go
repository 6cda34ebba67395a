package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kryoon/backend/domain/contribution"
	"github.com/kryoon/backend/infrastructure/persistence/memory"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

func voteFixture(t *testing.T) (*memory.TreeRepository, *memory.PostRepository, *ToggleVoteHandler) {
	t.Helper()
	treeRepo := memory.NewTreeRepository()
	postRepo := memory.NewPostRepository()

	tree := contribution.NewTree("post-1")
	require.NoError(t, tree.AppendContribution(contribution.Node{ID: "n1", ParentID: contribution.RootNodeID}, ""))
	require.NoError(t, treeRepo.Create(context.Background(), "owner-1", tree))
	postRepo.Put(&contribution.Post{ID: "post-1", OwnerUserID: "owner-1"})

	h := NewToggleVoteHandler(treeRepo, postRepo, memory.NewNotifier(), zap.NewNop())
	return treeRepo, postRepo, h
}

func TestToggleVoteOnNode(t *testing.T) {
	treeRepo, _, h := voteFixture(t)

	cmd := ToggleVoteCommand{
		OwnerUserID: "owner-1", PostID: "post-1",
		NodeID: "n1", UserID: "user-1", Direction: contribution.VoteUp,
	}
	require.NoError(t, h.Handle(context.Background(), cmd))

	tree, err := treeRepo.Get(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	assert.True(t, tree.FindNode("n1").HasUpvote("user-1"))

	cmd.Direction = contribution.VoteDown
	require.NoError(t, h.Handle(context.Background(), cmd))

	tree, err = treeRepo.Get(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	assert.False(t, tree.FindNode("n1").HasUpvote("user-1"))
	assert.True(t, tree.FindNode("n1").HasDownvote("user-1"))
}

func TestToggleVoteOnRootTogglesPostLike(t *testing.T) {
	_, postRepo, h := voteFixture(t)

	cmd := ToggleVoteCommand{
		OwnerUserID: "owner-1", PostID: "post-1",
		NodeID: contribution.RootNodeID, UserID: "user-1", Direction: contribution.VoteUp,
	}
	require.NoError(t, h.Handle(context.Background(), cmd))

	post, err := postRepo.GetPost(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	assert.True(t, post.HasLike("user-1"))

	cmd.Direction = contribution.VoteDown
	err = h.Handle(context.Background(), cmd)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestToggleVoteValidatesCommand(t *testing.T) {
	_, _, h := voteFixture(t)

	err := h.Handle(context.Background(), ToggleVoteCommand{
		OwnerUserID: "owner-1", PostID: "post-1",
		NodeID: "n1", UserID: "user-1", Direction: "sideways",
	})
	assert.True(t, pkgerrors.IsValidation(err))

	err = h.Handle(context.Background(), ToggleVoteCommand{
		OwnerUserID: "owner-1", PostID: "post-1",
		NodeID: "missing", UserID: "user-1", Direction: contribution.VoteUp,
	})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestTogglePostLike(t *testing.T) {
	postRepo := memory.NewPostRepository()
	postRepo.Put(&contribution.Post{ID: "post-1", OwnerUserID: "owner-1"})
	h := NewTogglePostLikeHandler(postRepo, memory.NewNotifier(), zap.NewNop())

	cmd := TogglePostLikeCommand{OwnerUserID: "owner-1", PostID: "post-1", UserID: "user-1"}
	require.NoError(t, h.Handle(context.Background(), cmd))

	post, err := postRepo.GetPost(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	assert.True(t, post.HasLike("user-1"))

	require.NoError(t, h.Handle(context.Background(), cmd))
	post, err = postRepo.GetPost(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	assert.False(t, post.HasLike("user-1"))
}

func TestAddCommentAndReplyCommands(t *testing.T) {
	treeRepo := memory.NewTreeRepository()
	tree := contribution.NewTree("post-1")
	require.NoError(t, tree.AppendContribution(contribution.Node{ID: "n1", ParentID: contribution.RootNodeID}, ""))
	require.NoError(t, treeRepo.Create(context.Background(), "owner-1", tree))

	h := NewAddCommentHandler(treeRepo, memory.NewNotifier(), zap.NewNop())

	comment, err := h.Handle(context.Background(), AddCommentCommand{
		OwnerUserID: "owner-1", PostID: "post-1", NodeID: "n1",
		UserID: "user-1", Username: "ada", Text: "love this",
	})
	require.NoError(t, err)
	require.NotNil(t, comment)

	_, err = h.Handle(context.Background(), AddCommentCommand{
		OwnerUserID: "owner-1", PostID: "post-1", NodeID: "n1",
		UserID: "user-2", Text: "same", ReplyToCommentID: comment.ID,
	})
	require.NoError(t, err)

	stored, err := treeRepo.Get(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	comments := stored.FindNode("n1").Comments
	require.Len(t, comments, 1)
	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, "same", comments[0].Replies[0].Text)

	_, err = h.Handle(context.Background(), AddCommentCommand{
		OwnerUserID: "owner-1", PostID: "post-1", NodeID: "n1",
		UserID: "user-1", Text: "",
	})
	assert.True(t, pkgerrors.IsValidation(err))
}
